package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, role models.UserRole, expires time.Time) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService("secret")

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "secret", models.RoleAdmin, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret")

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, "other", models.RoleAdmin, time.Now().Add(time.Hour)),
		"expired":      signToken(t, jwt.SigningMethodHS256, "secret", models.RoleAdmin, time.Now().Add(-time.Hour)),
		"wrong alg":    signToken(t, jwt.SigningMethodHS384, "secret", models.RoleAdmin, time.Now().Add(time.Hour)),
		"unknown role": signToken(t, jwt.SigningMethodHS256, "secret", models.UserRole("GUEST"), time.Now().Add(time.Hour)),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
		})
	}
}

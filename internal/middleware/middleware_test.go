package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/service"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type validatorStub map[string]models.UserRole

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := v[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "user-" + token, Role: role}, nil
}

func newProtectedRouter(metrics *service.MetricsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics(metrics))
	tokens := validatorStub{"admin": models.RoleAdmin, "student": models.RoleStudent}
	group := router.Group("/", JWT(tokens))
	group.GET("/read", func(c *gin.Context) { c.Status(http.StatusOK) })
	group.POST("/write", RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func perform(router *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	router := newProtectedRouter(nil)

	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/read", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/read", "Token admin").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/read", "Bearer nope").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/read", "Bearer student").Code)
}

func TestRequireRoles(t *testing.T) {
	router := newProtectedRouter(nil)

	assert.Equal(t, http.StatusForbidden, perform(router, http.MethodPost, "/write", "Bearer student").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodPost, "/write", "Bearer admin").Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/", "").Code)
}

func TestMetricsMiddlewareRecordsRequests(t *testing.T) {
	metrics := service.NewMetricsService()
	router := newProtectedRouter(metrics)

	perform(router, http.MethodGet, "/read", "Bearer admin")
	perform(router, http.MethodGet, "/read", "")

	snapshot := metrics.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
}

func TestMetricsMiddlewareCountsUnmatchedRoutes(t *testing.T) {
	metrics := service.NewMetricsService()
	router := newProtectedRouter(metrics)

	w := perform(router, http.MethodGet, "/nowhere/42", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}

func TestMetricsMiddlewareWithoutService(t *testing.T) {
	router := newProtectedRouter(nil)

	w := perform(router, http.MethodGet, "/read", "Bearer admin")

	assert.Equal(t, http.StatusOK, w.Code)
}

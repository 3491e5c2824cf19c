package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndOverridesMessage(t *testing.T) {
	clone := Clone(ErrGenerationInProgress, "semester sem-1 is busy")
	assert.Equal(t, ErrGenerationInProgress.Code, clone.Code)
	assert.Equal(t, http.StatusConflict, clone.Status)
	assert.Equal(t, "semester sem-1 is busy", clone.Message)
	assert.NotEqual(t, clone.Message, ErrGenerationInProgress.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestIsMatchesByCodeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("acquire: %w", Clone(ErrGenerationInProgress, "busy"))
	assert.True(t, Is(wrapped, ErrGenerationInProgress))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(nil, ErrNotFound))
}

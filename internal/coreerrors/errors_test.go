package coreerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesWrappedCode(t *testing.T) {
	err := fmt.Errorf("context: %w", NotFound("MediaItem", "I:abc"))
	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeDbError))
}

func TestIs_NonCoreErrorNeverMatches(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), CodeNotFound))
}

func TestWrap_PreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := DbError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithDetail_ChainsAndStores(t *testing.T) {
	err := UnexpectedPath("a/b/c/d/e").WithDetail("segments", 5)
	assert.Equal(t, "a/b/c/d/e", err.Details["path"])
	assert.Equal(t, 5, err.Details["segments"])
}

func TestAs_ExtractsCoreError(t *testing.T) {
	wrapped := fmt.Errorf("op failed: %w", InvalidData("bad field"))
	ce, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeInvalidData, ce.Code)
}

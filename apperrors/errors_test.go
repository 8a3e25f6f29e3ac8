package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := NotFound("Device not found.")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))

	wrapped := fmt.Errorf("toggle: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "Device not found.", MessageOf(wrapped))
}

func TestPersistenceUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("Error adding power units.", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUnknownErrorsArePersistence(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, "Internal server error.", MessageOf(err))
}

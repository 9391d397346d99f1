package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("liking place: %w", NewNotFoundError("place not found"))

	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeConflict, TypeOf(NewConflictError("already checked in today")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("boom")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("x")))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsConflict(fmt.Errorf("wrap: %w", NewConflictError("dup"))))
	assert.True(t, IsValidation(NewValidationError("count is required")))
	assert.False(t, IsValidation(NewInternalError("db", fmt.Errorf("down"))))
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewInternalError("failed to insert like", cause)

	assert.Equal(t, "INTERNAL: failed to insert like: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "CONFLICT: already checked in today", NewConflictError("already checked in today").Error())
}

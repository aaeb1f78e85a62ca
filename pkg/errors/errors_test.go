package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Creation(t *testing.T) {
	cause := errors.New("underlying error")

	err := NewValidationError("test validation error", cause)

	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "test validation error", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, ReasonNone, err.Reason)
	assert.NotNil(t, err.Context)
}

func TestDomainError_WithContextAndReason(t *testing.T) {
	err := NewNotFoundError("launcher missing", nil).
		WithReason(ReasonExecutableNotFound).
		WithContext("path", "/opt/webber/apache-tomcat-7/bin/catalina.sh")

	assert.Equal(t, ReasonExecutableNotFound, err.Reason)
	assert.Equal(t, "/opt/webber/apache-tomcat-7/bin/catalina.sh", err.Context["path"])
}

func TestDomainError_ErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		error    *DomainError
		expected string
	}{
		{
			name:     "error without cause",
			error:    NewValidationError("test message", nil),
			expected: "validation: test message",
		},
		{
			name:     "error with cause",
			error:    NewProcessError("test message", errors.New("cause")),
			expected: "process: test message: cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.error.Error())
		})
	}
}

func TestDomainError_TypeChecking(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConflictError("already started", nil))

	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsValidationError(wrapped))
	assert.True(t, IsIOError(NewIOError("io", nil)))
	assert.True(t, IsProcessError(NewProcessError("p", nil)))
	assert.True(t, IsNotFoundError(NewNotFoundError("nf", nil)))
	assert.True(t, IsCancelledError(NewCancelledError("c", nil)))
	assert.True(t, IsPermissionError(NewPermissionError("perm", nil)))
	assert.True(t, errors.Is(wrapped, &DomainError{Type: ErrorTypeConflict}))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewIOError("mkdir failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestReasonOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewIOError("rm", nil).WithReason(ReasonTempDirectoryNotDeleted))

	assert.Equal(t, ReasonTempDirectoryNotDeleted, ReasonOf(err))
	assert.Equal(t, ReasonNone, ReasonOf(errors.New("plain")))
}

func TestReason_Message(t *testing.T) {
	for _, reason := range Reasons() {
		t.Run(string(reason), func(t *testing.T) {
			msg := reason.Message()
			require.NotEmpty(t, msg)
			assert.NotEqual(t, string(reason), msg, "every known reason has a human-readable message")
		})
	}

	assert.Equal(t, "Catalina stopped unexpectedly.", ReasonStoppedUnexpectedly.Message())
	assert.Equal(t, "something_else", Reason("something_else").Message())
}

func TestErrorCollection(t *testing.T) {
	collection := NewErrorCollection()
	assert.NoError(t, collection.ToError())

	collection.Add(nil)
	assert.False(t, collection.HasErrors())

	collection.Add(errors.New("first"))
	assert.Equal(t, "first", collection.Error())

	collection.Add(errors.New("second"))
	assert.Equal(t, "2 errors occurred: first", collection.Error())
	assert.Error(t, collection.ToError())
}

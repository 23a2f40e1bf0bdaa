package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEngine means neither engine could be prepared.
	ErrNoEngine = errors.New("no speech engine available")

	// ErrEngineUnavailable means an engine failed its readiness check.
	ErrEngineUnavailable = errors.New("speech engine is not available")

	// ErrSynthesisFailed means an engine could not render the text.
	ErrSynthesisFailed = errors.New("text synthesis failed")

	// ErrCanceled is reported to Finished when a session is cut short.
	ErrCanceled = errors.New("speech canceled")

	// ErrClosed is returned after the adapter has been closed.
	ErrClosed = errors.New("speech adapter closed")

	// ErrEmptyText means there was nothing to speak.
	ErrEmptyText = errors.New("nothing to speak")
)

// ErrorCode identifies the class of a speech failure.
type ErrorCode string

const (
	ErrorCodeEngineFailure     ErrorCode = "ENGINE_FAILURE"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"
	ErrorCodeAudioFailure      ErrorCode = "AUDIO_FAILURE"
	ErrorCodeInvalidInput      ErrorCode = "INVALID_INPUT"
)

// Error is a speech failure with a code and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewError creates a speech error.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

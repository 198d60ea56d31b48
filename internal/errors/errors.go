package errors

import "fmt"

// ErrorCode represents a cueview error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST" // 400
	ErrUnauthenticated ErrorCode = "UNAUTHENTICATED" // 401
	ErrNotFound        ErrorCode = "NOT_FOUND"       // 404
	ErrSaveFailed      ErrorCode = "SAVE_FAILED"     // 500, annotation write did not land
	ErrInternal        ErrorCode = "INTERNAL"        // 500
)

// CueviewError represents a structured error with code, status, and details.
type CueviewError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CueviewError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CueviewError {
	return &CueviewError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthenticated creates a 401 error for requests without a signed-in annotator.
func NewUnauthenticated() *CueviewError {
	return &CueviewError{
		Code:    ErrUnauthenticated,
		Status:  401,
		Message: "sign in with your name to continue",
	}
}

// NewNotFound creates a 404 error for an unknown row or model.
func NewNotFound(what string) *CueviewError {
	return &CueviewError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewSaveFailed creates a 500 error for a failed annotation write.
// The atomic rename in the store guarantees no partial file was left on disk,
// but the caller must report the failure and must not navigate forward.
func NewSaveFailed(err error) *CueviewError {
	msg := "failed to save annotations"
	if err != nil {
		msg = fmt.Sprintf("failed to save annotations: %v", err)
	}
	return &CueviewError{
		Code:    ErrSaveFailed,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CueviewError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CueviewError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CueviewError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CueviewError); ok {
		return cErr.Code == code
	}
	return false
}

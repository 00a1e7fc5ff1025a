package errors

import "fmt"

// ErrorCode represents an Attaché error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"         // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"               // 404
	ErrSourceUnavailable     ErrorCode = "SOURCE_UNAVAILABLE"      // 502
	ErrAllSourcesUnavailable ErrorCode = "ALL_SOURCES_UNAVAILABLE" // 502
	ErrGraphReadFailed       ErrorCode = "GRAPH_READ_FAILED"       // 502
	ErrGraphWriteFailed      ErrorCode = "GRAPH_WRITE_FAILED"      // 502
	ErrInternal              ErrorCode = "INTERNAL"                // 500
)

// AttacheError represents a structured error with code, status, and details.
type AttacheError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AttacheError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AttacheError {
	return &AttacheError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(identifier string) *AttacheError {
	return &AttacheError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewSourceUnavailable creates a 502 error for a single failed upstream source.
// Synthesis records these per-source; they are never fatal.
func NewSourceUnavailable(source string, err error) *AttacheError {
	msg := "source unavailable"
	if err != nil {
		msg = err.Error()
	}
	return &AttacheError{
		Code:    ErrSourceUnavailable,
		Status:  502,
		Message: fmt.Sprintf("%s: %s", source, msg),
		Details: map[string]any{"source": source},
	}
}

// NewAllSourcesUnavailable creates a 502 error for a failed combined fetch.
func NewAllSourcesUnavailable(err error) *AttacheError {
	msg := "combined fetch failed"
	if err != nil {
		msg = err.Error()
	}
	return &AttacheError{
		Code:    ErrAllSourcesUnavailable,
		Status:  502,
		Message: msg,
	}
}

// NewGraphReadFailed creates a 502 error for a failed graph fetch.
func NewGraphReadFailed(err error) *AttacheError {
	msg := "graph fetch failed"
	if err != nil {
		msg = err.Error()
	}
	return &AttacheError{
		Code:    ErrGraphReadFailed,
		Status:  502,
		Message: msg,
	}
}

// NewGraphWriteFailed creates a 502 error for a failed graph write
// (episode, conversation, or clear).
func NewGraphWriteFailed(op string, err error) *AttacheError {
	msg := "graph write failed"
	if err != nil {
		msg = err.Error()
	}
	return &AttacheError{
		Code:    ErrGraphWriteFailed,
		Status:  502,
		Message: fmt.Sprintf("%s: %s", op, msg),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AttacheError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AttacheError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AttacheError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AttacheError); ok {
		return aErr.Code == code
	}
	return false
}

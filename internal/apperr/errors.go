package apperr

import "errors"

// Error is the domain error type carrying a stable code.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	Metadata map[string]string // Additional context for clients
	Cause    error             // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a domain error with metadata attached.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound               = New(CodeNotFound, "not found")
	ErrForbidden              = New(CodeForbidden, "forbidden")
	ErrInvalidTransition      = New(CodeInvalidTransition, "invalid transition")
	ErrSubmissionWindowClosed = New(CodeSubmissionWindowClosed, "submission window closed")
	ErrConflict               = New(CodeConflict, "conflict")
	ErrTransportUnavailable   = New(CodeTransportUnavailable, "transport unavailable")
	ErrReconnectExhausted     = New(CodeReconnectExhausted, "reconnect attempts exhausted")
)

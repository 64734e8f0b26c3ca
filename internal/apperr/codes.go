// Package apperr provides coded errors shared by the session engine.
package apperr

import "net/http"

// Code is a machine-readable error code. Callers branch on the code, never on
// the message.
type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"

	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	CodeNotFound               Code = "NOT_FOUND"
	CodeForbidden              Code = "FORBIDDEN"
	CodeInvalidTransition      Code = "INVALID_TRANSITION"
	CodeSubmissionWindowClosed Code = "SUBMISSION_WINDOW_CLOSED"
	CodeConflict               Code = "CONFLICT"
	CodeTransportUnavailable   Code = "TRANSPORT_UNAVAILABLE"
	CodeReconnectExhausted     Code = "RECONNECT_EXHAUSTED"

	// Submission errors
	CodeInvalidAnswer      Code = "INVALID_ANSWER"
	CodeMaxAttemptsReached Code = "MAX_ATTEMPTS_REACHED"
	CodeNotParticipant     Code = "NOT_PARTICIPANT"

	// Join errors
	CodeSessionFull      Code = "SESSION_FULL"
	CodeDisplayNameTaken Code = "DISPLAY_NAME_TAKEN"
)

// HTTPStatus maps a code to the status used by the HTTP surface.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument, CodeInvalidAnswer:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotParticipant:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict, CodeDisplayNameTaken:
		return http.StatusConflict
	case CodeSubmissionWindowClosed, CodeMaxAttemptsReached, CodeSessionFull:
		return http.StatusUnprocessableEntity
	case CodeTransportUnavailable, CodeReconnectExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

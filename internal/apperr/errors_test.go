package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeInvalidTransition, "cannot pause from idle")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatal("expected errors.Is to match on code")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatal("expected codes to differ")
	}

	wrapped := fmt.Errorf("control: %w", err)
	if !errors.Is(wrapped, ErrInvalidTransition) {
		t.Fatal("expected match through fmt wrapping")
	}
	if got := CodeOf(wrapped); got != CodeInvalidTransition {
		t.Fatalf("CodeOf = %q, want %q", got, CodeInvalidTransition)
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(CodeTransportUnavailable, "publish failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "publish failed" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q", got)
	}
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeForbidden, http.StatusForbidden},
		{CodeInvalidTransition, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeSubmissionWindowClosed, http.StatusUnprocessableEntity},
		{CodeMaxAttemptsReached, http.StatusUnprocessableEntity},
		{CodeInvalidAnswer, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeTransportUnavailable, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("Code(%q).HTTPStatus() = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

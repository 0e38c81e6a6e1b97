package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeProtocol, "test error")
	expected := "PROTOCOL_ERROR: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeTransport, "wrapped error")

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}
	if !strings.Contains(err.Error(), "original error") {
		t.Errorf("Error() should contain cause, got: %v", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should see through the wrapper")
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeInvalidConfig, "test error")
	err.WithContext("field", "value").WithContext("count", 42)

	if err.Context["field"] != "value" {
		t.Errorf("Context[field] = %v, want 'value'", err.Context["field"])
	}
	if err.Context["count"] != 42 {
		t.Errorf("Context[count] = %v, want 42", err.Context["count"])
	}
}

func TestGetAppError_ThroughChain(t *testing.T) {
	inner := NewTransportError("dial failed", errors.New("refused"))
	outer := fmt.Errorf("invite: %w", inner)

	got := GetAppError(outer)
	if got == nil {
		t.Fatal("expected to find AppError in chain")
	}
	if got.Code != ErrCodeTransport {
		t.Errorf("Code = %v, want %v", got.Code, ErrCodeTransport)
	}
}

func TestHasCode(t *testing.T) {
	err := NewProtocolError("bad envelope")
	if !HasCode(err, ErrCodeProtocol) {
		t.Error("expected HasCode to match")
	}
	if HasCode(err, ErrCodeTransport) {
		t.Error("expected HasCode to reject other codes")
	}
	if HasCode(errors.New("plain"), ErrCodeProtocol) {
		t.Error("plain errors carry no code")
	}
}

package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	cause := stderrors.New("boom")
	err := New(CodeExecution, "tool call failed", cause)
	msg := err.Error()
	if !strings.Contains(msg, "EXECUTION_ERROR") || !strings.Contains(msg, "boom") {
		t.Errorf("unexpected error string: %s", msg)
	}
	if !stderrors.Is(err, cause) {
		t.Errorf("expected cause to be unwrappable")
	}
}

func TestWithContextChaining(t *testing.T) {
	err := New(CodePlanning, "planner unavailable", nil).
		WithContext("cycle_id", uint64(42)).
		WithRecoverable(true)
	if err.Context["cycle_id"] != uint64(42) {
		t.Errorf("expected context value to be preserved")
	}
	if !err.Recoverable {
		t.Errorf("expected recoverable flag")
	}
}

func TestAsPraxisError(t *testing.T) {
	plain := stderrors.New("plain")
	pe := AsPraxisError(plain)
	if pe.Code != CodeInternal {
		t.Errorf("plain errors should wrap as internal, got %s", pe.Code)
	}
	typed := New(CodeMemoryError, "store down", nil)
	if AsPraxisError(typed) != typed {
		t.Errorf("typed errors should pass through unchanged")
	}
	if AsPraxisError(nil) != nil {
		t.Errorf("nil should stay nil")
	}
}

func TestIsFatal(t *testing.T) {
	if IsFatal(New(CodeExecution, "x", nil)) {
		t.Errorf("execution errors are not fatal")
	}
	if !IsFatal(New(CodeStateChannel, "store unwritable", nil)) {
		t.Errorf("state channel errors are fatal")
	}
	if IsFatal(nil) {
		t.Errorf("nil is not fatal")
	}
}

package qerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewNilPassthrough(t *testing.T) {
	if err := New(CodeNotFound, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := Newf(CodeUnconfigured, "no run configured")
	wrapped := fmt.Errorf("execute: %w", base)

	if !IsCode(wrapped, CodeUnconfigured) {
		t.Errorf("expected wrapped error to carry %s", CodeUnconfigured)
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Errorf("did not expect %s", CodeNotFound)
	}
	if got := CodeOf(wrapped); got != CodeUnconfigured {
		t.Errorf("CodeOf = %s, want %s", got, CodeUnconfigured)
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != CodeUnknown {
		t.Errorf("CodeOf = %s, want %s", got, CodeUnknown)
	}
	if IsCode(nil, CodeUnknown) {
		t.Error("nil error should never match a code")
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(CodeInvalidArgument, errors.New("total_round must be a non-negative integer"))
	want := "invalid_argument: total_round must be a non-negative integer"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &Error{Code: CodeUnconfigured}
	if bare.Error() != "unconfigured" {
		t.Errorf("bare Error() = %q", bare.Error())
	}
	if !errors.Is(err, errors.Unwrap(err)) {
		t.Error("expected Unwrap to expose the cause")
	}
}

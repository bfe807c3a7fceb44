package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad session: %s", "abc")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "bad session: abc" {
		t.Errorf("Message = %v, want %v", err.Message, "bad session: abc")
	}

	expected := "INVALID_INPUT: bad session: abc"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStore, cause, "list sessions")

	if err.Code != ErrCodeStore {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStore)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got, want := err.Error(), "STORE_ERROR: list sessions: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeGraphCycle, "x"), ErrCodeGraphCycle, true},
		{"non-matching code", New(ErrCodeGraphCycle, "x"), ErrCodeStore, false},
		{"outermost wins", Wrap(ErrCodeStore, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeStore, true},
		{"non-Error type", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeMissingAttrs, "x"), ErrCodeMissingAttrs},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "friendly message")); got != "friendly message" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidSessionID, "x"), 400},
		{New(ErrCodeGraphCycle, "x"), 400},
		{New(ErrCodeSessionNotFound, "x"), 404},
		{New(ErrCodeStore, "x"), 502},
		{New(ErrCodeTimeout, "x"), 504},
		{errors.New("plain"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

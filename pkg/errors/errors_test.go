package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidQuality, "test message: %s", "value")

	if err.Code != ErrCodeInvalidQuality {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidQuality)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_QUALITY: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeEncode, cause, "encode cat-800w.jpg")

	if err.Code != ErrCodeEncode {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeEncode)
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
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeDecode, "test"), ErrCodeDecode, true},
		{"non-matching code", New(ErrCodeDecode, "test"), ErrCodeEncode, false},
		{"wrapped error", Wrap(ErrCodePlaceholder, New(ErrCodeDecode, "inner"), "outer"), ErrCodePlaceholder, true},
		{"non-Error type", errors.New("plain error"), ErrCodeDecode, false},
		{"nil error", nil, ErrCodeDecode, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndCodeOr(t *testing.T) {
	if got := GetCode(New(ErrCodeWrite, "x")); got != ErrCodeWrite {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeWrite)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
	if got := CodeOr(errors.New("plain"), ErrCodeEncode); got != ErrCodeEncode {
		t.Errorf("CodeOr(plain) = %v, want %v", got, ErrCodeEncode)
	}
	if got := CodeOr(New(ErrCodeDecode, "x"), ErrCodeEncode); got != ErrCodeDecode {
		t.Errorf("CodeOr(coded) = %v, want %v", got, ErrCodeDecode)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"Error with cause", Wrap(ErrCodeWrite, errors.New("disk full"), "write out.jpg"), "write out.jpg: disk full"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFatal(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeDiscovery, true},
		{ErrCodeManifestWrite, true},
		{ErrCodeInvalidQuality, true},
		{ErrCodeNameExtraction, false},
		{ErrCodeDecode, false},
		{ErrCodePlaceholder, false},
		{ErrCodeEncode, false},
		{ErrCodeDuplicateName, false},
	}

	for _, tt := range tests {
		if got := Fatal(New(tt.code, "x")); got != tt.want {
			t.Errorf("Fatal(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}

	if Fatal(errors.New("plain")) {
		t.Error("Fatal(plain) = true, want false")
	}
}

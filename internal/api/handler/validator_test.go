package handler

import (
	"strings"
	"testing"
)

func TestValidator_MessagesUseJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&registerRequest{Email: "nope", Password: "short"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"email must be a valid email", "password must be at least 8 characters"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestValidator_EditField(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&editFieldRequest{Field: "lastName", Value: "Lovelace"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := v.Validate(&editFieldRequest{Field: "nickname"})
	if err == nil || !strings.Contains(err.Error(), "field must be one of") {
		t.Fatalf("expected oneof error, got %v", err)
	}
}

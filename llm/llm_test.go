package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIErrorMessage(t *testing.T) {
	e := &APIError{StatusCode: 429, Message: "slow down"}
	if got := e.Error(); got != "llm http 429: slow down" {
		t.Errorf("unexpected error string: %q", got)
	}
	e = &APIError{StatusCode: 500}
	if got := e.Error(); got != "llm http 500" {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestAPIErrorRateLimited(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, false},
		{400, false},
		{200, false},
	}
	for _, tt := range tests {
		e := &APIError{StatusCode: tt.status}
		if got := e.RateLimited(); got != tt.want {
			t.Errorf("status %d: RateLimited() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestAPIErrorUnwrapsWithAs(t *testing.T) {
	var wrapped error = fmt.Errorf("chat failed: %w", &APIError{StatusCode: 429})
	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As failed to find APIError")
	}
	if !apiErr.RateLimited() {
		t.Error("expected rate-limited classification through wrapping")
	}
}

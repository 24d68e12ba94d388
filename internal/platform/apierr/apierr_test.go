package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsKeepsTypedErrors(t *testing.T) {
	base := BadRequest("invalid_request", errors.New("messages are required"))
	wrapped := fmt.Errorf("respond: %w", base)

	got := As(wrapped)
	if got != base {
		t.Fatalf("As did not unwrap to the original error")
	}
	if got.Message() != "messages are required" {
		t.Fatalf("unexpected message: %q", got.Message())
	}
}

func TestAsHidesUntypedErrors(t *testing.T) {
	got := As(errors.New("pq: connection refused"))
	if got.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", got.Status)
	}
	if got.Message() != "internal server error" {
		t.Fatalf("internal detail leaked: %q", got.Message())
	}
}

func TestConfigAndUpstreamHideCause(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		code string
	}{
		{name: "config", err: Config(errors.New("missing GOOGLE_API_KEY")), code: "server_config"},
		{name: "upstream", err: Upstream("failed to process chat request", errors.New("429 quota")), code: "upstream_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Status != http.StatusInternalServerError {
				t.Fatalf("status=%d", tc.err.Status)
			}
			if tc.err.Code != tc.code {
				t.Fatalf("code=%q want %q", tc.err.Code, tc.code)
			}
			if tc.err.Message() == tc.err.Err.Error() {
				t.Fatalf("cause exposed in public message")
			}
		})
	}
}

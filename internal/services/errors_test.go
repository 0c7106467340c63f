package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"bericht/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUpstream, "whisper", "transcribe", "failed", base)
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"whisper", "transcribe", "failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapUpstreamClassifiesTimeouts(t *testing.T) {
	err := services.WrapUpstream("llm", "complete", fmt.Errorf("do: %w", context.DeadlineExceeded))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	err = services.WrapUpstream("llm", "complete", errors.New("connection refused"))
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream marker, got %v", err)
	}
	validation := services.Wrap(services.ErrValidation, "title", "generate", "text required", nil)
	if got := services.WrapUpstream("llm", "complete", validation); got != validation {
		t.Fatalf("expected validation errors to pass through, got %v", got)
	}
	if services.WrapUpstream("llm", "complete", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrValidation, "", "", "bad", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrUnauthorized, "", "", "token", nil), http.StatusUnauthorized},
		{services.Wrap(services.ErrConfiguration, "", "", "missing url", nil), http.StatusServiceUnavailable},
		{services.Wrap(services.ErrTimeout, "", "", "slow", nil), http.StatusGatewayTimeout},
		{services.Wrap(services.ErrUpstream, "", "", "502", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

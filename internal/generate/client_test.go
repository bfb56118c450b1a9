package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ClaudeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClaudeClient("test-key", "test-model").WithEndpoint(srv.URL)
	t.Cleanup(c.Close)
	return c
}

func TestClaudeClient_Complete(t *testing.T) {
	var got messageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{
			"content": [{"type":"text","text":"  The door opened. "}],
			"usage": {"input_tokens": 120, "output_tokens": 30}
		}`))
	})

	out, err := c.Complete(context.Background(), "continue", 256)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text != "The door opened." {
		t.Errorf("text = %q", out.Text)
	}
	if out.TokensUsed() != 150 {
		t.Errorf("tokens used = %d, want 150", out.TokensUsed())
	}
	if got.Model != "test-model" || got.MaxTokens != 256 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "continue" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if c.Stats.Snapshot().Count != 1 {
		t.Errorf("expected latency to be recorded")
	}
}

func TestClaudeClient_Retryable(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", status)
		})
		_, err := c.Complete(context.Background(), "x", 10)
		var re *RetryableError
		if !errors.As(err, &re) || re.StatusCode != status {
			t.Errorf("status %d: expected RetryableError, got %v", status, err)
		}
		if !IsRetryable(err) {
			t.Errorf("status %d: IsRetryable = false", status)
		}
	}
}

func TestClaudeClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"nope"}}`, "status 400"},
		{"api error", http.StatusOK, `{"error":{"type":"overloaded","message":"busy"}}`, "overloaded"},
		{"empty", http.StatusOK, `{"content":[]}`, "empty response"},
		{"garbage", http.StatusOK, `not json`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Complete(context.Background(), "x", 10)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
			if IsRetryable(err) {
				t.Errorf("did not expect a retryable error")
			}
		})
	}
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(VendorConfig{APIKey: "test-key", Model: "claude-haiku", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return p
}

func anthropicMessage(text, stopReason string) map[string]any {
	content := []map[string]any{}
	if text != "" {
		content = append(content, map[string]any{"type": "text", "text": text})
	}
	return map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-haiku-4-5-20251001",
		"content":       content,
		"stop_reason":   stopReason,
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 30, "output_tokens": 12},
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	var got map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage("Practise slicing every day.", "end_turn"))
	})

	resp, err := p.Generate(context.Background(), UserPrompt("You are a career coach.", "Give me a tip.", 0, 0.4))
	require.NoError(t, err)

	assert.Equal(t, "Practise slicing every day.", resp.Content)
	assert.Equal(t, 30, resp.Usage.InputTokens)
	assert.Equal(t, 12, resp.Usage.OutputTokens)
	assert.Equal(t, 42, resp.Usage.TotalTokens)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())

	assert.Equal(t, "claude-haiku-4-5-20251001", got["model"])
	assert.Equal(t, float64(anthropicDefaultMaxTokens), got["max_tokens"])
	system := got["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "You are a career coach.", system[0].(map[string]any)["text"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestAnthropicProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		errType string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "rate limit",
			status:  http.StatusTooManyRequests,
			errType: "rate_limit_error",
			check: func(t *testing.T, err error) {
				var rl *ErrRateLimit
				assert.True(t, errors.As(err, &rl))
			},
		},
		{
			name:    "overloaded",
			status:  529,
			errType: "overloaded_error",
			check: func(t *testing.T, err error) {
				var pu *ErrProviderUnavailable
				assert.True(t, errors.As(err, &pu))
			},
		},
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			errType: "invalid_request_error",
			check: func(t *testing.T, err error) {
				var pu *ErrProviderUnavailable
				assert.True(t, errors.As(err, &pu))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"type":  "error",
					"error": map[string]any{"type": tt.errType, "message": "nope"},
				})
			})

			_, err := p.Generate(context.Background(), UserPrompt("", "hi", 16, 0))
			require.Error(t, err)
			tt.check(t, err)
			// 不重试
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestAnthropicProvider_EmptyContent(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage("", "max_tokens"))
	})

	resp, err := p.Generate(context.Background(), UserPrompt("", "hi", 16, 0))
	require.NoError(t, err)
	assert.Equal(t, "max_tokens", resp.StopReason)

	_, err = resp.Text()
	var empty *ErrEmptyResponse
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, "max_tokens", empty.StopReason)
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(VendorConfig{})
	assert.Error(t, err)
}

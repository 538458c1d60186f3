// Package llm wraps the generative model vendors behind a single Provider
// interface. Callers get raw text back; turning it into structured data is
// the caller's job (see ExtractJSONArray and ValidateJSON).
package llm

import (
	"context"
	"strings"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt to the model and returns its text output.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation history. Single-turn generation uses one
	// user message.
	Messages []Message

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the model's output.
type Response struct {
	// Content is the raw text returned by the model. It is untrusted.
	Content string

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string, maxTokens int, temperature float64) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// Text returns the trimmed response content, or ErrEmptyResponse when the
// model produced nothing usable.
func (r *Response) Text() (string, error) {
	if r == nil {
		return "", &ErrEmptyResponse{}
	}
	text := strings.TrimSpace(r.Content)
	if text == "" {
		return "", &ErrEmptyResponse{StopReason: r.StopReason}
	}
	return text, nil
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}

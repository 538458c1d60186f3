package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseText(t *testing.T) {
	text, err := (&Response{Content: "  hello \n"}).Text()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = (&Response{Content: "   ", StopReason: "max_tokens"}).Text()
	var empty *ErrEmptyResponse
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, "max_tokens", empty.StopReason)
}

func TestMockProvider_FIFO(t *testing.T) {
	m := NewMockProvider(
		MockResponse{Content: "first"},
		MockResponse{Err: &ErrRateLimit{}},
	)

	resp, err := m.Generate(context.Background(), UserPrompt("", "a", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	_, err = m.Generate(context.Background(), UserPrompt("", "b", 0, 0))
	var rl *ErrRateLimit
	assert.True(t, errors.As(err, &rl))

	_, err = m.Generate(context.Background(), UserPrompt("", "c", 0, 0))
	var pu *ErrProviderUnavailable
	assert.True(t, errors.As(err, &pu))

	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, "b", m.Calls[1].Messages[0].Content)
}

func TestMockProvider_CancelledContext(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: "never"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, UserPrompt("", "a", 0, 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstrumentedProvider_PassesThrough(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: "ok", Usage: Usage{InputTokens: 3, OutputTokens: 4}})
	p := WithInstrumentation(m, "mock")

	resp, err := p.Generate(WithPurpose(context.Background(), "test"), UserPrompt("", "a", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "mock", p.ModelID())

	_, err = p.Generate(context.Background(), UserPrompt("", "b", 0, 0))
	assert.Error(t, err)
}

func TestPurposeFrom(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	assert.Equal(t, "tip", PurposeFrom(WithPurpose(context.Background(), "tip")))
}

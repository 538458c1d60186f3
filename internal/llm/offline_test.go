package llm

import (
	"context"
	"encoding/json"
	"testing"

	"career_coach_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineProvider_QuestionSet(t *testing.T) {
	p := NewOfflineProvider()
	ctx := WithPurpose(context.Background(), "question_set")

	resp, err := p.Generate(ctx, UserPrompt("system", "Generate exactly 7 multiple-choice questions about \"Go\" for a candidate at Beginner level.\n", 0, 0))
	require.NoError(t, err)

	raw, err := ExtractJSONArray(resp.Content)
	require.NoError(t, err)

	var set []struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
		Answer   string   `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(raw, &set))
	require.Len(t, set, 7)
	for _, q := range set {
		assert.NotEmpty(t, q.Question)
		require.Len(t, q.Options, 4)
		seen := map[string]bool{}
		for _, o := range q.Options {
			assert.False(t, seen[o], "duplicate option %q", o)
			seen[o] = true
		}
		assert.Contains(t, q.Options, q.Answer)
	}

	// 相同输入得到相同输出
	again, err := p.Generate(ctx, UserPrompt("system", "Generate exactly 7 multiple-choice questions", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, resp.Content, again.Content)
}

func TestOfflineProvider_DefaultsToTip(t *testing.T) {
	p := NewOfflineProvider()

	resp, err := p.Generate(WithPurpose(context.Background(), "improvement_tip"), UserPrompt("", "score 40%", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, offlineTip, resp.Content)

	// 队列中的预置响应优先
	p.AddResponse(MockResponse{Content: "canned"})
	resp, err = p.Generate(context.Background(), UserPrompt("", "x", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "canned", resp.Content)
}

func TestNewProvider_MockAnswersOffline(t *testing.T) {
	p, err := NewProvider(context.Background(), config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)

	resp, err := p.Generate(WithPurpose(context.Background(), "question_set"), UserPrompt("", "Generate exactly 2 multiple-choice questions", 0, 0))
	require.NoError(t, err)
	raw, err := ExtractJSONArray(resp.Content)
	require.NoError(t, err)

	var set []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &set))
	assert.Len(t, set, 2)

	_, err = NewProvider(context.Background(), config.LLMConfig{Provider: "cohere"})
	assert.Error(t, err)
}

package service

import (
	"career_coach_backend/internal/llm"
	"career_coach_backend/internal/model"
	"career_coach_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const questionSetSystemPrompt = "You are an experienced technical interviewer who writes fair, unambiguous multiple-choice questions for job seekers. You reply with JSON only."

// Completer 文本补全接口，AIService 实现
type Completer interface {
	Complete(ctx context.Context, purpose, system, prompt string) (string, error)
}

type QuestionGenerator struct {
	AI Completer
}

func NewQuestionGenerator(ai Completer) *QuestionGenerator {
	return &QuestionGenerator{AI: ai}
}

// Generate 生成 count 道题，只做生成和校验，不落库。
// count 的取值范围由调用方约束。
func (g *QuestionGenerator) Generate(ctx context.Context, topic string, level model.Level, count int) ([]model.Question, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}
	if !level.Valid() {
		return nil, fmt.Errorf("invalid level %q", level)
	}
	if count < 1 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	text, err := g.AI.Complete(ctx, "question_set", questionSetSystemPrompt, BuildQuestionSetPrompt(topic, level, count))
	if err != nil {
		return nil, g.fail(err)
	}

	questions, err := ParseQuestionSet(text, count)
	if err != nil {
		return nil, g.fail(err)
	}
	return questions, nil
}

func (g *QuestionGenerator) fail(err error) error {
	monitoring.GenerationFailures.WithLabelValues(StageQuestionSet).Inc()
	return &GenerationFailure{Stage: StageQuestionSet, Err: err}
}

func BuildQuestionSetPrompt(topic string, level model.Level, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d multiple-choice questions about %q for a candidate at %s level.\n", count, topic, level)
	b.WriteString("Each question must have exactly 4 distinct options and exactly one correct answer.\n")
	b.WriteString("The \"answer\" value must be copied character for character from one of the options.\n")
	b.WriteString("Return only a JSON array in this format, without explanations:\n")
	b.WriteString(`[{"question": "string", "options": ["string", "string", "string", "string"], "answer": "string"}]`)
	return b.String()
}

// questionSetSchema 的 minItems/maxItems 随请求数量变化
func questionSetSchema(count int) *llm.Schema {
	return &llm.Schema{
		Name: fmt.Sprintf("question-set-%d", count),
		Definition: map[string]any{
			"type":     "array",
			"minItems": count,
			"maxItems": count,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"question", "options", "answer"},
				"properties": map[string]any{
					"question": map[string]any{"type": "string", "minLength": 1},
					"options": map[string]any{
						"type":        "array",
						"minItems":    4,
						"maxItems":    4,
						"uniqueItems": true,
						"items":       map[string]any{"type": "string", "minLength": 1},
					},
					"answer": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	}
}

// ParseQuestionSet 从模型输出中提取题目并校验。
// 任何一步失败都整体失败，不做部分恢复。
func ParseQuestionSet(text string, count int) ([]model.Question, error) {
	raw, err := llm.ExtractJSONArray(text)
	if err != nil {
		return nil, err
	}

	if err := llm.ValidateJSON(questionSetSchema(count), raw); err != nil {
		return nil, err
	}

	var questions []model.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: text, Err: err}
	}

	for i := range questions {
		q := &questions[i]
		if !containsExact(q.Options, q.Answer) {
			return nil, &llm.ErrInvalidResponse{
				Content: text,
				Err:     fmt.Errorf("question %d: answer %q is not one of its options", i, q.Answer),
			}
		}
		// 模型输出中即使带了作答字段也不采信
		q.UserAnswer = ""
		q.IsCorrect = false
	}

	return questions, nil
}

func containsExact(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}

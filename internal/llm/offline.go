package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

const offlineTip = "Review the questions you missed, then practise one small exercise on each concept before retaking the assessment."

var questionCountPattern = regexp.MustCompile(`Generate exactly (\d+) `)

// NewOfflineProvider returns a MockProvider that answers every request
// with deterministic content, so the service can run without a vendor key.
// Question sets always use the first option as the correct answer.
func NewOfflineProvider() *MockProvider {
	m := NewMockProvider()
	m.Fallback = offlineReply
	return m
}

func offlineReply(ctx context.Context, req Request) (string, error) {
	switch PurposeFrom(ctx) {
	case "question_set":
		return offlineQuestionSet(lastUserMessage(req))
	default:
		return offlineTip, nil
	}
}

func offlineQuestionSet(prompt string) (string, error) {
	count := 5
	if m := questionCountPattern.FindStringSubmatch(prompt); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return "", &ErrInvalidResponse{Content: prompt, Err: fmt.Errorf("bad question count %q", m[1])}
		}
		count = n
	}

	type question struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
		Answer   string   `json:"answer"`
	}
	set := make([]question, count)
	for i := range set {
		options := []string{
			fmt.Sprintf("Option A%d", i+1),
			fmt.Sprintf("Option B%d", i+1),
			fmt.Sprintf("Option C%d", i+1),
			fmt.Sprintf("Option D%d", i+1),
		}
		set[i] = question{
			Question: fmt.Sprintf("Offline practice question %d", i+1),
			Options:  options,
			Answer:   options[0],
		}
	}

	body, err := json.Marshal(set)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func lastUserMessage(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

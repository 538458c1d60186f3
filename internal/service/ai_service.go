package service

import (
	"career_coach_backend/internal/config"
	"career_coach_backend/internal/llm"
	"context"
	"time"
)

// AIService 对大模型的同步调用封装：单次请求，超时控制，不重试
type AIService struct {
	Provider    llm.Provider
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func NewAIService(provider llm.Provider, cfg config.LLMConfig) *AIService {
	return &AIService{
		Provider:    provider,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
}

// Complete 发送 prompt 并返回去除首尾空白后的文本，空响应视为失败
func (s *AIService) Complete(ctx context.Context, purpose, system, prompt string) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	ctx = llm.WithPurpose(ctx, purpose)
	resp, err := s.Provider.Generate(ctx, llm.UserPrompt(system, prompt, s.MaxTokens, s.Temperature))
	if err != nil {
		return "", err
	}
	return resp.Text()
}

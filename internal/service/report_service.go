package service

import (
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/util"
	"context"
	"fmt"
	"strings"
	"time"
)

// ReportItem 单题回顾
type ReportItem struct {
	Index         int      `json:"index"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	UserAnswer    string   `json:"userAnswer"`
	CorrectAnswer string   `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
}

// Report 测评反馈报告
// swagger:model Report
type Report struct {
	AssessmentID   string       `json:"assessmentId"`
	Topic          string       `json:"topic"`
	Level          model.Level  `json:"level"`
	Score          float64      `json:"score"`
	CorrectCount   int          `json:"correctCount"`
	TotalCount     int          `json:"totalCount"`
	ImprovementTip string       `json:"improvementTip"`
	Items          []ReportItem `json:"items"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
}

type ReportService struct {
	Storage *StorageService
}

func NewReportService(storage *StorageService) *ReportService {
	return &ReportService{Storage: storage}
}

// Build 只对已完成的测评生成报告
func (s *ReportService) Build(a *model.Assessment) (*Report, error) {
	if !a.IsCompleted() {
		return nil, util.ErrAssessmentNotCompleted
	}

	r := &Report{
		AssessmentID: a.ID,
		Topic:        a.Topic,
		Level:        a.Level,
		TotalCount:   len(a.Questions),
		CompletedAt:  a.CompletedAt,
		Items:        make([]ReportItem, 0, len(a.Questions)),
	}
	if a.QuizScore != nil {
		r.Score = *a.QuizScore
	}
	if a.ImprovementTip != nil {
		r.ImprovementTip = *a.ImprovementTip
	}

	for i, q := range a.Questions {
		if q.IsCorrect {
			r.CorrectCount++
		}
		r.Items = append(r.Items, ReportItem{
			Index:         i,
			Question:      q.Question,
			Options:       q.Options,
			UserAnswer:    q.UserAnswer,
			CorrectAnswer: q.Answer,
			IsCorrect:     q.IsCorrect,
		})
	}
	return r, nil
}

// Markdown 渲染报告
func (s *ReportService) Markdown(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s assessment: %s\n\n", r.Level, r.Topic)
	fmt.Fprintf(&b, "**Score:** %.1f%% (%d/%d correct)\n\n", r.Score, r.CorrectCount, r.TotalCount)
	if r.CompletedAt != nil {
		fmt.Fprintf(&b, "**Completed:** %s\n\n", r.CompletedAt.Format(util.TimeFormat))
	}

	b.WriteString("## Improvement tip\n\n")
	b.WriteString(r.ImprovementTip)
	b.WriteString("\n\n## Questions\n")

	for _, item := range r.Items {
		mark := "✗"
		if item.IsCorrect {
			mark = "✓"
		}
		fmt.Fprintf(&b, "\n### %d. %s %s\n\n", item.Index+1, item.Question, mark)
		for _, opt := range item.Options {
			fmt.Fprintf(&b, "- %s\n", opt)
		}
		answer := item.UserAnswer
		if answer == "" {
			answer = "_(no answer)_"
		}
		fmt.Fprintf(&b, "\nYour answer: %s\n", answer)
		if !item.IsCorrect {
			fmt.Fprintf(&b, "Correct answer: %s\n", item.CorrectAnswer)
		}
	}
	return b.String()
}

// Export 上传 markdown 报告，返回访问地址
func (s *ReportService) Export(ctx context.Context, a *model.Assessment) (string, error) {
	report, err := s.Build(a)
	if err != nil {
		return "", err
	}
	body := s.Markdown(report)
	return s.Storage.Upload(ctx, reportKey(a), strings.NewReader(body), int64(len(body)), util.MimeMarkdown)
}

// Remove 删除已导出的报告，未导出过时不报错
func (s *ReportService) Remove(ctx context.Context, a *model.Assessment) error {
	return s.Storage.Delete(ctx, reportKey(a))
}

func reportKey(a *model.Assessment) string {
	return fmt.Sprintf("reports/%d/%s.md", a.UserID, a.ID)
}

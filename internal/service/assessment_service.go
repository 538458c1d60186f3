package service

import (
	"career_coach_backend/internal/events"
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/repository"
	"career_coach_backend/internal/util"
	"career_coach_backend/pkg/logger"
	"career_coach_backend/pkg/monitoring"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type AssessmentService struct {
	Repo      *repository.AssessmentRepository
	Generator *QuestionGenerator
	Publisher events.Publisher
}

func NewAssessmentService(repo *repository.AssessmentRepository, generator *QuestionGenerator, publisher events.Publisher) *AssessmentService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &AssessmentService{Repo: repo, Generator: generator, Publisher: publisher}
}

// CreateAssessmentRequest 生成测评参数
// swagger:model CreateAssessmentRequest
type CreateAssessmentRequest struct {
	Topic string      `json:"topic" binding:"required,max=255"`
	Level model.Level `json:"level" binding:"required"`
	Count int         `json:"count"`
}

func (r *CreateAssessmentRequest) Normalize() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return fmt.Errorf("%w: topic is required", util.ErrInvalidArgument)
	}
	if !r.Level.Valid() {
		return fmt.Errorf("%w: level must be one of Beginner, Intermediate, Advanced", util.ErrInvalidArgument)
	}
	if r.Count == 0 {
		r.Count = util.DefaultQuestionCount
	}
	if r.Count < util.MinQuestionCount || r.Count > util.MaxQuestionCount {
		return fmt.Errorf("%w: count must be between %d and %d", util.ErrInvalidArgument, util.MinQuestionCount, util.MaxQuestionCount)
	}
	return nil
}

// Create 先生成题目，成功后才落库
func (s *AssessmentService) Create(ctx context.Context, userID uint, req CreateAssessmentRequest) (*model.Assessment, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	questions, err := s.Generator.Generate(ctx, req.Topic, req.Level, req.Count)
	if err != nil {
		logger.Log.Warn("Question generation failed",
			zap.Uint("userId", userID),
			zap.String("topic", req.Topic),
			zap.String("level", string(req.Level)),
			zap.Error(err),
		)
		return nil, err
	}

	assessment := &model.Assessment{
		UserID:    userID,
		Topic:     req.Topic,
		Level:     req.Level,
		Questions: questions,
	}
	if err := s.Repo.Create(ctx, assessment); err != nil {
		return nil, err
	}

	monitoring.AssessmentsCreated.WithLabelValues(string(req.Level)).Inc()
	events.Emit(ctx, s.Publisher, events.AssessmentCreated, map[string]any{
		"assessmentId": assessment.ID,
		"userId":       userID,
		"topic":        assessment.Topic,
		"level":        assessment.Level,
		"count":        len(questions),
	})
	return assessment, nil
}

func (s *AssessmentService) Get(ctx context.Context, id string) (*model.Assessment, error) {
	return s.Repo.FindByID(ctx, id)
}

// GetOwned 只返回属于 userID 的测评，否则按不存在处理
func (s *AssessmentService) GetOwned(ctx context.Context, userID uint, id string) (*model.Assessment, error) {
	a, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, util.ErrAssessmentNotFound
	}
	return a, nil
}

func (s *AssessmentService) ListByUser(ctx context.Context, userID uint) ([]model.Assessment, error) {
	return s.Repo.ListByUser(ctx, userID)
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageParams 规范分页参数：page 最小为 1，limit 限制在 1..MaxPageLimit
func PageParams(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func (s *AssessmentService) ListByUserPage(ctx context.Context, userID uint, page, limit int) ([]model.Assessment, int64, error) {
	page, limit = PageParams(page, limit)
	return s.Repo.ListByUserPage(ctx, userID, page, limit)
}

// Delete 不检查归属，调用方负责
func (s *AssessmentService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.Publisher, events.AssessmentDeleted, map[string]any{"assessmentId": id})
	return nil
}

// RefreshStatusMetrics 刷新按状态统计的 gauge，由定时任务调用
func (s *AssessmentService) RefreshStatusMetrics(ctx context.Context) error {
	counts, err := s.Repo.CountByStatus(ctx)
	if err != nil {
		return err
	}
	monitoring.AssessmentsByStatus.Reset()
	for _, c := range counts {
		monitoring.AssessmentsByStatus.WithLabelValues(string(c.Status)).Set(float64(c.Count))
	}
	return nil
}

package service

import (
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/repository"
	"career_coach_backend/pkg/logger"
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo       *repository.UserRepository
	AssessmentRepo *repository.AssessmentRepository
}

func NewUserService(userRepo *repository.UserRepository, assessmentRepo *repository.AssessmentRepository) *UserService {
	return &UserService{
		UserRepo:       userRepo,
		AssessmentRepo: assessmentRepo,
	}
}

// ProfileStats 测评统计
type ProfileStats struct {
	TotalAssessments     int     `json:"totalAssessments"`
	CompletedAssessments int     `json:"completedAssessments"`
	AverageScore         float64 `json:"averageScore"`
	BestScore            float64 `json:"bestScore"`
}

// Profile 用户资料
// swagger:model Profile
type Profile struct {
	User  *model.User  `json:"user"`
	Stats ProfileStats `json:"stats"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	list, err := s.AssessmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user, Stats: summarize(list)}, nil
}

func summarize(list []model.Assessment) ProfileStats {
	stats := ProfileStats{TotalAssessments: len(list)}
	var sum float64
	for _, a := range list {
		if !a.IsCompleted() || a.QuizScore == nil {
			continue
		}
		stats.CompletedAssessments++
		sum += *a.QuizScore
		if *a.QuizScore > stats.BestScore {
			stats.BestScore = *a.QuizScore
		}
	}
	if stats.CompletedAssessments > 0 {
		stats.AverageScore = sum / float64(stats.CompletedAssessments)
	}
	return stats
}

// DeleteAccount 删除用户及其全部测评，在同一个事务中完成
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.UserRepo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.AssessmentRepo.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		return s.UserRepo.Delete(ctx, tx, userID)
	})
	if err != nil {
		return err
	}
	logger.Log.Info("Account deleted", zap.Uint("userId", userID))
	return nil
}

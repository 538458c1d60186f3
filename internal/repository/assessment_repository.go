package repository

import (
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/util"
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

// Create 新建测评，状态固定为 in_progress
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	a.Status = model.StatusInProgress
	a.QuizScore = nil
	a.ImprovementTip = nil
	a.CompletedAt = nil
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAssessmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser 按创建时间倒序返回用户的全部测评
func (r *AssessmentRepository) ListByUser(ctx context.Context, userID uint) ([]model.Assessment, error) {
	var list []model.Assessment
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&list).Error
	return list, err
}

func (r *AssessmentRepository) ListByUserPage(ctx context.Context, userID uint, page, limit int) ([]model.Assessment, int64, error) {
	var list []model.Assessment
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Assessment{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// Delete 物理删除，不校验归属
func (r *AssessmentRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&model.Assessment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrAssessmentNotFound
	}
	return nil
}

// DeleteByUser 删除用户的所有测评，tx 由调用方提供
func (r *AssessmentRepository) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Assessment{}).Error
}

// Update 把评分结果一次性写回。
// 只有 in_progress 状态的记录会被更新，已完成的测评保持不变。
func (r *AssessmentRepository) Update(ctx context.Context, id string, patch model.AssessmentPatch) (*model.Assessment, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.Assessment{}).
		Where("id = ? AND status = ?", id, model.StatusInProgress).
		Updates(map[string]interface{}{
			"questions":       datatypes.JSONSlice[model.Question](patch.Questions),
			"quiz_score":      patch.QuizScore,
			"improvement_tip": patch.ImprovementTip,
			"status":          model.StatusCompleted,
			"completed_at":    patch.CompletedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.IsCompleted() {
			return nil, util.ErrAssessmentCompleted
		}
		return nil, errors.New("assessment update affected no rows")
	}

	return r.FindByID(ctx, id)
}

func (r *AssessmentRepository) CountByStatus(ctx context.Context) ([]model.AssessmentStatusCount, error) {
	var rows []model.AssessmentStatusCount
	err := r.DB.WithContext(ctx).
		Model(&model.Assessment{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

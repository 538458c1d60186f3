package service

import (
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/util"
	"fmt"
)

const (
	StageQuestionSet    = "question_set"
	StageImprovementTip = "improvement_tip"
)

// GenerationFailure 大模型生成失败（空响应、无法解析、校验不通过或调用出错）。
// 不重试，也不会写入任何数据。
type GenerationFailure struct {
	Stage string
	Err   error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationFailure) Unwrap() []error {
	return []error{util.ErrGenerationFailed, e.Err}
}

// ErrAlreadyScored 附带完成时间，便于日志排查
func ErrAlreadyScored(a *model.Assessment) error {
	if a.CompletedAt == nil {
		return util.ErrAssessmentCompleted
	}
	return fmt.Errorf("%w at %s", util.ErrAssessmentCompleted, a.CompletedAt.Format(util.TimeFormat))
}

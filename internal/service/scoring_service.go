package service

import (
	"career_coach_backend/internal/events"
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/repository"
	"career_coach_backend/pkg/logger"
	"career_coach_backend/pkg/monitoring"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const improvementTipSystemPrompt = "You are a supportive career coach. You give concrete, encouraging study advice in plain prose."

// ScoreResult 评分结果，提交后立即展示
type ScoreResult struct {
	AssessmentID   string           `json:"assessmentId"`
	Score          float64          `json:"score"`
	CorrectCount   int              `json:"correctCount"`
	TotalCount     int              `json:"totalCount"`
	ImprovementTip string           `json:"improvementTip"`
	Questions      []model.Question `json:"questions"`
}

type ScoringService struct {
	AssessmentRepo *repository.AssessmentRepository
	AI             Completer
	Guard          SubmissionGuard
	Publisher      events.Publisher
	Now            func() time.Time
}

func NewScoringService(repo *repository.AssessmentRepository, ai Completer, guard SubmissionGuard, publisher events.Publisher) *ScoringService {
	if guard == nil {
		guard = NewLocalSubmissionGuard()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ScoringService{
		AssessmentRepo: repo,
		AI:             ai,
		Guard:          guard,
		Publisher:      publisher,
		Now:            time.Now,
	}
}

// Score 评分并一次性写回。已完成的测评返回 util.ErrAssessmentCompleted；
// 改进建议生成失败时不写入任何数据。
func (s *ScoringService) Score(ctx context.Context, assessmentID string, answers map[int]string) (*ScoreResult, error) {
	release, err := s.Guard.Acquire(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	assessment, err := s.AssessmentRepo.FindByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if assessment.IsCompleted() {
		return nil, ErrAlreadyScored(assessment)
	}

	graded, correct := GradeQuestions(assessment.Questions, answers)
	total := len(graded)
	score := ScorePercent(correct, total)

	tip, err := s.AI.Complete(ctx, "improvement_tip", improvementTipSystemPrompt,
		BuildImprovementTipPrompt(assessment.Topic, assessment.Level, score, correct, total))
	if err != nil {
		monitoring.GenerationFailures.WithLabelValues(StageImprovementTip).Inc()
		return nil, &GenerationFailure{Stage: StageImprovementTip, Err: err}
	}

	updated, err := s.AssessmentRepo.Update(ctx, assessmentID, model.AssessmentPatch{
		Questions:      graded,
		QuizScore:      score,
		ImprovementTip: tip,
		CompletedAt:    s.Now(),
	})
	if err != nil {
		return nil, err
	}

	monitoring.AssessmentScores.Observe(score)
	logger.Log.Info("Assessment scored",
		zap.String("assessmentId", assessmentID),
		zap.Uint("userId", assessment.UserID),
		zap.Float64("score", score),
		zap.Int("correct", correct),
		zap.Int("total", total),
	)

	result := &ScoreResult{
		AssessmentID:   assessmentID,
		Score:          score,
		CorrectCount:   correct,
		TotalCount:     total,
		ImprovementTip: tip,
		Questions:      updated.Questions,
	}
	events.Emit(ctx, s.Publisher, events.AssessmentCompleted, map[string]any{
		"assessmentId": assessmentID,
		"userId":       assessment.UserID,
		"topic":        assessment.Topic,
		"level":        assessment.Level,
		"score":        score,
		"correctCount": correct,
		"totalCount":   total,
	})
	return result, nil
}

// GradeQuestions 逐题判分，答案严格按字符串相等比较（不去空白、不忽略大小写）。
// 未作答的题目记为空字符串。不修改传入的切片。
func GradeQuestions(questions []model.Question, answers map[int]string) ([]model.Question, int) {
	graded := make([]model.Question, len(questions))
	correct := 0
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		q.UserAnswer = answers[i]
		q.IsCorrect = q.UserAnswer == q.Answer
		if q.IsCorrect {
			correct++
		}
		graded[i] = q
	}
	return graded, correct
}

func ScorePercent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

func BuildImprovementTipPrompt(topic string, level model.Level, score float64, correct, total int) string {
	return fmt.Sprintf(
		"A job seeker just finished a %s level multiple-choice assessment on %q. "+
			"They scored %.1f%% (%d of %d correct). "+
			"Write a short improvement tip of 2 to 3 sentences: name what to study next and one practical way to practise it. "+
			"Reply with the tip only, no headings or lists.",
		level, topic, score, correct, total,
	)
}

package cmd

import (
	"career_coach_backend/internal/app"
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/quizui"
	"career_coach_backend/internal/service"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take an assessment in the terminal",
	Long:  "Generates a new assessment for an existing account and runs it interactively. The result is stored like any HTTP submission.",
	RunE:  runQuiz,
}

func init() {
	quizCmd.Flags().String("email", "", "Account email")
	quizCmd.Flags().String("topic", "", "Assessment topic")
	quizCmd.Flags().String("level", string(model.LevelBeginner), "Beginner, Intermediate or Advanced")
	quizCmd.Flags().Int("count", 10, "Number of questions (5-20)")
	quizCmd.MarkFlagRequired("email")
	quizCmd.MarkFlagRequired("topic")
}

func runQuiz(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// 终端界面占用 stdout，只保留错误日志
	cfg.Log.Level = "error"

	ctx := cmd.Context()
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	email, _ := cmd.Flags().GetString("email")
	user, err := application.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("find user %s: %w", email, err)
	}

	topic, _ := cmd.Flags().GetString("topic")
	level, _ := cmd.Flags().GetString("level")
	count, _ := cmd.Flags().GetInt("count")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generating %d %s questions about %s...\n", count, level, topic)

	a, err := application.Assessments().Create(ctx, user.ID, service.CreateAssessmentRequest{
		Topic: topic,
		Level: model.Level(level),
		Count: count,
	})
	if err != nil {
		return err
	}

	result, err := quizui.Run(ctx, a, func(ctx context.Context, answers map[int]string) (*service.ScoreResult, error) {
		return application.Scoring().Score(ctx, a.ID, answers)
	})
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintf(out, "Assessment %s left in progress.\n", a.ID)
		return nil
	}

	fmt.Fprintf(out, "Assessment %s scored %.1f%% (%d/%d).\n", a.ID, result.Score, result.CorrectCount, result.TotalCount)
	return nil
}

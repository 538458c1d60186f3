package quizui

import (
	"context"
	"errors"
	"testing"

	"career_coach_backend/internal/model"
	"career_coach_backend/internal/service"
	"career_coach_backend/internal/session"
	"career_coach_backend/internal/testutil"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

type stubScorer struct {
	calls   int
	answers map[int]string
	err     error
}

func (s *stubScorer) submit(ctx context.Context, answers map[int]string) (*service.ScoreResult, error) {
	s.calls++
	s.answers = answers
	if s.err != nil {
		return nil, s.err
	}
	graded, correct := service.GradeQuestions(testutil.SampleQuestions(3), answers)
	return &service.ScoreResult{
		Score:          service.ScorePercent(correct, 3),
		CorrectCount:   correct,
		TotalCount:     3,
		ImprovementTip: "Keep going.",
		Questions:      graded,
	}, nil
}

func newModel(t *testing.T, scorer *stubScorer) Model {
	t.Helper()
	a := &model.Assessment{ID: "a1", Topic: "Arrays", Level: model.LevelBeginner, Status: model.StatusInProgress, Questions: testutil.SampleQuestions(3)}
	runner, err := session.NewRunner(a)
	require.NoError(t, err)
	return New(context.Background(), a, runner, scorer.submit)
}

// send 处理消息并同步执行返回的命令
func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd != nil {
			if out := cmd(); out != nil {
				if _, ok := out.(scoredMsg); ok {
					next, _ = m.Update(out)
					m = next.(Model)
				}
			}
		}
	}
	return m
}

func TestModel_AnswerAndSubmit(t *testing.T) {
	scorer := &stubScorer{}
	m := newModel(t, scorer)

	m = send(t, m,
		specialKey(tea.KeyEnter),
		specialKey(tea.KeyRight),
		specialKey(tea.KeyDown),
		specialKey(tea.KeyEnter),
		keyPress('n'),
		keyPress('1'),
		keyPress('s'),
	)

	require.NotNil(t, m.Result())
	assert.Equal(t, 1, scorer.calls)
	assert.Equal(t, map[int]string{0: "A0", 1: "B1", 2: "A2"}, scorer.answers)
	assert.Equal(t, 2, m.Result().CorrectCount)
	assert.Equal(t, session.Finished, m.runner.State())
	assert.Contains(t, m.render(), "Score: 66.7%")
}

func TestModel_SubmitWithUnansweredNeedsConfirmation(t *testing.T) {
	scorer := &stubScorer{}
	m := newModel(t, scorer)

	m = send(t, m, keyPress('l'), keyPress('l'), keyPress('s'))
	assert.True(t, m.confirming)
	assert.Zero(t, scorer.calls)
	assert.Contains(t, m.render(), "3 question(s) unanswered")

	m = send(t, m, keyPress('n'))
	assert.False(t, m.confirming)
	assert.Equal(t, session.Presenting, m.runner.State())

	m = send(t, m, keyPress('s'), keyPress('y'))
	require.NotNil(t, m.Result())
	assert.Equal(t, map[int]string{}, scorer.answers)
	assert.Zero(t, m.Result().Score)
}

func TestModel_SubmitOnlyFromLastQuestion(t *testing.T) {
	scorer := &stubScorer{}
	m := newModel(t, scorer)

	m = send(t, m, keyPress('s'))
	assert.ErrorIs(t, m.err, session.ErrNotLastQuestion)
	assert.Zero(t, scorer.calls)
}

func TestModel_ScoringFailureAllowsRetry(t *testing.T) {
	scorer := &stubScorer{err: errors.New("model unavailable")}
	m := newModel(t, scorer)

	m = send(t, m, keyPress('l'), keyPress('l'), keyPress('1'), keyPress('s'), keyPress('y'))
	assert.Nil(t, m.Result())
	assert.EqualError(t, m.err, "model unavailable")
	assert.Equal(t, session.Presenting, m.runner.State())

	scorer.err = nil
	m = send(t, m, keyPress('s'), keyPress('y'))
	require.NotNil(t, m.Result())
	assert.Equal(t, 2, scorer.calls)
}

func TestModel_NavigationRestoresCursor(t *testing.T) {
	m := newModel(t, &stubScorer{})

	m = send(t, m, keyPress('3'), keyPress('l'))
	assert.Equal(t, 0, m.cursor)

	m = send(t, m, keyPress('h'))
	assert.Equal(t, 2, m.cursor)
	assert.Contains(t, m.render(), "C0 ✓")
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t, &stubScorer{})

	next, cmd := m.Update(keyPress('q'))
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)
	view := next.(Model).render()
	assert.Contains(t, view, "Assessment a1 is left in progress")
	assert.NotContains(t, view, "resume")
}

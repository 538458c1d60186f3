// Package quizui 终端作答界面，基于 session.Runner
package quizui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"career_coach_backend/internal/model"
	"career_coach_backend/internal/service"
	"career_coach_backend/internal/session"

	tea "charm.land/bubbletea/v2"
)

// SubmitFunc 把答案交给评分服务
type SubmitFunc func(ctx context.Context, answers map[int]string) (*service.ScoreResult, error)

type scoredMsg struct {
	result *service.ScoreResult
	err    error
}

type Model struct {
	ctx    context.Context
	id     string
	topic  string
	level  model.Level
	runner *session.Runner
	submit SubmitFunc

	cursor     int
	confirming bool
	scoring    bool
	result     *service.ScoreResult
	err        error
	quitting   bool
}

func New(ctx context.Context, a *model.Assessment, runner *session.Runner, submit SubmitFunc) Model {
	return Model{
		ctx:    ctx,
		id:     a.ID,
		topic:  a.Topic,
		level:  a.Level,
		runner: runner,
		submit: submit,
	}
}

// Result 评分完成后非空
func (m Model) Result() *service.ScoreResult { return m.result }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scoredMsg:
		m.scoring = false
		if msg.err != nil {
			m.err = msg.err
			_ = m.runner.Abort()
			return m, nil
		}
		_ = m.runner.Finish()
		m.result = msg.result
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.result != nil {
		if key == "q" || key == "enter" || key == "esc" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}
	if m.scoring {
		return m, nil
	}

	if m.confirming {
		switch key {
		case "y":
			m.confirming = false
			return m.startSubmit(true)
		case "n", "esc":
			m.confirming = false
		}
		return m, nil
	}

	m.err = nil
	opts := m.runner.Current().Options

	switch key {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(opts)-1 {
			m.cursor++
		}
	case "enter", "space":
		_ = m.runner.SelectIndex(m.cursor)
	case "1", "2", "3", "4":
		i := int(key[0] - '1')
		if i < len(opts) {
			m.cursor = i
			_ = m.runner.SelectIndex(i)
		}
	case "right", "l", "n":
		if m.runner.Next() {
			m.syncCursor()
		}
	case "left", "h", "p":
		if m.runner.Previous() {
			m.syncCursor()
		}
	case "s":
		return m.startSubmit(false)
	}
	return m, nil
}

func (m Model) startSubmit(confirmed bool) (tea.Model, tea.Cmd) {
	answers, err := m.runner.Submit(confirmed)
	switch {
	case errors.Is(err, session.ErrUnconfirmedSubmit):
		m.confirming = true
		return m, nil
	case err != nil:
		m.err = err
		return m, nil
	}

	m.scoring = true
	ctx, submit := m.ctx, m.submit
	return m, func() tea.Msg {
		result, err := submit(ctx, answers)
		return scoredMsg{result: result, err: err}
	}
}

// syncCursor 光标移到已选答案上
func (m *Model) syncCursor() {
	m.cursor = 0
	answer, ok := m.runner.Answer()
	if !ok {
		return
	}
	for i, o := range m.runner.Current().Options {
		if o == answer {
			m.cursor = i
			return
		}
	}
}

func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m Model) render() string {
	if m.quitting && m.result == nil {
		return fmt.Sprintf("Quiz aborted. Assessment %s is left in progress and was not scored.\n", m.id)
	}
	if m.result != nil {
		return m.resultView()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("%s · %s", m.topic, m.level)))
	fmt.Fprintf(&b, "%s\n\n", hintStyle.Render(fmt.Sprintf(
		"Question %d of %d · answered %d · %s",
		m.runner.Index()+1, m.runner.Total(), m.runner.AnsweredCount(), m.runner.Elapsed().Truncate(time.Second),
	)))

	q := m.runner.Current()
	b.WriteString(questionStyle.Render(q.Question))
	b.WriteString("\n\n")

	answer, _ := m.runner.Answer()
	for i, opt := range q.Options {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("› ")
		}
		line := fmt.Sprintf("%d. %s", i+1, opt)
		if opt == answer {
			line = chosenStyle.Render(line + " ✓")
		}
		b.WriteString(prefix + line + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.scoring:
		b.WriteString(hintStyle.Render("Scoring your answers..."))
	case m.confirming:
		b.WriteString(warnStyle.Render(fmt.Sprintf(
			"%d question(s) unanswered and will be scored as wrong. Submit anyway? (y/n)",
			len(m.runner.Unanswered()),
		)))
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	default:
		hint := "↑/↓ move · enter select · ←/→ navigate · q quit"
		if m.runner.IsLast() {
			hint += " · s submit"
		}
		b.WriteString(hintStyle.Render(hint))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) resultView() string {
	r := m.result
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(fmt.Sprintf("Score: %.1f%%  (%d/%d)", r.Score, r.CorrectCount, r.TotalCount)))

	for i, q := range r.Questions {
		mark := wrongStyle.Render("✗")
		if q.IsCorrect {
			mark = correctStyle.Render("✓")
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, i+1, q.Question)
		if !q.IsCorrect {
			given := q.UserAnswer
			if given == "" {
				given = "(no answer)"
			}
			fmt.Fprintf(&b, "     yours: %s · correct: %s\n", given, q.Answer)
		}
	}

	b.WriteString("\n")
	b.WriteString(boxStyle.Render(r.ImprovementTip))
	fmt.Fprintf(&b, "\n\n%s\n", hintStyle.Render(fmt.Sprintf("Finished in %s · press q to exit", m.runner.Elapsed().Truncate(time.Second))))
	return b.String()
}

// Run 启动交互式作答，返回评分结果；中途退出时结果为 nil
func Run(ctx context.Context, a *model.Assessment, submit SubmitFunc) (*service.ScoreResult, error) {
	runner, err := session.NewRunner(a)
	if err != nil {
		return nil, err
	}

	p := tea.NewProgram(New(ctx, a, runner, submit), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Result(), nil
}

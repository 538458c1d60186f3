// Package session 作答过程的状态机：逐题导航、选择答案、提交。
// 中间答案只保存在内存中，放弃作答时测评保持 in_progress。
package session

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"career_coach_backend/internal/model"
)

var (
	ErrUnconfirmedSubmit = errors.New("some questions are unanswered, confirmation required")
	ErrAlreadySubmitted  = errors.New("assessment already submitted")
	ErrNotLastQuestion   = errors.New("submission is only allowed from the last question")
	ErrUnknownOption     = errors.New("option does not belong to the current question")
	ErrNotSubmitting     = errors.New("no submission in progress")
	ErrNoQuestions       = errors.New("assessment has no questions")
)

type State int

const (
	Presenting State = iota
	Submitting
	Finished
)

func (s State) String() string {
	switch s {
	case Presenting:
		return "presenting"
	case Submitting:
		return "submitting"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Runner 不是并发安全的，由 UI 层独占
type Runner struct {
	AssessmentID string
	Questions    []model.Question

	state   State
	current int
	answers map[int]string

	now       func() time.Time
	startedAt time.Time
	endedAt   time.Time
}

type Option func(*Runner)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(a *model.Assessment, opts ...Option) (*Runner, error) {
	if len(a.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if a.IsCompleted() {
		return nil, ErrAlreadySubmitted
	}

	r := &Runner{
		AssessmentID: a.ID,
		Questions:    a.Questions,
		answers:      make(map[int]string),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.startedAt = r.now()
	return r, nil
}

func (r *Runner) State() State { return r.state }
func (r *Runner) Index() int { return r.current }
func (r *Runner) Total() int { return len(r.Questions) }
func (r *Runner) IsFirst() bool { return r.current == 0 }
func (r *Runner) IsLast() bool { return r.current == len(r.Questions)-1 }
func (r *Runner) AnsweredCount() int { return len(r.answers) }

func (r *Runner) Current() model.Question {
	return r.Questions[r.current]
}

// Answer 返回当前题目的已选答案
func (r *Runner) Answer() (string, bool) {
	a, ok := r.answers[r.current]
	return a, ok
}

// Next 在最后一题时不做任何事
func (r *Runner) Next() bool {
	if r.state != Presenting || r.IsLast() {
		return false
	}
	r.current++
	return true
}

// Previous 在第一题时不做任何事
func (r *Runner) Previous() bool {
	if r.state != Presenting || r.IsFirst() {
		return false
	}
	r.current--
	return true
}

// Select 为当前题目选择答案，重复选择会覆盖
func (r *Runner) Select(option string) error {
	if r.state != Presenting {
		return ErrAlreadySubmitted
	}
	for _, o := range r.Current().Options {
		if o == option {
			r.answers[r.current] = option
			return nil
		}
	}
	return ErrUnknownOption
}

// SelectIndex 按选项下标选择
func (r *Runner) SelectIndex(i int) error {
	opts := r.Current().Options
	if i < 0 || i >= len(opts) {
		return ErrUnknownOption
	}
	return r.Select(opts[i])
}

// Unanswered 未作答的题目下标，升序
func (r *Runner) Unanswered() []int {
	var missing []int
	for i := range r.Questions {
		if _, ok := r.answers[i]; !ok {
			missing = append(missing, i)
		}
	}
	sort.Ints(missing)
	return missing
}

// Submit 进入提交状态并返回答案快照。
// 有未作答题目时需要 confirmed=true，未作答的按空字符串评分。
func (r *Runner) Submit(confirmed bool) (map[int]string, error) {
	if r.state != Presenting {
		return nil, ErrAlreadySubmitted
	}
	if !r.IsLast() {
		return nil, ErrNotLastQuestion
	}
	if len(r.Unanswered()) > 0 && !confirmed {
		return nil, ErrUnconfirmedSubmit
	}

	r.state = Submitting
	snapshot := make(map[int]string, len(r.answers))
	for k, v := range r.answers {
		snapshot[k] = v
	}
	return snapshot, nil
}

// Finish 评分成功后调用，进入终态
func (r *Runner) Finish() error {
	if r.state != Submitting {
		return ErrNotSubmitting
	}
	r.state = Finished
	r.endedAt = r.now()
	return nil
}

// Abort 评分失败后回到最后一题，答案保留，用户可以重新提交
func (r *Runner) Abort() error {
	if r.state != Submitting {
		return ErrNotSubmitting
	}
	r.state = Presenting
	return nil
}

// Elapsed 作答用时，结束后固定不变
func (r *Runner) Elapsed() time.Duration {
	if r.state == Finished {
		return r.endedAt.Sub(r.startedAt)
	}
	return r.now().Sub(r.startedAt)
}

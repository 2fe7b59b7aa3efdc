package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/examprep/internal/model"
)

// ErrAnswerCount is returned when the number of answers does not match the
// number of questions.
var ErrAnswerCount = errors.New("answer count does not match question count")

// Service ties generation, grading and history recording together.
type Service struct {
	*Generator
	*Grader

	history  HistoryAppender
	observer Observer
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithQuestionCount sets how many questions each passage carries.
func WithQuestionCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.Generator.questionCount = n
		}
	}
}

// WithObserver reports completed tests to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the time source used for history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides the history entry ID generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates a Service.
func New(gw Caller, usage UsageRecorder, history HistoryAppender, opts ...Option) *Service {
	s := &Service{
		Generator: NewGenerator(gw, usage, DefaultQuestionCount),
		Grader:    NewGrader(gw, usage),
		history:   history,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit grades every answer concurrently and waits for all of them. Only
// when every grading call succeeds is the result appended to the history;
// otherwise a single *GradingError is returned and nothing is recorded.
func (s *Service) Submit(ctx context.Context, p *model.Passage, answers []string, opts Options) (*model.TestResult, error) {
	if len(answers) != len(p.Questions) {
		return nil, &GradingError{
			Failed: len(p.Questions),
			Total:  len(p.Questions),
			Err:    fmt.Errorf("%w: %d answers for %d questions", ErrAnswerCount, len(answers), len(p.Questions)),
		}
	}

	grades := make([]*model.GradeResult, len(p.Questions))
	errs := make([]error, len(p.Questions))
	var g errgroup.Group
	for i, q := range p.Questions {
		g.Go(func() error {
			grades[i], errs[i] = s.Grade(ctx, p.Text, q.Text, q.CorrectAnswer, answers[i], opts)
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		failed := 0
		for _, e := range errs {
			if e != nil {
				failed++
			}
		}
		return nil, &GradingError{Failed: failed, Total: len(p.Questions), Err: errors.Join(errs...)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &GradingError{Total: len(p.Questions), Err: err}
	}

	result := &model.TestResult{Answers: make([]model.AnswerResult, len(p.Questions))}
	correct := 0
	for i, q := range p.Questions {
		if grades[i].IsCorrect {
			correct++
		}
		result.Answers[i] = model.AnswerResult{Question: q, UserAnswer: answers[i], Grade: *grades[i]}
	}
	result.Entry = model.TestHistoryEntry{
		ID:               s.newID(),
		Subject:          p.Topic,
		Score:            score(correct, len(p.Questions)),
		CorrectQuestions: correct,
		TotalQuestions:   len(p.Questions),
		Date:             s.now().UTC(),
	}

	if err := s.history.Append(ctx, result.Entry); err != nil {
		return nil, fmt.Errorf("record test result: %w", err)
	}
	if s.observer != nil {
		s.observer.TestCompleted(result.Entry.Subject, result.Entry.Score)
	}
	slog.Info("test completed",
		"id", result.Entry.ID,
		"subject", result.Entry.Subject,
		"correct", correct,
		"total", len(p.Questions))
	return result, nil
}

// score is the percentage of correct answers, rounded to one decimal.
func score(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

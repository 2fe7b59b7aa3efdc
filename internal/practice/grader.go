package practice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pavelanni/examprep/internal/llm"
	"github.com/pavelanni/examprep/internal/llm/prompts"
	"github.com/pavelanni/examprep/internal/model"
)

// Grader judges a single answer.
type Grader struct {
	gw    Caller
	usage UsageRecorder
}

// NewGrader creates a Grader.
func NewGrader(gw Caller, usage UsageRecorder) *Grader {
	return &Grader{gw: gw, usage: usage}
}

// Grade asks the model whether userAnswer is correct and why. Every failure
// is a *GradingError.
func (g *Grader) Grade(ctx context.Context, passage, question, correctAnswer, userAnswer string, opts Options) (*model.GradeResult, error) {
	resp, err := call(ctx, g.gw, g.usage, llm.Call{
		Template: prompts.GradeAnswer,
		Variables: prompts.GradeData{
			Passage:       passage,
			Question:      question,
			CorrectAnswer: correctAnswer,
			UserAnswer:    userAnswer,
		},
		Schema:      GradeSchema,
		Model:       opts.Model,
		APIKey:      opts.APIKey,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, &GradingError{Question: question, Err: err}
	}

	var res model.GradeResult
	if err := json.Unmarshal(resp.Content, &res); err != nil {
		return nil, &GradingError{Question: question, Err: fmt.Errorf("decode grade: %w", err)}
	}
	return &res, nil
}

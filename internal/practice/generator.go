package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pavelanni/examprep/internal/llm"
	"github.com/pavelanni/examprep/internal/llm/prompts"
	"github.com/pavelanni/examprep/internal/model"
)

// ErrEmptyTopic is returned when Generate is called without a topic.
var ErrEmptyTopic = errors.New("topic must not be empty")

// Generator produces a passage and questions for a topic.
type Generator struct {
	gw            Caller
	usage         UsageRecorder
	questionCount int
}

// NewGenerator creates a Generator asking for questionCount questions
// (DefaultQuestionCount when not positive).
func NewGenerator(gw Caller, usage UsageRecorder, questionCount int) *Generator {
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}
	return &Generator{gw: gw, usage: usage, questionCount: questionCount}
}

// Generate asks the model for a passage on topic. Every failure is a
// *GenerationError.
func (g *Generator) Generate(ctx context.Context, topic string, opts Options) (*model.Passage, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, &GenerationError{Topic: topic, Err: ErrEmptyTopic}
	}

	resp, err := call(ctx, g.gw, g.usage, llm.Call{
		Template: prompts.GeneratePassage,
		Variables: prompts.GenerateData{
			Topic:         topic,
			QuestionCount: g.questionCount,
			OptionCount:   OptionCount,
		},
		Schema:      PassageSchema,
		Model:       opts.Model,
		APIKey:      opts.APIKey,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, &GenerationError{Topic: topic, Err: err}
	}

	var p model.Passage
	if err := json.Unmarshal(resp.Content, &p); err != nil {
		return nil, &GenerationError{Topic: topic, Err: fmt.Errorf("decode passage: %w", err)}
	}
	p.Topic = topic
	if err := checkPassage(&p); err != nil {
		return nil, &GenerationError{Topic: topic, Err: err}
	}
	return &p, nil
}

// checkPassage enforces what the schema cannot express.
func checkPassage(p *model.Passage) error {
	p.Text = strings.TrimSpace(p.Text)
	if p.Text == "" {
		return errors.New("empty passage")
	}
	if len(p.Questions) == 0 {
		return errors.New("no questions")
	}
	for i := range p.Questions {
		q := &p.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return fmt.Errorf("question %d: empty text", i+1)
		}
		if len(q.Options) != OptionCount {
			return fmt.Errorf("question %d: %d options, want %d", i+1, len(q.Options), OptionCount)
		}
		for j, o := range q.Options {
			q.Options[j] = strings.TrimSpace(o)
		}
		q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("question %d: correct answer %q is not among the options", i+1, q.CorrectAnswer)
		}
	}
	return nil
}

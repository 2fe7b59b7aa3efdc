package practice

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examprep/internal/history"
	"github.com/pavelanni/examprep/internal/llm"
	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/store"
	"github.com/pavelanni/examprep/internal/usage"
)

const passageJSON = `{
  "passage": "Volcanoes form where magma reaches the surface.",
  "questions": [
    {"question": "What reaches the surface?", "options": ["Water", "Magma", "Ice", "Sand"], "correctAnswer": "Magma"},
    {"question": "Where do volcanoes form?", "options": ["Caves", "Oceans only", "Where magma surfaces", "Deserts"], "correctAnswer": "Where magma surfaces"}
  ]
}`

func gradeJSON(correct bool) json.RawMessage {
	b, _ := json.Marshal(model.GradeResult{
		IsCorrect:          correct,
		ExplanationEnglish: "Because the passage says so.",
		ExplanationArabic:  "لأن النص يقول ذلك.",
	})
	return b
}

type fixture struct {
	mock    *llm.MockProvider
	usage   *usage.Store
	history *history.Store
	svc     *Service
}

type completed struct {
	mu     sync.Mutex
	scores []float64
}

func (c *completed) TestCompleted(_ string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores = append(c.scores, score)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	mock := llm.NewMockProvider()
	gw, err := llm.NewGateway(context.Background(), llm.Config{Provider: llm.ProviderMock}, llm.WithProvider(mock))
	require.NoError(t, err)

	b := store.NewMemory()
	u := usage.New(b)
	h := history.New(b)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	opts = append([]Option{
		WithClock(func() time.Time { return now }),
		WithIDs(func() string { return "test-id" }),
	}, opts...)
	return &fixture{mock: mock, usage: u, history: h, svc: New(gw, u, h, opts...)}
}

func TestGenerate(t *testing.T) {
	f := newFixture(t, WithQuestionCount(2))
	f.mock.AddResponse(llm.MockResponse{Content: json.RawMessage(passageJSON), Usage: llm.Usage{TotalTokens: 120}})

	p, err := f.svc.Generate(context.Background(), "  Volcanoes ", Options{Model: "gemini-pro"})
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes", p.Topic)
	assert.Len(t, p.Questions, 2)
	assert.Equal(t, "Magma", p.Questions[0].CorrectAnswer)

	req := f.mock.Calls[0]
	assert.Equal(t, "gemini-pro", req.Model)
	assert.Same(t, PassageSchema, req.Schema)
	assert.Contains(t, req.Messages[0].Content, "Topic: Volcanoes")
	assert.Contains(t, req.Messages[0].Content, "Number of questions: 2")

	rec := f.usage.Get(context.Background())
	assert.Equal(t, 1, rec.RequestsToday)
	assert.Equal(t, 120, rec.TokensToday)
}

func TestGenerate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"schema violation", `{"passage": "x", "questions": ["What?"]}`},
		{"no questions", `{"passage": "x", "questions": []}`},
		{"blank passage", `{"passage": "  ", "questions": [{"question": "Q", "options": ["a","b","c","d"], "correctAnswer": "a"}]}`},
		{"answer not an option", `{"passage": "x", "questions": [{"question": "Q", "options": ["a","b","c","d"], "correctAnswer": "e"}]}`},
		{"three options", `{"passage": "x", "questions": [{"question": "Q", "options": ["a","b","c"], "correctAnswer": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mock.AddResponse(llm.MockResponse{Content: json.RawMessage(tt.content)})

			_, err := f.svc.Generate(context.Background(), "Volcanoes", Options{})
			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, "Volcanoes", genErr.Topic)
		})
	}
}

func TestGenerate_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.mock.AddResponse(llm.MockResponse{Err: &llm.ErrRateLimit{}})

	_, err := f.svc.Generate(context.Background(), "Tides", Options{})
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	var rate *llm.ErrRateLimit
	assert.ErrorAs(t, err, &rate)
	assert.Equal(t, 0, f.usage.Get(context.Background()).RequestsToday, "failed calls are not counted")
}

func TestGenerate_EmptyTopic(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), " ", Options{})
	assert.ErrorIs(t, err, ErrEmptyTopic)
	assert.Equal(t, 0, f.mock.CallCount())
}

func TestGrade(t *testing.T) {
	f := newFixture(t)
	f.mock.AddResponse(llm.MockResponse{Content: gradeJSON(false), Usage: llm.Usage{TotalTokens: 30}})

	res, err := f.svc.Grade(context.Background(), "passage", "question?", "Magma", "Water", Options{APIKey: ""})
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.NotEmpty(t, res.ExplanationArabic)
	assert.Same(t, GradeSchema, f.mock.Calls[0].Schema)
	assert.Contains(t, f.mock.Calls[0].Messages[0].Content, "Water")
}

func TestGrade_MalformedPayload(t *testing.T) {
	f := newFixture(t)
	f.mock.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"isCorrect": true}`)})

	_, err := f.svc.Grade(context.Background(), "p", "q", "a", "a", Options{})
	var gradeErr *GradingError
	require.ErrorAs(t, err, &gradeErr)
	assert.Equal(t, "q", gradeErr.Question)
}

func passage(t *testing.T) *model.Passage {
	t.Helper()
	var p model.Passage
	require.NoError(t, json.Unmarshal([]byte(passageJSON), &p))
	p.Topic = "Volcanoes"
	return &p
}

func TestSubmit_AllSucceed(t *testing.T) {
	obs := &completed{}
	f := newFixture(t, WithObserver(obs))
	f.mock.Respond = func(req llm.Request) llm.MockResponse {
		correct := strings.Contains(req.Messages[0].Content, "What reaches the surface?")
		return llm.MockResponse{Content: gradeJSON(correct), Usage: llm.Usage{TotalTokens: 10}}
	}

	res, err := f.svc.Submit(context.Background(), passage(t), []string{"Magma", "Caves"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, model.TestHistoryEntry{
		ID:               "test-id",
		Subject:          "Volcanoes",
		Score:            50,
		CorrectQuestions: 1,
		TotalQuestions:   2,
		Date:             time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}, res.Entry)
	require.Len(t, res.Answers, 2)
	assert.True(t, res.Answers[0].Grade.IsCorrect)
	assert.Equal(t, "Caves", res.Answers[1].UserAnswer)
	assert.False(t, res.Answers[1].Grade.IsCorrect)

	all := f.history.All(context.Background())
	require.Len(t, all, 1)
	assert.Equal(t, res.Entry, all[0])

	rec := f.usage.Get(context.Background())
	assert.Equal(t, 2, rec.RequestsToday)
	assert.Equal(t, 20, rec.TokensToday)
	assert.Equal(t, []float64{50}, obs.scores)
}

func TestSubmit_OneFailureRecordsNothing(t *testing.T) {
	f := newFixture(t)
	f.mock.Respond = func(req llm.Request) llm.MockResponse {
		if strings.Contains(req.Messages[0].Content, "Where do volcanoes form?") {
			return llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}
		}
		return llm.MockResponse{Content: gradeJSON(true)}
	}

	_, err := f.svc.Submit(context.Background(), passage(t), []string{"Magma", "Caves"}, Options{})
	var gradeErr *GradingError
	require.ErrorAs(t, err, &gradeErr)
	assert.Equal(t, 1, gradeErr.Failed)
	assert.Equal(t, 2, gradeErr.Total)

	assert.Equal(t, 2, f.mock.CallCount(), "every grading call runs before the join")
	assert.Empty(t, f.history.All(context.Background()))
	assert.Equal(t, 1, f.usage.Get(context.Background()).RequestsToday)
}

func TestSubmit_AnswerCountMismatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), passage(t), []string{"Magma"}, Options{})
	assert.ErrorIs(t, err, ErrAnswerCount)
	assert.Equal(t, 0, f.mock.CallCount())
}

func TestSubmit_CanceledRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.mock.Respond = func(llm.Request) llm.MockResponse {
		cancel()
		return llm.MockResponse{Content: gradeJSON(true)}
	}

	_, err := f.svc.Submit(ctx, passage(t), []string{"Magma", "Caves"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.history.All(context.Background()))
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, score(0, 0))
	assert.Equal(t, 100.0, score(3, 3))
	assert.Equal(t, 66.7, score(2, 3))
	assert.Equal(t, 80.0, score(4, 5))
}

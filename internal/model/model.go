package model

import (
	"context"
	"time"
)

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// UsageRecord holds today's advisory request and token counters.
type UsageRecord struct {
	RequestsToday int    `json:"requestsToday"`
	TokensToday   int    `json:"tokensToday"`
	DayKey        string `json:"dayKey"` // YYYY-MM-DD in the configured time zone
}

// TestHistoryEntry is the persisted summary of one completed practice test.
type TestHistoryEntry struct {
	ID               string    `json:"id"`
	Subject          string    `json:"subject"`
	Score            float64   `json:"score"` // 0-100
	CorrectQuestions int       `json:"correctQuestions"`
	TotalQuestions   int       `json:"totalQuestions"`
	Date             time.Time `json:"date"`
}

// Question is a generated multiple-choice question.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Passage is a generated reading text with its questions.
type Passage struct {
	Topic     string     `json:"topic"`
	Text      string     `json:"passage"`
	Questions []Question `json:"questions"`
}

// GradeResult is the model's judgement of a single answer.
type GradeResult struct {
	IsCorrect          bool   `json:"isCorrect"`
	ExplanationEnglish string `json:"explanationEnglish"`
	ExplanationArabic  string `json:"explanationArabic"`
}

// AnswerResult pairs a question with the learner's answer and its grade.
type AnswerResult struct {
	Question   Question
	UserAnswer string
	Grade      GradeResult
}

// TestResult is the outcome of grading a whole submitted test.
type TestResult struct {
	Entry   TestHistoryEntry
	Answers []AnswerResult
}

// PracticeStage is the client-visible step of the practice flow.
type PracticeStage string

const (
	StageGenerate PracticeStage = "generate"
	StageTest     PracticeStage = "test"
	StageResults  PracticeStage = "results"
)

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/ar")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	DefaultModel  string // shown in the practice form as the default choice
	Models        []string
	Subjects      []string
}

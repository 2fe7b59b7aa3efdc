package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Recorder receives one observation per model call.
type Recorder interface {
	ObserveCall(purpose, model, outcome string, elapsed time.Duration, usage Usage)
}

// Call outcomes reported to a Recorder.
const (
	OutcomeOK              = "ok"
	OutcomeInvalidResponse = "invalid_response"
	OutcomeRateLimited     = "rate_limited"
	OutcomeUnavailable     = "unavailable"
	OutcomeTruncated       = "truncated"
	OutcomeCanceled        = "canceled"
	OutcomeError           = "error"
)

// Outcome classifies a Generate error.
func Outcome(err error) string {
	var (
		invalid   *ErrInvalidResponse
		rate      *ErrRateLimit
		down      *ErrProviderUnavailable
		truncated *ErrMaxTokensExceeded
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.As(err, &invalid):
		return OutcomeInvalidResponse
	case errors.As(err, &rate):
		return OutcomeRateLimited
	case errors.As(err, &truncated):
		return OutcomeTruncated
	case errors.As(err, &down):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

// InstrumentedProvider logs every call with slog and reports it to a Recorder.
type InstrumentedProvider struct {
	inner    Provider
	recorder Recorder
}

// WithInstrumentation wraps p. A nil recorder only logs.
func WithInstrumentation(p Provider, rec Recorder) Provider {
	return &InstrumentedProvider{inner: p, recorder: rec}
}

func (l *InstrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	elapsed := time.Since(start)
	model := req.Model
	if model == "" {
		model = l.inner.ModelID()
	}
	var usage Usage
	if resp != nil {
		usage = resp.Usage
		model = resp.Model
	}
	outcome := Outcome(err)

	if l.recorder != nil {
		l.recorder.ObserveCall(purpose, model, outcome, elapsed, usage)
	}

	attrs := []any{
		"purpose", purpose,
		"model", model,
		"outcome", outcome,
		"latency_ms", elapsed.Milliseconds(),
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	}
	if err != nil {
		slog.Warn("model call failed", append(attrs, "error", err)...)
	} else {
		slog.Info("model call", attrs...)
		slog.Debug("model response", "purpose", purpose, "raw", string(resp.Content))
	}
	return resp, err
}

func (l *InstrumentedProvider) ModelID() string {
	return l.inner.ModelID()
}

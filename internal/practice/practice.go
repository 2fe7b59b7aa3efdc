// Package practice generates reading passages, grades answers through the
// model gateway and records completed tests.
package practice

import (
	"context"
	"log/slog"

	"github.com/pavelanni/examprep/internal/llm"
	"github.com/pavelanni/examprep/internal/model"
)

// Caller sends a template-driven request to the model. *llm.Gateway
// implements it.
type Caller interface {
	Call(ctx context.Context, c llm.Call) (*llm.Response, error)
}

// UsageRecorder accumulates request and token counts. *usage.Store
// implements it.
type UsageRecorder interface {
	Add(ctx context.Context, requests, tokens int) (model.UsageRecord, error)
}

// HistoryAppender stores completed test summaries. *history.Store
// implements it.
type HistoryAppender interface {
	Append(ctx context.Context, entry model.TestHistoryEntry) error
}

// Observer is told about every completed test.
type Observer interface {
	TestCompleted(subject string, score float64)
}

// Options are per-call settings chosen by the learner.
type Options struct {
	Model  string // empty means the configured default
	APIKey string // empty means the server key
}

// call runs one gateway call and, on success, counts it against today's
// usage. A failed usage write is logged and does not fail the call.
func call(ctx context.Context, gw Caller, usage UsageRecorder, c llm.Call) (*llm.Response, error) {
	resp, err := gw.Call(ctx, c)
	if err != nil {
		return nil, err
	}
	if usage != nil {
		if _, err := usage.Add(ctx, 1, resp.Usage.TotalTokens); err != nil {
			slog.Warn("failed to record usage", "template", c.Template, "error", err)
		}
	}
	return resp, nil
}

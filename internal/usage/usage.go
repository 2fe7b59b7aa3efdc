// Package usage tracks how many model requests and tokens were consumed
// today. The counters are advisory: nothing is blocked when the daily limit
// is exceeded.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/store"
)

// DefaultDailyRequestLimit is the display limit used when none is configured.
const DefaultDailyRequestLimit = 50

const dayKeyLayout = "2006-01-02"

// ErrNegativeDelta is returned by Add when a delta is below zero.
var ErrNegativeDelta = errors.New("usage delta must not be negative")

// Store keeps the usage record in a Backend.
type Store struct {
	backend store.Backend
	now     func() time.Time
	loc     *time.Location
	limit   int

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the time zone that defines the calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDailyLimit sets the advisory daily request limit.
func WithDailyLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// New creates a usage store backed by b.
func New(b store.Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		now:     time.Now,
		loc:     time.Local,
		limit:   DefaultDailyRequestLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyLimit returns the advisory daily request limit.
func (s *Store) DailyLimit() int {
	return s.limit
}

func (s *Store) today() string {
	return s.now().In(s.loc).Format(dayKeyLayout)
}

// Get returns today's counters. A record from an earlier day reads as zero;
// the stale record is overwritten on the next Add, not here.
func (s *Store) Get(ctx context.Context) model.UsageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(ctx)
}

// Add adds requests and tokens to today's counters and persists the result.
func (s *Store) Add(ctx context.Context, requests, tokens int) (model.UsageRecord, error) {
	if requests < 0 || tokens < 0 {
		return model.UsageRecord{}, ErrNegativeDelta
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.current(ctx)
	rec.RequestsToday += requests
	rec.TokensToday += tokens

	data, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("encode usage: %w", err)
	}
	if err := s.backend.Set(ctx, store.KeyUsage, string(data)); err != nil {
		return rec, fmt.Errorf("persist usage: %w", err)
	}
	return rec, nil
}

// current loads the persisted record and applies the day guard.
// Callers must hold s.mu.
func (s *Store) current(ctx context.Context) model.UsageRecord {
	today := s.today()
	fresh := model.UsageRecord{DayKey: today}

	raw, ok, err := s.backend.Get(ctx, store.KeyUsage)
	if err != nil {
		slog.Warn("read usage record", "error", err)
		return fresh
	}
	if !ok {
		return fresh
	}

	rec, err := decode(raw)
	if err != nil {
		slog.Warn("discarding usage record", "error", &store.ReadError{Key: store.KeyUsage, Err: err})
		return fresh
	}
	if rec.DayKey != today {
		slog.Debug("usage record is from an earlier day", "day", rec.DayKey, "today", today)
		return fresh
	}
	return rec
}

func decode(raw string) (model.UsageRecord, error) {
	var rec model.UsageRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, err
	}
	if rec.RequestsToday < 0 || rec.TokensToday < 0 {
		return rec, errors.New("negative counter")
	}
	if _, err := time.Parse(dayKeyLayout, rec.DayKey); err != nil {
		return rec, fmt.Errorf("day key: %w", err)
	}
	return rec, nil
}

// Snapshot is today's usage together with the advisory limit, for display.
type Snapshot struct {
	Usage     model.UsageRecord
	Limit     int
	Remaining int
	OverLimit bool
	Percent   float64 // requests used as a share of the limit, capped at 100
}

// Snapshot returns today's usage and the derived limit figures.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	rec := s.Get(ctx)
	snap := Snapshot{Usage: rec, Limit: s.limit}
	snap.Remaining = s.limit - rec.RequestsToday
	if snap.Remaining < 0 {
		snap.Remaining = 0
	}
	snap.OverLimit = rec.RequestsToday >= s.limit
	snap.Percent = float64(rec.RequestsToday) / float64(s.limit) * 100
	if snap.Percent > 100 {
		snap.Percent = 100
	}
	return snap
}

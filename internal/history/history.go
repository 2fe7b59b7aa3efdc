// Package history keeps the append-only, most-recent-first log of completed
// practice tests.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/store"
)

// ErrNotFound is returned by ByID when no entry has the requested id.
var ErrNotFound = errors.New("history entry not found")

// Store persists the history sequence as one JSON array under a single key.
type Store struct {
	backend store.Backend
	mu      sync.Mutex
}

// New creates a history store backed by b.
func New(b store.Backend) *Store {
	return &Store{backend: b}
}

// Append inserts entry at the front and persists the whole sequence.
// Entries are not deduplicated by id.
func (s *Store) Append(ctx context.Context, entry model.TestHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	updated := make([]model.TestHistoryEntry, 0, len(entries)+1)
	updated = append(updated, entry)
	updated = append(updated, entries...)

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.backend.Set(ctx, store.KeyTestHistory, string(data)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// All returns the full history, most recent first. It never fails: an absent
// or unreadable value yields an empty slice.
func (s *Store) All(ctx context.Context) []model.TestHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ByID returns the first entry with the given id.
func (s *Store) ByID(ctx context.Context, id string) (model.TestHistoryEntry, error) {
	for _, e := range s.All(ctx) {
		if e.ID == id {
			return e, nil
		}
	}
	return model.TestHistoryEntry{}, ErrNotFound
}

// Clear removes the whole history.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Remove(ctx, store.KeyTestHistory)
}

func (s *Store) load(ctx context.Context) []model.TestHistoryEntry {
	raw, ok, err := s.backend.Get(ctx, store.KeyTestHistory)
	if err != nil {
		slog.Warn("read test history", "error", err)
		return []model.TestHistoryEntry{}
	}
	if !ok {
		return []model.TestHistoryEntry{}
	}
	entries, err := decode(raw)
	if err != nil {
		slog.Warn("discarding test history", "error", &store.ReadError{Key: store.KeyTestHistory, Err: err})
		return []model.TestHistoryEntry{}
	}
	return entries
}

// decode parses the stored sequence. One malformed entry rejects the whole
// value.
func decode(raw string) ([]model.TestHistoryEntry, error) {
	var entries []*model.TestHistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	out := make([]model.TestHistoryEntry, 0, len(entries))
	for i, e := range entries {
		if e == nil {
			return nil, fmt.Errorf("entry %d: null", i)
		}
		if err := valid(*e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, *e)
	}
	return out, nil
}

func valid(e model.TestHistoryEntry) error {
	switch {
	case e.ID == "":
		return errors.New("missing id")
	case e.Date.IsZero():
		return errors.New("missing date")
	case e.Score < 0 || e.Score > 100:
		return fmt.Errorf("score %v out of range", e.Score)
	case e.CorrectQuestions < 0 || e.TotalQuestions < 0:
		return errors.New("negative question count")
	case e.CorrectQuestions > e.TotalQuestions:
		return fmt.Errorf("%d correct of %d questions", e.CorrectQuestions, e.TotalQuestions)
	}
	return nil
}

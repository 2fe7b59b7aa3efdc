package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/store"
)

func entry(id, subject string, score float64) model.TestHistoryEntry {
	return model.TestHistoryEntry{
		ID:               id,
		Subject:          subject,
		Score:            score,
		CorrectQuestions: int(score / 20),
		TotalQuestions:   5,
		Date:             time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestAll_NeverWritten(t *testing.T) {
	s := New(store.NewMemory())

	got := s.All(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAll_Corrupt(t *testing.T) {
	const date = `"date":"2026-03-14T10:30:00Z"`
	for _, raw := range []string{
		"not json",
		`{"id":"x"}`,
		`[{"score":"high"}]`,
		`[null]`,
		`[{}]`,
		`[{"id":"x","subject":"Biology","score":80,"correctQuestions":4,"totalQuestions":5}]`,
		`[{"id":"x","subject":"Biology","score":250,"correctQuestions":9,"totalQuestions":2,` + date + `}]`,
		`[{"id":"x","subject":"Biology","score":-5,"correctQuestions":0,"totalQuestions":2,` + date + `}]`,
		`[{"id":"x","subject":"Biology","score":100,"correctQuestions":3,"totalQuestions":2,` + date + `}]`,
		`[{"id":"x","subject":"Biology","score":0,"correctQuestions":-1,"totalQuestions":2,` + date + `}]`,
		`[{"id":"x","subject":"Biology","score":80,"correctQuestions":4,"totalQuestions":5,` + date + `},{"id":"","score":10,` + date + `}]`,
	} {
		t.Run(raw, func(t *testing.T) {
			b := store.NewMemory()
			ctx := context.Background()
			require.NoError(t, b.Set(ctx, store.KeyTestHistory, raw))

			s := New(b)
			assert.Empty(t, s.All(ctx))

			_, err := s.ByID(ctx, "x")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAll_ValidStoredValue(t *testing.T) {
	b := store.NewMemory()
	ctx := context.Background()
	raw := `[{"id":"x","subject":"Biology","score":80,"correctQuestions":4,"totalQuestions":5,"date":"2026-03-14T10:30:00Z"}]`
	require.NoError(t, b.Set(ctx, store.KeyTestHistory, raw))

	got := New(b).All(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "Biology", got[0].Subject)
	assert.Equal(t, 80.0, Summarize(got).Average)
}

func TestAppend_PrependsInOrder(t *testing.T) {
	s := New(store.NewMemory())
	ctx := context.Background()

	e1 := entry("a", "Biology", 80)
	e2 := entry("b", "Physics", 60)
	e3 := entry("c", "Biology", 100)
	for _, e := range []model.TestHistoryEntry{e1, e2, e3} {
		require.NoError(t, s.Append(ctx, e))
	}

	assert.Equal(t, []model.TestHistoryEntry{e3, e2, e1}, s.All(ctx))
}

func TestAppend_DoesNotDeduplicate(t *testing.T) {
	s := New(store.NewMemory())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entry("dup", "Biology", 40)))
	require.NoError(t, s.Append(ctx, entry("dup", "Biology", 90)))

	all := s.All(ctx)
	require.Len(t, all, 2)

	got, err := s.ByID(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.Score, "lookup returns the most recent of duplicate ids")
}

func TestByID_RoundTrip(t *testing.T) {
	b, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	s := New(b)
	ctx := context.Background()

	e := model.TestHistoryEntry{
		ID:               "1710412200000-k3j9",
		Subject:          "Chemistry",
		Score:            66.66666666666667,
		CorrectQuestions: 2,
		TotalQuestions:   3,
		Date:             time.Date(2026, 3, 14, 10, 30, 0, 123000000, time.UTC),
	}
	require.NoError(t, s.Append(ctx, entry("other", "Physics", 20)))
	require.NoError(t, s.Append(ctx, e))

	got, err := s.ByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = s.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClear(t *testing.T) {
	s := New(store.NewMemory())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entry("a", "Biology", 80)))
	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.All(ctx))

	// Clearing an empty store is fine.
	require.NoError(t, s.Clear(ctx))
}

func TestConcurrentAppends(t *testing.T) {
	s := New(store.NewMemory())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(ctx, entry(fmt.Sprintf("id-%d", i), "Biology", 50))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.All(ctx), 25)
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		st := Summarize(nil)
		assert.False(t, st.HasData)
		assert.Zero(t, st.Count)
		assert.Zero(t, st.Average)
		assert.Empty(t, st.Subjects)
	})

	t.Run("best and worst subject", func(t *testing.T) {
		entries := []model.TestHistoryEntry{
			entry("1", "Biology", 80),
			entry("2", "Physics", 60),
			entry("3", "Biology", 100),
		}
		st := Summarize(entries)

		assert.True(t, st.HasData)
		assert.Equal(t, 3, st.Count)
		assert.InDelta(t, 80.0, st.Average, 1e-9)
		assert.Equal(t, "Biology", st.Best.Subject)
		assert.InDelta(t, 90.0, st.Best.Average, 1e-9)
		assert.Equal(t, "Physics", st.Worst.Subject)
		assert.InDelta(t, 60.0, st.Worst.Average, 1e-9)
		assert.Equal(t, []SubjectStat{
			{Subject: "Biology", Tests: 2, Average: 90},
			{Subject: "Physics", Tests: 1, Average: 60},
		}, st.Subjects)
	})

	t.Run("ties resolve to first encountered", func(t *testing.T) {
		entries := []model.TestHistoryEntry{
			entry("1", "History", 70),
			entry("2", "Geography", 70),
		}
		st := Summarize(entries)
		assert.Equal(t, "History", st.Best.Subject)
		assert.Equal(t, "History", st.Worst.Subject)
	})
}

func TestExport(t *testing.T) {
	entries := []model.TestHistoryEntry{
		entry("1", "Biology", 80),
		entry("2", "Physics", 60),
	}
	out := Export(entries)

	assert.Equal(t, 2, out.Count)
	assert.InDelta(t, 70.0, out.Average, 1e-9)
	assert.Equal(t, []model.SubjectAverage{
		{Subject: "Biology", Tests: 1, Average: 80},
		{Subject: "Physics", Tests: 1, Average: 60},
	}, out.Subjects)
	assert.Equal(t, entries, out.Entries)
}

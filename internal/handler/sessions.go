package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examprep/internal/model"
)

const (
	practiceCookieName = "practice"
	sessionIdleTTL     = 12 * time.Hour
)

// practiceState is the in-memory view state of one practice flow.
type practiceState struct {
	Stage   model.PracticeStage
	Topic   string
	Model   string
	Passage *model.Passage
	Answers []string
	Result  *model.TestResult

	busy     bool
	lastSeen time.Time
}

// sessions maps practice cookies to their state. Nothing here is
// persisted: only completed tests reach the history store.
type sessions struct {
	mu  sync.Mutex
	m   map[string]*practiceState
	now func() time.Time
}

func newSessions() *sessions {
	return &sessions{m: make(map[string]*practiceState), now: time.Now}
}

// get returns a copy of the state for id, or a fresh one.
func (s *sessions) get(id string) practiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.m[id]; ok {
		st.lastSeen = s.now()
		return *st
	}
	return practiceState{Stage: model.StageGenerate}
}

// update applies fn to the state for id, creating it when needed.
func (s *sessions) update(id string, fn func(st *practiceState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[id]
	if !ok {
		s.pruneLocked()
		st = &practiceState{Stage: model.StageGenerate}
		s.m[id] = st
	}
	fn(st)
	st.lastSeen = s.now()
}

// acquire marks id busy and returns a copy of its state. It fails when a
// call is already in flight or the flow is not at stage want.
func (s *sessions) acquire(id string, want model.PracticeStage) (practiceState, bool) {
	var snap practiceState
	ok := false
	s.update(id, func(st *practiceState) {
		snap = *st
		if st.busy || st.Stage != want {
			return
		}
		st.busy = true
		ok = true
	})
	return snap, ok
}

func (s *sessions) release(id string) {
	s.update(id, func(st *practiceState) { st.busy = false })
}

func (s *sessions) pruneLocked() {
	cutoff := s.now().Add(-sessionIdleTTL)
	for id, st := range s.m {
		if !st.busy && st.lastSeen.Before(cutoff) {
			delete(s.m, id)
		}
	}
}

// sessionID returns the practice cookie value, issuing one when absent.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(practiceCookieName); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     practiceCookieName,
		Value:    id,
		Path:     h.cookiePath(),
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

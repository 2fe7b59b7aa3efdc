package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/pavelanni/examprep/internal/handler/views"
	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/practice"
)

func (h *Handler) handlePractice(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.get(h.sessionID(w, r))
	h.render(w, r, http.StatusOK, views.PracticePage(views.PracticeData{
		Layout:       h.layout(w, r, "practice"),
		Stage:        st.Stage,
		Subjects:     h.config.Subjects,
		Models:       h.config.Models,
		DefaultModel: h.config.DefaultModel,
		Topic:        st.Topic,
		Model:        st.Model,
		Passage:      st.Passage,
		Answers:      st.Answers,
		Result:       st.Result,
	}))
}

// callOptions picks the model from the form and the learner's saved key.
func (h *Handler) callOptions(ctx context.Context, chosenModel string) practice.Options {
	opts := practice.Options{}
	if chosenModel != "" && slices.Contains(h.config.Models, chosenModel) {
		opts.Model = chosenModel
	}
	if key, ok := h.apiKeys.Get(ctx); ok {
		opts.APIKey = key
	}
	return opts
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	topic := strings.TrimSpace(r.FormValue("topic"))
	chosen := r.FormValue("model")

	// A finished test must be reset before a new passage is generated.
	if _, ok := h.sessions.acquire(id, model.StageGenerate); !ok {
		http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
		return
	}
	defer h.sessions.release(id)

	opts := h.callOptions(r.Context(), chosen)
	passage, err := h.practice.Generate(r.Context(), topic, opts)
	if err != nil {
		slog.Error("passage generation failed", "topic", topic, "error", err)
		h.sessions.update(id, func(st *practiceState) {
			st.Topic = topic
			st.Model = chosen
		})
		h.setNotice(w, noticeFor(err))
		http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
		return
	}

	h.sessions.update(id, func(st *practiceState) {
		st.Stage = model.StageTest
		st.Topic = topic
		st.Model = opts.Model
		st.Passage = passage
		st.Answers = nil
		st.Result = nil
	})
	http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	st := h.sessions.get(id)
	if st.Stage != model.StageTest || st.Passage == nil {
		h.setNotice(w, "NoticeSessionExpired")
		http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
		return
	}

	answers := make([]string, len(st.Passage.Questions))
	missing := false
	for i := range answers {
		answers[i] = strings.TrimSpace(r.FormValue(fmt.Sprintf("answer-%d", i)))
		if answers[i] == "" {
			missing = true
		}
	}
	if missing {
		h.sessions.update(id, func(st *practiceState) { st.Answers = answers })
		h.setNotice(w, "NoticeAnswerAll")
		http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
		return
	}

	// The state may have moved on since the read above.
	cur, ok := h.sessions.acquire(id, model.StageTest)
	if !ok || cur.Passage != st.Passage {
		if ok {
			h.sessions.release(id)
		}
		if !cur.busy {
			h.setNotice(w, "NoticeSessionExpired")
		}
		http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
		return
	}
	defer h.sessions.release(id)

	result, err := h.practice.Submit(r.Context(), st.Passage, answers, h.callOptions(r.Context(), st.Model))
	if err != nil {
		slog.Error("grading failed", "topic", st.Passage.Topic, "error", err)
		h.sessions.update(id, func(st *practiceState) { st.Answers = answers })
		h.setNotice(w, noticeFor(err))
		http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
		return
	}

	h.sessions.update(id, func(st *practiceState) {
		st.Stage = model.StageResults
		st.Answers = answers
		st.Result = result
	})
	http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	h.sessions.update(id, func(st *practiceState) {
		st.Stage = model.StageGenerate
		st.Passage = nil
		st.Answers = nil
		st.Result = nil
	})
	http.Redirect(w, r, h.path("/practice"), http.StatusSeeOther)
}

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examprep/internal/apikey"
	"github.com/pavelanni/examprep/internal/handler/views"
	"github.com/pavelanni/examprep/internal/history"
	"github.com/pavelanni/examprep/internal/llm"
	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/practice"
	"github.com/pavelanni/examprep/internal/usage"
)

// Deps are the services the handlers drive.
type Deps struct {
	Practice *practice.Service
	Usage    *usage.Store
	History  *history.Store
	APIKeys  *apikey.Store
	Gateway  *llm.Gateway
	Metrics  http.Handler // optional
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	practice *practice.Service
	usage    *usage.Store
	history  *history.Store
	apiKeys  *apikey.Store
	gateway  *llm.Gateway
	metrics  http.Handler
	sessions *sessions
	config   model.AppConfig
}

// New creates a new Handler.
func New(d Deps, cfg model.AppConfig) (*Handler, error) {
	if d.Practice == nil || d.Usage == nil || d.History == nil || d.APIKeys == nil || d.Gateway == nil {
		return nil, errors.New("handler: missing dependency")
	}
	return &Handler{
		practice: d.Practice,
		usage:    d.Usage,
		history:  d.History,
		apiKeys:  d.APIKeys,
		gateway:  d.Gateway,
		metrics:  d.Metrics,
		sessions: newSessions(),
		config:   cfg,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, h.path("/welcome"), http.StatusSeeOther)
		})
		r.Get("/welcome", h.handleWelcome)
		r.Get("/about", h.handleAbout)

		r.Get("/practice", h.handlePractice)
		r.Post("/practice/generate", h.handleGenerate)
		r.Post("/practice/submit", h.handleSubmit)
		r.Post("/practice/reset", h.handleReset)

		r.Get("/dashboard", h.handleDashboard)
		r.Get("/history/{id}", h.handleHistoryEntry)

		r.Get("/billing", h.handleBilling)
		r.Post("/settings/api-key", h.handleSaveAPIKey)
		r.Post("/settings/api-key/clear", h.handleClearAPIKey)
	})
}

// BasePathMiddleware makes the deployment prefix available to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes p with the base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "path", r.URL.Path, "error", err)
	}
}

// layout builds the shared page fields, consuming any pending notice.
func (h *Handler) layout(w http.ResponseWriter, r *http.Request, active string) views.Layout {
	return views.Layout{Active: active, Notice: h.takeNotice(w, r)}
}

// keyReady reports whether model calls can be made at all.
func (h *Handler) keyReady(r *http.Request) bool {
	if h.gateway.HasServerKey() {
		return true
	}
	_, ok := h.apiKeys.Get(r.Context())
	return ok
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "ok")
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.WelcomePage(views.WelcomeData{
		Layout:     h.layout(w, r, "welcome"),
		KeyReady:   h.keyReady(r),
		TestsTaken: len(h.history.All(r.Context())),
	}))
}

func (h *Handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.AboutPage(views.AboutData{
		Layout:     h.layout(w, r, "about"),
		Provider:   h.gateway.Provider(),
		Model:      h.gateway.Model(),
		DailyLimit: h.usage.DailyLimit(),
	}))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	entries := h.history.All(r.Context())
	h.render(w, r, http.StatusOK, views.DashboardPage(views.DashboardData{
		Layout:  h.layout(w, r, "dashboard"),
		Stats:   history.Summarize(entries),
		Entries: entries,
	}))
}

func (h *Handler) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.history.ByID(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		h.render(w, r, http.StatusNotFound, views.NotFoundPage(views.NotFoundData{
			Layout: h.layout(w, r, "dashboard"),
			ID:     id,
		}))
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, views.EntryPage(views.EntryData{
		Layout: h.layout(w, r, "dashboard"),
		Entry:  entry,
	}))
}

func (h *Handler) handleBilling(w http.ResponseWriter, r *http.Request) {
	key, ok := h.apiKeys.Get(r.Context())
	h.render(w, r, http.StatusOK, views.BillingPage(views.BillingData{
		Layout:    h.layout(w, r, "billing"),
		Usage:     h.usage.Snapshot(r.Context()),
		HasKey:    ok,
		MaskedKey: apikey.Mask(key),
		ServerKey: h.gateway.HasServerKey(),
		Sealed:    h.apiKeys.Sealed(),
		Provider:  h.gateway.Provider(),
	}))
}

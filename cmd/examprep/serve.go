package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pavelanni/examprep/internal/handler"
	appI18n "github.com/pavelanni/examprep/internal/i18n"
	"github.com/pavelanni/examprep/internal/llm"
	"github.com/pavelanni/examprep/internal/metrics"
	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/practice"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP practice server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /prep)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.StringP("lang", "l", "en", "Default UI language (en, ar)")
	f.String("llm-provider", llm.ProviderGemini, "Model provider (gemini, openai, anthropic, mock)")
	f.String("llm-key", "", "Server API key for the model provider (learners may add their own)")
	f.String("llm-model", "gemini-flash", "Default model name")
	f.String("llm-url", "", "Provider base URL override (e.g. http://localhost:11434/v1 for Ollama)")
	f.Bool("llm-json-object", false, "Ask OpenAI-compatible servers for plain JSON objects instead of strict schemas")
	f.Duration("llm-timeout", 60*time.Second, "Timeout for a single model call")
	f.StringSlice("models", nil, "Models offered in the practice form (default: only --llm-model)")
	f.StringSlice("subjects", []string{"Biology", "Chemistry", "Physics", "History", "Geography", "Economics"}, "Suggested practice topics")
	f.IntP("questions", "n", practice.DefaultQuestionCount, "Questions per generated passage")
	storageFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, v)
	if err != nil {
		return err
	}
	defer st.Close()

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg, "examprep")

	llmCfg := llm.Config{
		Provider: strings.ToLower(v.GetString("llm-provider")),
		ProviderConfig: llm.ProviderConfig{
			APIKey:         v.GetString("llm-key"),
			Model:          v.GetString("llm-model"),
			BaseURL:        v.GetString("llm-url"),
			JSONObjectMode: v.GetBool("llm-json-object"),
		},
		Timeout: v.GetDuration("llm-timeout"),
	}
	gw, err := llm.NewGateway(ctx, llmCfg, llm.WithRecorder(m))
	if err != nil {
		return fmt.Errorf("create model gateway: %w", err)
	}
	if !gw.HasServerKey() {
		slog.Warn("no server API key configured; learners must add their own", "provider", llmCfg.Provider)
	}

	svc := practice.New(gw, st.usage, st.history,
		practice.WithQuestionCount(v.GetInt("questions")),
		practice.WithObserver(m),
	)

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	models := v.GetStringSlice("models")
	if len(models) == 0 {
		models = []string{llmCfg.Model}
	}
	appCfg := model.AppConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		DefaultModel:  llmCfg.Model,
		Models:        models,
		Subjects:      v.GetStringSlice("subjects"),
	}

	h, err := handler.New(handler.Deps{
		Practice: svc,
		Usage:    st.usage,
		History:  st.history,
		APIKeys:  st.apiKeys,
		Gateway:  gw,
		Metrics:  m.Handler(),
	}, appCfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang, appCfg.SecureCookies))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting server",
		"addr", addr,
		"provider", llmCfg.Provider,
		"model", llmCfg.Model,
		"llm_url", llmCfg.BaseURL,
		"storage", v.GetString("storage"),
		"lang", lang,
		"questions", v.GetInt("questions"),
		"base_path", basePath,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

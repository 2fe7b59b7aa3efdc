package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/examprep/internal/apikey"
	"github.com/pavelanni/examprep/internal/history"
	"github.com/pavelanni/examprep/internal/store"
	"github.com/pavelanni/examprep/internal/usage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "examprep",
		Short:        "AI-assisted reading comprehension practice",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, usageCmd(), historyCmd(), apikeyCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examprep --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// storageFlags registers the flags every command needs to reach the stores.
func storageFlags(f *pflag.FlagSet) {
	f.String("storage", "sqlite", "Storage backend (sqlite, redis, memory)")
	f.String("db", "examprep.db", "SQLite database path")
	f.String("redis-addr", "localhost:6379", "Redis address")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.String("redis-prefix", "examprep:", "Redis key prefix")
	f.String("timezone", "", "Time zone that defines the usage day (default: local)")
	f.Int("daily-request-limit", usage.DefaultDailyRequestLimit, "Advisory daily request limit")
	f.String("secret", "", "Secret used to encrypt the stored API key (or set EXAMPREP_SECRET)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examprep")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examprep")
	v.AddConfigPath("/etc/examprep")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// stores bundles the persistent stores opened from configuration.
type stores struct {
	backend store.Backend
	usage   *usage.Store
	history *history.Store
	apiKeys *apikey.Store
}

func (s *stores) Close() error {
	return s.backend.Close()
}

func openStores(ctx context.Context, v *viper.Viper) (*stores, error) {
	loc := time.Local
	if tz := v.GetString("timezone"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load time zone %q: %w", tz, err)
		}
		loc = l
	}

	b, err := store.Open(ctx, store.Config{
		Kind:          v.GetString("storage"),
		DBPath:        v.GetString("db"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		RedisPrefix:   v.GetString("redis-prefix"),
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	return &stores{
		backend: b,
		usage:   usage.New(b, usage.WithLocation(loc), usage.WithDailyLimit(v.GetInt("daily-request-limit"))),
		history: history.New(b),
		apiKeys: apikey.New(b, v.GetString("secret")),
	}, nil
}

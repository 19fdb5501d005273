package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/nyashahama/flareguard-backend/internal/ai"
	"github.com/nyashahama/flareguard-backend/internal/api"
	"github.com/nyashahama/flareguard-backend/internal/assess"
	"github.com/nyashahama/flareguard-backend/internal/config"
	"github.com/nyashahama/flareguard-backend/internal/db"
	"github.com/nyashahama/flareguard-backend/internal/notify"
	"github.com/nyashahama/flareguard-backend/internal/observability"
	"github.com/nyashahama/flareguard-backend/internal/scoring"
	"github.com/nyashahama/flareguard-backend/internal/store"
	"github.com/nyashahama/flareguard-backend/internal/weather"
	"github.com/nyashahama/flareguard-backend/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Tracing ───────────────────────────────────────────────────────────────
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "flareguard-api",
		Environment: cfg.Env,
	}, logger)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, queries, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	st := store.New(pool, queries)

	// ── Weather ───────────────────────────────────────────────────────────────
	var wp weather.Provider = weather.NewClient(weather.Options{})
	if cfg.RedisURL != "" {
		rdb, err := weather.OpenRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		wp = weather.NewCachedProvider(wp, rdb, cfg.WeatherCacheTTL, logger)
		logger.Info("weather: redis cache enabled", "ttl", cfg.WeatherCacheTTL)
	}

	// ── Scoring ───────────────────────────────────────────────────────────────
	weights, err := scoring.LoadWeights(cfg.ScoringWeightsPath)
	if err != nil {
		return fmt.Errorf("scoring weights: %w", err)
	}
	scorer := scoring.NewScorer(weights)

	// ── AI ────────────────────────────────────────────────────────────────────
	// Anthropic is primary. DeepSeek is the fallback when both keys are set.
	// With no key at all, every assessment is deterministic.
	var (
		gen     assess.Generator
		planner assess.Planner
	)
	if completer := buildCompleter(cfg, logger); completer != nil {
		gen = ai.NewStrategy(completer, ai.StrategyConfig{
			Timeout:     cfg.AITimeout,
			HistoryDays: cfg.AIHistoryDays,
		}, logger)
		planner = ai.NewTreatmentPlanner(completer, cfg.AITimeout)
	} else {
		logger.Info("ai: no provider configured, deterministic scoring only")
	}

	engine := assess.NewEngine(scorer, gen, nil, logger)
	svc := assess.NewService(engine, st, st, wp, planner, cfg.AIHistoryDays, logger)

	// ── Alerts (Resend) ───────────────────────────────────────────────────────
	var mailer notify.Sender
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName, "")
	} else {
		mailer = notify.NewLogSender(logger)
		logger.Info("notify: no resend key, alerts are logged only")
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	job := worker.NewJob(svc, st, mailer, logger)
	runner := worker.NewRunner(job, st, worker.RunnerConfig{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.PollInterval,
		JobTimeout:   cfg.JobTimeout,
		MaxRetries:   cfg.MaxRetries,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		engine,
		svc,
		st,
		runner, // *Runner satisfies worker.Enqueuer
		api.Config{
			Env:           cfg.Env,
			AllowedOrigin: cfg.AllowedOrigin,
		},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generative assessments and plans can take a while
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	// Root context cancelled by OS signal. Worker and HTTP server both respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runner.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildCompleter returns nil when no provider key is configured.
func buildCompleter(cfg *config.Config, logger *slog.Logger) ai.Completer {
	switch {
	case cfg.AnthropicAPIKey != "" && cfg.DeepSeekAPIKey != "":
		logger.Info("ai: using Anthropic with DeepSeek fallback")
		return ai.NewFallbackCompleter(
			ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, ""),
			ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel, ""),
			logger,
		)
	case cfg.AnthropicAPIKey != "":
		logger.Info("ai: using Anthropic only")
		return ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, "")
	case cfg.DeepSeekAPIKey != "":
		logger.Info("ai: using DeepSeek only")
		return ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel, "")
	default:
		return nil
	}
}

// openDB opens the connection pool and builds the sqlc query set. The ping
// makes the server refuse to start when the database is unreachable.
func openDB(dsn string) (*sql.DB, *db.Queries, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	return pool, db.New(pool), nil
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/curator/internal/api"
	"github.com/Harshitk-cp/curator/internal/buildconfig"
	"github.com/Harshitk-cp/curator/internal/config"
	"github.com/Harshitk-cp/curator/internal/knowledge"
	"github.com/Harshitk-cp/curator/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	logger.Info("starting curator",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()))

	kb, err := knowledge.Load(config.KnowledgePath())
	if err != nil {
		logger.Fatal("failed to load knowledge base", zap.Error(err))
	}
	logger.Info("knowledge base loaded",
		zap.Int("sections", len(kb.Sections())),
		zap.Int("artifacts", len(kb.Artifacts())),
		zap.Int("intents", len(kb.Intents())))

	ctx := context.Background()

	// The event log is optional; the guide works without it.
	var pool *pgxpool.Pool
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")
	}

	app := api.NewApp(pool, kb, sessionConfig(), logger)
	app.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Sessions and the recorder go last so in-flight requests can finish.
	app.Stop()

	logger.Info("server stopped")
}

func sessionConfig() service.SessionConfig {
	return service.SessionConfig{
		HoverDwell:          config.HoverDwell(),
		ScrollDebounce:      config.ScrollDebounce(),
		CaptureInterval:     config.CaptureInterval(),
		IdleTTL:             config.SessionIdleTTL(),
		FlourishProbability: config.FlourishProbability(),
		StrictSignals:       config.TrackerStrict(),
	}
}

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		if lvl, perr := zapcore.ParseLevel(level); perr == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"visionx-backend/internal/config"
	"visionx-backend/internal/database"
	"visionx-backend/internal/logger"
	"visionx-backend/internal/metrics"
	"visionx-backend/internal/server"
	"visionx-backend/internal/vision"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	if cfg.UsesDefaultDSN() {
		logr.Warn("DATABASE_DSN not set, using local default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logr)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Bootstrap(ctx, db, logr); err != nil {
		logr.Fatal("database bootstrap failed", zap.Error(err))
	}

	deps := server.Deps{
		Config:  cfg,
		DB:      db,
		Log:     logr,
		Metrics: metrics.New(),
	}
	gemini, err := vision.NewGeminiAnalyzer(ctx, cfg.Vision, logr)
	switch {
	case err != nil:
		logr.Error("vision analyzer disabled", zap.Error(err))
	case gemini == nil:
		logr.Warn("GEMINI_API_KEY not set, image analysis disabled")
	default:
		deps.Analyzer = gemini
	}

	app := server.New(deps)

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server listening",
			zap.String("port", cfg.Server.HTTPPort),
			zap.String("env", cfg.Server.AppEnv),
			zap.Bool("enforce_roles", cfg.Auth.EnforceRoles),
			zap.String("appointment_transitions", cfg.Features.AppointmentTransitions),
		)
		errCh <- app.Listen(":" + cfg.Server.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logr.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/punchcardlabs/punchcard/internal/api"
	"github.com/punchcardlabs/punchcard/internal/config"
	"github.com/punchcardlabs/punchcard/internal/database"
	"github.com/punchcardlabs/punchcard/internal/liveness"
	"github.com/punchcardlabs/punchcard/internal/provider/rekognition"
	"github.com/punchcardlabs/punchcard/internal/recognizer"
	"github.com/punchcardlabs/punchcard/internal/repository"
	"github.com/punchcardlabs/punchcard/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Punchcard API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database pool
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Repositories
	identityRepo := repository.NewIdentityRepository(pool)
	sampleRepo := repository.NewSampleRepository(pool)
	punchRepo := repository.NewPunchRepository(pool, cfg.Cooldown())
	attemptRepo := repository.NewAttemptRepository(pool)

	// Recognition and liveness
	matcher := recognizer.New(cfg.ConfidenceThreshold, cfg.SeparationMargin)

	var livenessOpts []liveness.Option
	if cfg.EyeProvider == "rekognition" {
		eyes, err := rekognition.NewEyeLandmarker(ctx, rekognition.Config{Region: cfg.AWSRegion})
		if err != nil {
			return fmt.Errorf("failed to initialize eye landmarker: %w", err)
		}
		livenessOpts = append(livenessOpts, liveness.WithEyeLandmarker(eyes))
		logger.Info("blink signal enabled", slog.String("provider", cfg.EyeProvider))
	}
	checker := liveness.NewChecker(cfg.LivenessThreshold, livenessOpts...)

	// Warm the recognition models from stored samples so the service
	// can accept punches immediately after restart
	enrollService := service.NewEnrollService(identityRepo, sampleRepo, matcher, cfg.MinEnrollSamples)
	if err := enrollService.ReloadModels(ctx); err != nil {
		return fmt.Errorf("failed to load recognition models: %w", err)
	}
	logger.Info("recognition models loaded", slog.Bool("ready", matcher.Ready()))

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		IdentityRepo: identityRepo,
		SampleRepo:   sampleRepo,
		PunchRepo:    punchRepo,
		AttemptRepo:  attemptRepo,
		Matcher:      matcher,
		Liveness:     checker,
		Location:     loc,
		Cooldown:     cfg.Cooldown(),
		MinSamples:   cfg.MinEnrollSamples,
		DB:           pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

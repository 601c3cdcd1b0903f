package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediahaul/mediahaul/internal/api"
	"github.com/mediahaul/mediahaul/internal/api/handler"
	"github.com/mediahaul/mediahaul/internal/config"
	"github.com/mediahaul/mediahaul/internal/enumerate"
	"github.com/mediahaul/mediahaul/internal/fetch"
	"github.com/mediahaul/mediahaul/internal/normalize"
	"github.com/mediahaul/mediahaul/internal/notify"
	"github.com/mediahaul/mediahaul/internal/provider"
	"github.com/mediahaul/mediahaul/internal/registry"
	"github.com/mediahaul/mediahaul/internal/repository"
	"github.com/mediahaul/mediahaul/internal/service"
	"github.com/mediahaul/mediahaul/internal/transfer"
	"github.com/mediahaul/mediahaul/internal/worker"
	"github.com/mediahaul/mediahaul/pkg/ffmpeg"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediahaul %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting mediahaul",
		"version", Version,
		"build_time", BuildTime,
	)

	if err := os.MkdirAll(cfg.Pipeline.OutputDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	// Shared provider plumbing
	limiter := provider.NewLimiter(cfg.Providers.RequestDelay)
	client := fetch.NewClient(cfg.Providers)
	client.SetLogger(logger)

	// Adapter table: narrow URL signatures before broad ones. Direct goes
	// last because "ends in a media extension" claims the most.
	table := provider.NewTable(
		provider.NewYouTubeAdapter(limiter, logger),
		provider.NewHLSAdapter(client, limiter, logger),
		provider.NewFeedAdapter(client, cfg.Providers.FeedURLs, limiter, logger),
		provider.NewDirectAdapter(client, limiter, logger),
	)

	// Stores
	jobRepo := repository.NewInMemoryJobRepository()
	sourceRepo, err := repository.NewSQLiteSourceRepository(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open source store", "error", err)
		os.Exit(1)
	}
	defer sourceRepo.Close()

	// Pipeline stages
	reg := registry.NewRegistry(cfg.Pipeline.GraceDelay, logger)
	defer reg.Close()
	normalizer := normalize.NewNormalizer(logger)
	notifier := notify.NewHTTPNotifier(cfg.Notify, logger)

	var tagger transfer.Tagger
	if cfg.Tagger.Enabled {
		ff := ffmpeg.NewTagger(cfg.Tagger.FFmpegPath)
		if ff.Available() {
			tagger = ff
			logger.Info("metadata tagging enabled")
		} else {
			logger.Warn("metadata tagging enabled but ffmpeg not found, tagging disabled")
		}
	}

	executor := transfer.NewExecutor(table, normalizer, reg, notifier, tagger, cfg.Pipeline, logger)
	enumerator := enumerate.NewEnumerator(table, logger)

	svc := service.NewAcquisitionService(
		table,
		enumerator,
		normalizer,
		executor,
		reg,
		limiter,
		jobRepo,
		sourceRepo,
		cfg.Pipeline,
		logger,
	)

	// Handlers and router
	transferHandler := handler.NewTransferHandler(svc, logger)
	jobHandler := handler.NewJobHandler(svc, logger)
	videoHandler := handler.NewVideoHandler(svc, logger)
	sourceHandler := handler.NewSourceHandler(svc, logger)
	healthHandler := handler.NewHealthHandler(jobRepo, cfg.Pipeline.OutputDir, Version)

	router := api.NewRouter(transferHandler, jobHandler, videoHandler, sourceHandler, healthHandler, cfg.Server.APIKey)

	// Worker pool
	pool := worker.NewPool(
		worker.Config{
			Workers:      cfg.Worker.Count,
			PollInterval: cfg.Worker.PollInterval,
		},
		jobRepo,
		svc,
		logger,
	)
	pool.Start()

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop workers (allow in-flight acquisitions to complete)
	if err := pool.Stop(cfg.Worker.StopTimeout); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

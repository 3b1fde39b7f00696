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

	"github.com/MikeSquared-Agency/Sentinel/internal/api"
	"github.com/MikeSquared-Agency/Sentinel/internal/config"
	"github.com/MikeSquared-Agency/Sentinel/internal/events"
	"github.com/MikeSquared-Agency/Sentinel/internal/evidence"
	"github.com/MikeSquared-Agency/Sentinel/internal/models"
	"github.com/MikeSquared-Agency/Sentinel/internal/recommend"
	"github.com/MikeSquared-Agency/Sentinel/internal/risk"
	"github.com/MikeSquared-Agency/Sentinel/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.Level != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err == nil {
			logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var eventsClient events.Client
	if cfg.Events.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to event bus")
		}
	}

	// Model serving
	modelsClient := models.NewHTTPClient(cfg.Models.URL)

	// Risk assessment pipeline
	api.InitMetrics()
	engine := evidence.NewEngine(cfg.Fusion.DynamicUncertainty, logger)
	assessor := risk.NewAssessor(modelsClient, engine, db, eventsClient, api.PromMetrics{}, logger)

	// Recommendation engine over current reference data
	weights := recommend.Weights{
		Content:       cfg.Recommend.Weights.Content,
		Collaborative: cfg.Recommend.Weights.Collaborative,
		Rule:          cfg.Recommend.Weights.Rule,
		Popularity:    cfg.Recommend.Weights.Popularity,
	}
	buildEngine := func(ctx context.Context) (*recommend.Engine, error) {
		courses, err := db.ListCourses(ctx)
		if err != nil {
			return nil, err
		}
		prefs, err := db.ListPreferences(ctx)
		if err != nil {
			return nil, err
		}
		interactions, err := db.ListInteractions(ctx)
		if err != nil {
			return nil, err
		}
		return recommend.NewEngine(courses, prefs, interactions, modelsClient, weights, logger)
	}
	recEngine, err := buildEngine(ctx)
	if err != nil {
		logger.Error("failed to build recommendation engine", "error", err)
		os.Exit(1)
	}
	logger.Info("recommendation engine ready")

	// API server
	predict := api.NewPredictHandler(assessor, db, cfg.Fusion.IncludeExpert)
	recs := api.NewRecommendationsHandler(recEngine, buildEngine, eventsClient)
	router := api.NewRouter(predict, recs, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressbot/pressbot/internal/cache"
	"github.com/pressbot/pressbot/internal/pipeline"
	"github.com/pressbot/pressbot/internal/report"
	"github.com/pressbot/pressbot/internal/stages"
	"github.com/pressbot/pressbot/internal/supervisor"
	"github.com/pressbot/pressbot/pkg/config"
	"github.com/pressbot/pressbot/pkg/logging"
	"github.com/pressbot/pressbot/pkg/metrics"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: "pressbot-pipeline",
		Version:     version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobalLogger(logger)

	m := metrics.NewMetrics(nil)

	sup := supervisor.New(logger, &supervisor.Config{Metrics: m})
	if err := sup.Install(); err != nil {
		logger.Fatal("Failed to install failure supervisor", "error", err.Error())
		os.Exit(1)
	}
	defer sup.Recover("pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fileSink, err := report.NewFileSink(cfg.Pipeline.ReportsDir)
	if err != nil {
		sup.HandleFailure(err)
		os.Exit(1)
	}
	sinks := []pipeline.Sink{fileSink}

	// Postgres and Redis are optional for local runs; the pipeline degrades
	// to file reports and uncached keyword research without them.
	if store, err := report.NewPostgresSink(&cfg.Database); err != nil {
		sup.Warn("Report database unavailable, using file reports only", "error", err.Error())
	} else {
		defer store.Close()
		sinks = append(sinks, store)
	}

	var cacheStore *cache.Service
	if svc, err := cache.New(&cfg.Redis, 6*time.Hour); err != nil {
		sup.Warn("Cache unavailable, keyword research will not be cached", "error", err.Error())
	} else {
		defer svc.Close()
		cacheStore = svc
	}

	stageSet := newStageSet(cfg, cacheStore, m)

	pipe := pipeline.New(cfg.Pipeline.Stages, stageSet.Handlers(), pipeline.Options{
		Sink:           report.NewMultiSink(sinks...),
		Metrics:        m,
		ConfigSnapshot: cfg.Snapshot(),
	})

	logger.Info("Starting pipeline run",
		"site", cfg.Site.Name,
		"stages", len(cfg.Pipeline.Stages),
	)

	runReport, err := pipe.Run(ctx)
	if err != nil {
		sup.HandleFailure(err)
		os.Exit(1)
	}

	logger.Info("Pipeline run completed",
		"run_id", runReport.RunID,
		"outcome", runReport.Outcome,
		"total_duration_ms", runReport.TotalDurationMS,
	)
}

// newStageSet exists so the nil cache stays a nil interface
func newStageSet(cfg *config.Config, cacheStore *cache.Service, m *metrics.Metrics) *stages.Set {
	if cacheStore == nil {
		return stages.New(cfg, nil, m)
	}
	return stages.New(cfg, cacheStore, m)
}

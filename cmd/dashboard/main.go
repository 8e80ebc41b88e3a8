package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressbot/pressbot/internal/api"
	"github.com/pressbot/pressbot/internal/cache"
	"github.com/pressbot/pressbot/internal/report"
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
		ServiceName: "pressbot-dashboard",
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
	defer sup.Recover("dashboard")

	deps := api.Dependencies{
		Metrics: m,
		Logger:  logger,
		Health:  make(map[string]api.HealthChecker),
	}

	store, err := report.NewPostgresSink(&cfg.Database)
	if err != nil {
		sup.Warn("Report database unavailable, report endpoints disabled", "error", err.Error())
	} else {
		defer store.Close()
		deps.Store = store
		deps.Health["database"] = store
	}

	if svc, err := cache.New(&cfg.Redis, time.Hour); err != nil {
		sup.Warn("Cache unavailable", "error", err.Error())
	} else {
		defer svc.Close()
		deps.Health["cache"] = svc
	}

	router := api.NewRouter(cfg, deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Dashboard.Host, cfg.Dashboard.Port),
		Handler:      router,
		ReadTimeout:  cfg.Dashboard.ReadTimeout,
		WriteTimeout: cfg.Dashboard.WriteTimeout,
	}

	sup.Go("http-server", func() error {
		logger.Info("Starting dashboard server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down dashboard server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		sup.HandleFailure(err)
		os.Exit(1)
	}

	logger.Info("Dashboard server exited")
}

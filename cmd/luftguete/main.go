package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/geraldbaeck/luftguete/internal/config"
	"github.com/geraldbaeck/luftguete/internal/database"
	"github.com/geraldbaeck/luftguete/internal/pipeline"
	"github.com/geraldbaeck/luftguete/internal/scheduler"
	"github.com/geraldbaeck/luftguete/internal/source"
	"github.com/geraldbaeck/luftguete/internal/storage"
)

// Command luftguete ingests the City of Vienna air-quality feed.
//
// Each cycle polls the semicolon-delimited Lumes file, skips unchanged
// content via ETag, parses the measurement table into per-station
// datapoints, and persists the raw file and derived dataset to S3 plus
// every datapoint to Postgres.
//
// Usage:
//
//	luftguete [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-once
//	      run a single ingestion cycle and exit
//	-metrics-port int
//	      port for the Prometheus /metrics endpoint (default 9090)
func main() {
	flags := parseFlags()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	appConfig, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(appConfig.Logging)

	loc, err := time.LoadLocation(appConfig.Ingest.Timezone)
	if err != nil {
		logger.Fatalf("Invalid timezone %q: %v", appConfig.Ingest.Timezone, err)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		appConfig.Database.Host,
		appConfig.Database.Port,
		appConfig.Database.User,
		appConfig.Database.Password,
		appConfig.Database.Name,
		appConfig.Database.SSLMode,
	)

	repo, err := database.NewPostgresRepo(connStr)
	if err != nil {
		logger.Fatalf("Failed to create repository: %v", err)
	}

	blobs, err := storage.NewS3Store(appConfig.AWS.Region, appConfig.AWS.Bucket)
	if err != nil {
		logger.Fatalf("Failed to create blob store: %v", err)
	}

	fetcher := source.NewFetcher(source.Config{
		URL:         appConfig.Source.URL,
		UserAgent:   appConfig.Source.UserAgent,
		Timeout:     appConfig.Source.Timeout,
		MinInterval: appConfig.Source.MinInterval,
	}, logger)

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(fetcher, repo, blobs, logger, metrics, pipeline.Options{
		Location:      loc,
		FlushTrailing: appConfig.Ingest.FlushTrailing,
		IDCacheSize:   appConfig.Ingest.IDCacheSize,
	})
	if err != nil {
		logger.Fatalf("Failed to create pipeline: %v", err)
	}

	if flags.Once {
		runOnce(ctx, pipe, repo, logger, appConfig.Ingest.RunTimeout)
		return
	}

	logger.WithFields(logrus.Fields{
		"schedule": appConfig.Ingest.Schedule,
		"source":   appConfig.Source.URL,
	}).Info("Starting ingestion service")

	sched := scheduler.NewScheduler(ctx, pipe, logger, appConfig.Ingest.Schedule, appConfig.Ingest.RunTimeout)

	errChan := make(chan error, 1)

	go func() {
		if err := sched.Start(); err != nil {
			errChan <- fmt.Errorf("scheduler error: %w", err)
		}
	}()

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", flags.MetricsPort),
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	go handleShutdown(ctx, cancel, sched, metricsSrv, repo, logger)

	if err := <-errChan; err != nil {
		logger.Fatalf("Service error: %v", err)
	}
}

type Flags struct {
	ConfigPath  string
	Once        bool
	MetricsPort int
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to config file")
	flag.BoolVar(&flags.Once, "once", false, "run a single ingestion cycle and exit")
	flag.IntVar(&flags.MetricsPort, "metrics-port", 9090, "port for the Prometheus metrics endpoint")

	flag.Parse()

	return flags
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format != "text" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func runOnce(ctx context.Context, pipe *pipeline.Pipeline, repo database.Repository, logger *logrus.Logger, timeout time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer repo.Close()

	res, err := pipe.Run(runCtx)
	if err != nil {
		logger.Fatalf("Ingestion failed: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"outcome":    res.Status.String(),
		"datapoints": res.Count,
	}).Info("Single run complete")
}

// Handle graceful shutdown
func handleShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	sched *scheduler.Scheduler,
	metricsSrv *http.Server,
	repo database.Repository,
	logger *logrus.Logger,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Println("Context canceled, initiating shutdown")
	case sig := <-sigChan:
		logger.Printf("Received signal %v, initiating shutdown", sig)
	}

	logger.Println("Gracefully stopping service...")
	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	repo.Close()
	logger.Println("Service stopped")
	os.Exit(0)
}

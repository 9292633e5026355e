// Package main wires together the website analyzer service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/api"
	"github.com/webanalyzer/webanalyzer/internal/charts"
	"github.com/webanalyzer/webanalyzer/internal/clock/system"
	"github.com/webanalyzer/webanalyzer/internal/config"
	"github.com/webanalyzer/webanalyzer/internal/dispatcher"
	collyfetcher "github.com/webanalyzer/webanalyzer/internal/fetcher/colly"
	headlessfetcher "github.com/webanalyzer/webanalyzer/internal/fetcher/headless"
	"github.com/webanalyzer/webanalyzer/internal/headless/detector"
	"github.com/webanalyzer/webanalyzer/internal/id/uuid"
	"github.com/webanalyzer/webanalyzer/internal/logging"
	"github.com/webanalyzer/webanalyzer/internal/mailer"
	"github.com/webanalyzer/webanalyzer/internal/pdf"
	"github.com/webanalyzer/webanalyzer/internal/progress"
	progresssinks "github.com/webanalyzer/webanalyzer/internal/progress/sinks"
	queuememory "github.com/webanalyzer/webanalyzer/internal/queue/memory"
	localstorage "github.com/webanalyzer/webanalyzer/internal/storage/local"
	memorystorage "github.com/webanalyzer/webanalyzer/internal/storage/memory"
	pgstorage "github.com/webanalyzer/webanalyzer/internal/storage/postgres"
	"github.com/webanalyzer/webanalyzer/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	idGen := uuid.New()

	reportStore, err := localstorage.New(localstorage.Config{BaseDir: cfg.Reports.Dir})
	if err != nil {
		logger.Fatal("report store init failed", zap.Error(err))
	}

	var statusStore analyzer.StatusStore
	switch cfg.Storage.StatusProvider {
	case "postgres":
		pgStore, err := pgstorage.NewStatusStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres status store init failed", zap.Error(err))
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("postgres schema init failed", zap.Error(err))
		}
		statusStore = pgStore
	default:
		statusStore = memorystorage.NewStatusStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promSink, err := progresssinks.NewPrometheusSink(registry)
	if err != nil {
		logger.Fatal("prometheus sink init failed", zap.Error(err))
	}
	hub := progress.NewHub(progress.Config{
		BaseContext: ctx,
		Logger:      logger.Named("progress"),
	},
		progresssinks.NewLogSink(logger.Named("delivery")),
		promSink,
		progresssinks.NewStoreSink(statusStore, logger.Named("status")),
	)

	probeFetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
	})
	detect := detector.NewHeuristic(cfg.Detector.MinHTMLBytes)
	var headless analyzer.Fetcher
	if cfg.Headless.Enabled {
		headlessFetcher, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			defer headlessFetcher.Close()
			headless = headlessFetcher
		}
	}

	queue := queuememory.NewQueue(cfg.Delivery.QueueDepth)
	smtpMailer := mailer.New(cfg.SMTP, logger.Named("mailer"))
	chartRenderer := charts.New()
	pdfBuilder := pdf.New(pdf.Config{LogoPath: cfg.Reports.LogoPath}, logger.Named("pdf"))

	var workers []*worker.Worker
	for i := 0; i < cfg.Delivery.Workers; i++ {
		workers = append(workers, worker.New(
			queue,
			smtpMailer,
			chartRenderer,
			pdfBuilder,
			reportStore,
			clock,
			hub,
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := dispatcher.New(queue, workers)

	apiServer := api.NewServer(api.Deps{
		Probe:       probeFetcher,
		Headless:    headless,
		Detector:    detect,
		Dispatcher:  dispatch,
		ReportStore: reportStore,
		StatusStore: statusStore,
		Emitter:     hub,
		IDGen:       idGen,
		Clock:       clock,
		Logger:      logger.Named("api"),
		Registry:    registry,
	}, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", cfg.Delivery.Workers))
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Error("progress hub shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

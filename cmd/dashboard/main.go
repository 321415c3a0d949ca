package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/gull-survey-dashboard/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/gull-survey-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/gull-survey-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/gull-survey-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/gull-survey-dashboard/internal/config"
	"github.com/couchcryptid/gull-survey-dashboard/internal/dashboard"
	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
	"github.com/couchcryptid/gull-survey-dashboard/internal/observability"
	"github.com/couchcryptid/gull-survey-dashboard/internal/pipeline"
	"github.com/couchcryptid/gull-survey-dashboard/internal/session"
	"github.com/couchcryptid/gull-survey-dashboard/internal/sse"
)

const serviceName = "gull-survey-dashboard"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	ds, err := csvfile.Load(cfg.DataFile)
	if err != nil {
		logger.Error("failed to load survey data", "path", cfg.DataFile, "error", err)
		os.Exit(1)
	}
	logger.Info("survey data loaded", "path", cfg.DataFile, "rows", ds.Len(), "colonies", len(ds.Locations()))

	markers := domain.BuildMarkers(ds)

	// Reverse geocode marker labels (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		metrics.GeocodeEnabled.Set(1)
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder", "error", err)
			os.Exit(1)
		}
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
		markers = domain.LabelMarkers(ctx, markers, geocoder, logger)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Interaction events go to Kafka when enabled, otherwise to the debug log.
	var (
		loader pipeline.BatchLoader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		logger.Info("kafka event sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		loader = pipeline.NewLogSink(logger)
	}

	clock := clockwork.NewRealClock()
	queue := pipeline.NewQueue(cfg.EventQueueSize, cfg.BatchFlushInterval, clock, metrics)
	publisher := pipeline.New(queue, loader, logger, metrics, cfg.BatchSize)

	sessions := session.NewStore(clock, cfg.SessionTTL, cfg.MaxSessions, metrics)
	broker := sse.NewBroker(logger)

	svc := dashboard.New(ds, markers, sessions, queue, broker, metrics, logger)
	svc.AddReadinessCheck(publisher)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, broker, logger)
	srv.SetLogoURL(cfg.LogoURL)

	var wg sync.WaitGroup

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start event publisher.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := publisher.Run(ctx); err != nil {
			logger.Error("event publisher error", "error", err)
		}
	}()

	// Start session sweeper.
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions.Run(ctx, cfg.SessionSweepInterval)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()

	if err := publisher.Flush(shutdownCtx, queue.Drain()); err != nil {
		logger.Error("flush interaction events failed", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

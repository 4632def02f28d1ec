package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/crm-trigger-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crm-trigger-service/internal/adapter/kafka"
	"github.com/couchcryptid/crm-trigger-service/internal/adapter/nominatim"
	"github.com/couchcryptid/crm-trigger-service/internal/adapter/sqlite"
	"github.com/couchcryptid/crm-trigger-service/internal/config"
	"github.com/couchcryptid/crm-trigger-service/internal/dispatcher"
	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/i18n"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	"github.com/couchcryptid/crm-trigger-service/internal/pipeline"
	"github.com/couchcryptid/crm-trigger-service/internal/trigger"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// readiness passes only when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.StorePath)
	if err != nil {
		logger.Error("failed to open host store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	catalog, err := i18n.LoadEmbedded(cfg.DefaultLocale)
	if err != nil {
		logger.Error("failed to load translations", "error", err)
		os.Exit(1)
	}
	logger.Info("translations loaded", "locales", catalog.Locales(), "default", cfg.DefaultLocale)

	// Geocoding is feature-flagged via GEOCODER_ENABLED.
	var geocoder domain.Geocoder
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize, metrics)
		logger.Info("geocoding enabled",
			"base_url", cfg.GeocoderBaseURL,
			"cache_size", cfg.GeocoderCacheSize,
			"timeout", cfg.GeocoderTimeout,
			"forward_referer", cfg.GeocoderForwardReferer,
		)
	} else {
		logger.Info("geocoding disabled")
	}

	reg := dispatcher.NewRegistry()
	if err := trigger.Register(reg, trigger.Deps{
		Contacts:                     store,
		Invoices:                     store,
		Products:                     store,
		Fields:                       store,
		Activities:                   store,
		Geolocations:                 store,
		Translator:                   catalog,
		Geocoder:                     geocoder,
		KitDescriptionOnProposalLine: cfg.KitDescriptionOnProposalLine,
		Logger:                       logger,
		Metrics:                      metrics,
	}); err != nil {
		logger.Error("failed to register triggers", "error", err)
		os.Exit(1)
	}
	disp := dispatcher.New(reg, cfg.ModuleEnabled, logger, metrics)
	logger.Info("triggers registered", "events", reg.Names(), "module_enabled", cfg.ModuleEnabled)

	checks := readiness{store, disp}

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	pipelineDone := make(chan struct{})
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(disp, logger), writer, logger, metrics, cfg.BatchSize)
		checks = append(checks, p)

		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(pipelineDone)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, checks, disp, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

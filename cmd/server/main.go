package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/road-weather-service/internal/adapter/httpapi"
	"github.com/couchcryptid/road-weather-service/internal/adapter/httpclient"
	kafkaadapter "github.com/couchcryptid/road-weather-service/internal/adapter/kafka"
	"github.com/couchcryptid/road-weather-service/internal/adapter/vedur"
	"github.com/couchcryptid/road-weather-service/internal/adapter/vegagerdin"
	"github.com/couchcryptid/road-weather-service/internal/adapter/yr"
	"github.com/couchcryptid/road-weather-service/internal/config"
	"github.com/couchcryptid/road-weather-service/internal/corridor"
	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/observability"
)

const userAgent = "road-weather-service/1.0"

func main() {
	// Local development convenience; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	httpCfg := httpclient.DefaultConfig(cfg.ProviderTimeout)
	uaHeaders := map[string]string{"User-Agent": userAgent}

	vegProvider := vegagerdin.New(cfg.VegagerdinBaseURL,
		httpclient.New("vegagerdin", httpCfg, nil),
		cfg.VegagerdinTTL, nil, logger, metrics)
	vedurProvider := vedur.New(cfg.VedurBaseURL,
		httpclient.New("vedur", httpCfg, uaHeaders),
		cfg.VedurTTL, nil, logger, metrics)
	alertClient := vedur.NewAlertClient(cfg.VedurBaseURL,
		httpclient.New("vedur_cap", httpCfg, uaHeaders),
		cfg.AlertsTTL, nil, logger, metrics)
	forecastProvider := yr.New(cfg.ForecastBaseURL,
		httpclient.New("yr", httpCfg, uaHeaders),
		cfg.ForecastTTL, nil, logger, metrics)

	svc := corridor.New(
		[]domain.StationProvider{vegProvider, vedurProvider},
		alertClient,
		forecastProvider,
		cfg.CorridorBufferM,
		cfg.ProviderTimeout,
		nil, logger, metrics,
	)

	// Snapshot publishing is feature-flagged via KAFKA_ENABLED.
	var resolver httpapi.Resolver = svc
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger, metrics)
		resolver = kafkaadapter.NewPublishingResolver(svc, publisher, logger)
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

package vedur

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/road-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/road-weather-service/internal/adapter/ttlcache"
	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/observability"
)

const alertsProviderName = "vedur_cap"

// capAlert mirrors one alert object of the CAP feed.
type capAlert struct {
	Severity    string `json:"severity"`
	EventType   string `json:"eventType"`
	Description string `json:"description"`
	Headline    string `json:"headline"`
}

// AlertClient implements domain.AlertProvider against the met office CAP
// endpoint. Alerts are regional, so entries are cached per coordinate.
// Alerts are advisory: any failure degrades to "no alerts" rather than
// propagating an error into the resolution.
type AlertClient struct {
	client  *httpclient.Client
	baseURL string
	cache   *ttlcache.Cache[[]domain.Alert]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAlertClient creates the CAP client. Pass a nil clock for real time.
func NewAlertClient(baseURL string, client *httpclient.Client, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *AlertClient {
	return &AlertClient{
		client:  client,
		baseURL: baseURL,
		cache:   ttlcache.New[[]domain.Alert](ttl, clock),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchAlerts returns active alerts within 30 km of the location.
func (c *AlertClient) FetchAlerts(ctx context.Context, location domain.Point) ([]domain.Alert, error) {
	key := fmt.Sprintf("%.4f,%.4f", location.Lat, location.Lon)

	alerts, result, err := c.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]domain.Alert, error) {
		return c.fetch(ctx, location)
	})
	c.metrics.CacheLookups.WithLabelValues(alertsProviderName, string(result)).Inc()
	if err != nil {
		c.logger.Warn("alert fetch failed, treating as no alerts", "provider", alertsProviderName, "location", key, "error", err)
		return []domain.Alert{}, nil
	}
	return alerts, nil
}

func (c *AlertClient) fetch(ctx context.Context, location domain.Point) ([]domain.Alert, error) {
	url := fmt.Sprintf("%s/cap/v1/lat/%v/long/%v/srid/4326/distance/30/", c.baseURL, location.Lat, location.Lon)

	start := time.Now()
	body, err := c.client.Get(ctx, url)
	c.metrics.ProviderDuration.WithLabelValues(alertsProviderName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderFetches.WithLabelValues(alertsProviderName, "error").Inc()
		return nil, err
	}

	var raw []capAlert
	if err := json.Unmarshal(body, &raw); err != nil {
		c.metrics.ProviderFetches.WithLabelValues(alertsProviderName, "error").Inc()
		return nil, fmt.Errorf("decode alerts payload: %w", err)
	}
	c.metrics.ProviderFetches.WithLabelValues(alertsProviderName, "success").Inc()

	alerts := make([]domain.Alert, 0, len(raw))
	for _, a := range raw {
		alerts = append(alerts, domain.Alert{
			Severity:    a.Severity,
			EventType:   a.EventType,
			Description: a.Description,
			Headline:    a.Headline,
		})
	}
	return alerts, nil
}

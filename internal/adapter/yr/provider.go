// Package yr adapts the MET Norway locationforecast API for route-level
// forecasts. One request per coordinate, cached for an hour; the API asks
// heavy users to identify themselves, so the client carries a User-Agent.
package yr

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

const (
	providerName = "yr"
	forecastPath = "/weatherapi/locationforecast/2.0/compact"
)

// forecastDoc mirrors the subset of the locationforecast payload the
// pipeline consumes.
type forecastDoc struct {
	Properties struct {
		Timeseries []timeStep `json:"timeseries"`
	} `json:"properties"`
}

type timeStep struct {
	Time time.Time `json:"time"`
	Data struct {
		Instant struct {
			Details struct {
				AirTemperature *float64 `json:"air_temperature"`
				WindSpeed      *float64 `json:"wind_speed"`
			} `json:"details"`
		} `json:"instant"`
		Next1Hours *struct {
			Details struct {
				PrecipitationAmount *float64 `json:"precipitation_amount"`
			} `json:"details"`
		} `json:"next_1_hours"`
	} `json:"data"`
}

// Provider implements domain.ForecastProvider against the locationforecast
// endpoint, caching one document per coordinate.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	cache   *ttlcache.Cache[forecastDoc]
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates the provider. Pass a nil clock for real time.
func New(baseURL string, client *httpclient.Client, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Provider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Provider{
		client:  client,
		baseURL: baseURL,
		cache:   ttlcache.New[forecastDoc](ttl, clock),
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchForecasts returns future forecast points for every station
// coordinate. A failed fetch for one coordinate skips that station rather
// than failing the whole set; forecasts are advisory.
func (p *Provider) FetchForecasts(ctx context.Context, stations []domain.Station) ([]domain.ForecastPoint, error) {
	now := p.clock.Now()
	var points []domain.ForecastPoint

	for _, s := range stations {
		loc := s.Location
		key := fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lon)

		doc, result, err := p.cache.GetOrFetch(ctx, key, func(ctx context.Context) (forecastDoc, error) {
			return p.fetch(ctx, loc)
		})
		p.metrics.CacheLookups.WithLabelValues(providerName, string(result)).Inc()
		if err != nil {
			p.logger.Warn("forecast fetch failed, skipping station", "provider", providerName, "station_id", s.ID, "error", err)
			continue
		}

		for _, step := range doc.Properties.Timeseries {
			if step.Time.Before(now) {
				continue
			}
			fp := domain.ForecastPoint{
				Time:     step.Time,
				Location: loc,
				TempC:    step.Data.Instant.Details.AirTemperature,
				WindMS:   step.Data.Instant.Details.WindSpeed,
			}
			if step.Data.Next1Hours != nil {
				fp.PrecipMM = step.Data.Next1Hours.Details.PrecipitationAmount
			}
			points = append(points, fp)
		}
	}
	return points, nil
}

func (p *Provider) fetch(ctx context.Context, loc domain.Point) (forecastDoc, error) {
	url := fmt.Sprintf("%s%s?lat=%v&lon=%v", p.baseURL, forecastPath, loc.Lat, loc.Lon)

	start := time.Now()
	body, err := p.client.Get(ctx, url)
	p.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.ProviderFetches.WithLabelValues(providerName, "error").Inc()
		return forecastDoc{}, err
	}

	var doc forecastDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		p.metrics.ProviderFetches.WithLabelValues(providerName, "error").Inc()
		return forecastDoc{}, fmt.Errorf("decode forecast payload: %w", err)
	}
	p.metrics.ProviderFetches.WithLabelValues(providerName, "success").Inc()
	return doc, nil
}

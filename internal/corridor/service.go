// Package corridor implements corridor resolution: which stations can speak
// for a route, what they observed, and which hazards that implies.
package corridor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/observability"
)

// Resolution is the full result of resolving one route request.
type Resolution struct {
	Route        domain.Route           `json:"route"`
	Window       domain.TimeWindow      `json:"window"`
	Stations     []domain.Station       `json:"stations"`
	Observations []domain.Observation   `json:"observations"`
	Facts        []domain.StationFacts  `json:"facts"`
	Forecasts    []domain.ForecastPoint `json:"forecasts,omitempty"`
	Hazards      []string               `json:"hazards"`
}

// Service wires the station providers, the alert feed, and the forecast feed
// into the resolution pipeline. Providers degrade independently: one failing
// upstream costs its stations' observations, never the whole resolution.
type Service struct {
	providers map[domain.ProviderKind]domain.StationProvider
	alerts    domain.AlertProvider    // nil disables alert enrichment
	forecasts domain.ForecastProvider // nil disables forecasts

	bufferM     float64
	callTimeout time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates the service. alerts and forecasts may be nil. Pass a nil clock
// for real time.
func New(providers []domain.StationProvider, alerts domain.AlertProvider, forecasts domain.ForecastProvider,
	bufferM float64, callTimeout time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	byKind := make(map[domain.ProviderKind]domain.StationProvider, len(providers))
	for _, p := range providers {
		byKind[p.Kind()] = p
	}
	return &Service{
		providers:   byKind,
		alerts:      alerts,
		forecasts:   forecasts,
		bufferM:     bufferM,
		callTimeout: callTimeout,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// ObservationWindow returns the default lookback window anchored at the
// service clock.
func (s *Service) ObservationWindow() domain.TimeWindow {
	return domain.ObservationWindow(s.clock.Now())
}

// Resolve runs the pipeline for one route and window: merge provider
// catalogs, keep the stations inside the corridor buffer, fan out
// observation and alert fetches, reduce to per-station facts, and classify
// hazards. The only error returned is context cancellation.
func (s *Service) Resolve(ctx context.Context, route domain.Route, window domain.TimeWindow) (*Resolution, error) {
	s.metrics.Resolutions.Inc()

	var catalog []domain.Station
	for _, p := range s.providers {
		catalog = append(catalog, p.ListStations()...)
	}

	stations := domain.FilterByBuffer(catalog, route, s.bufferM)
	s.metrics.CorridorSize.Observe(float64(len(stations)))
	s.logger.Info("corridor resolved",
		"catalog_size", len(catalog),
		"corridor_size", len(stations),
		"window_from", window.From,
		"window_to", window.To,
	)

	observations := s.fetchObservations(ctx, stations, window)
	alertsByStation := s.fetchAlerts(ctx, stations)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts := domain.ReduceObservations(observations, stations, alertsByStation)
	hazards := domain.DetectHazards(facts)
	s.metrics.HazardsDetected.Add(float64(len(hazards) - 1))

	res := &Resolution{
		Route:        route,
		Window:       window,
		Stations:     stations,
		Observations: observations,
		Facts:        facts,
		Hazards:      hazards,
	}

	if s.forecasts != nil {
		fctx, cancel := context.WithTimeout(ctx, s.callTimeout)
		points, err := s.forecasts.FetchForecasts(fctx, stations)
		cancel()
		if err != nil {
			s.logger.Warn("forecast enrichment failed", "error", err)
		} else {
			res.Forecasts = points
		}
	}

	return res, nil
}

// fetchObservations fans out one fetch per corridor station. Observations
// come back in nondeterministic order; the reducer groups by station, so
// order does not matter downstream.
func (s *Service) fetchObservations(ctx context.Context, stations []domain.Station, window domain.TimeWindow) []domain.Observation {
	var (
		mu           sync.Mutex
		wg           sync.WaitGroup
		observations []domain.Observation
	)

	for _, station := range stations {
		provider, ok := s.providers[station.Kind]
		if !ok {
			s.logger.Warn("no provider for station kind", "station_id", station.ID, "kind", station.Kind)
			continue
		}

		wg.Add(1)
		go func(station domain.Station, provider domain.StationProvider) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
			defer cancel()

			obs, err := provider.FetchObservations(cctx, station.ID, window.From, window.To)
			if err != nil {
				s.metrics.ProviderFetches.WithLabelValues(string(station.Kind), "degraded").Inc()
				s.logger.Warn("observation fetch failed, station degrades to no data",
					"station_id", station.ID, "kind", station.Kind, "error", err)
				return
			}

			mu.Lock()
			observations = append(observations, obs...)
			mu.Unlock()
		}(station, provider)
	}

	wg.Wait()
	return observations
}

func (s *Service) fetchAlerts(ctx context.Context, stations []domain.Station) map[string][]domain.Alert {
	if s.alerts == nil {
		return nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	out := make(map[string][]domain.Alert, len(stations))

	for _, station := range stations {
		wg.Add(1)
		go func(station domain.Station) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
			defer cancel()

			alerts, err := s.alerts.FetchAlerts(cctx, station.Location)
			if err != nil {
				s.logger.Warn("alert fetch failed", "station_id", station.ID, "error", err)
				return
			}

			mu.Lock()
			out[station.ID] = alerts
			mu.Unlock()
		}(station)
	}

	wg.Wait()
	return out
}

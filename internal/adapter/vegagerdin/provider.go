// Package vegagerdin adapts the Icelandic road authority road-weather feed.
// The upstream endpoint returns every station in one JSON array, so the
// adapter fetches in bulk under a single cache key and filters per station.
package vegagerdin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/road-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/road-weather-service/internal/adapter/ttlcache"
	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/observability"
)

const (
	providerName = "vegagerdin"
	feedPath     = "/api/vedur2014_1"
	bulkKey      = "vedur2014"

	// Feed timestamps are local Iceland time, e.g. "4.11.2025 21:50:00".
	timestampLayout = "2.1.2006 15:04:05"
)

// Iceland observes UTC year-round, so the fallback changes nothing even on
// systems without tzdata.
var reykjavik = func() *time.Location {
	loc, err := time.LoadLocation("Atlantic/Reykjavik")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// item mirrors one record of the upstream JSON array. Only the fields the
// pipeline consumes are mapped; the feed carries more.
type item struct {
	Dags         string   `json:"Dags"`
	Hiti         *float64 `json:"Hiti"`
	Vindhradi    *float64 `json:"Vindhradi"`
	Vindhvida    *float64 `json:"Vindhvida"`
	Nafn         string   `json:"Nafn"`
	Nr           *int     `json:"Nr"`
	NrVedurstofa *int     `json:"Nr_Vedurstofa"`
}

// Provider implements domain.StationProvider for the road authority feed.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	cache   *ttlcache.Cache[[]item]
	logger  *slog.Logger
	metrics *observability.Metrics

	registry []domain.Station
}

// New creates the provider. Pass a nil clock for real time; tests inject a
// fake to step the cache through expiry.
func New(baseURL string, client *httpclient.Client, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Provider {
	return &Provider{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		cache:    ttlcache.New[[]item](ttl, clock),
		logger:   logger,
		metrics:  metrics,
		registry: registry(),
	}
}

// Kind implements domain.StationProvider.
func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderVegagerdin
}

// ListStations returns the static catalog of road-authority stations along
// the west coast corridor.
func (p *Provider) ListStations() []domain.Station {
	out := make([]domain.Station, len(p.registry))
	copy(out, p.registry)
	return out
}

// FetchObservations returns the station's readings inside [from, to). A
// station ID without a numeric suffix yields an empty slice, not an error;
// the caller treats it the same as a station with no recent data.
func (p *Provider) FetchObservations(ctx context.Context, stationID string, from, to time.Time) ([]domain.Observation, error) {
	nrWanted, ok := parseStationNr(stationID)
	if !ok {
		return []domain.Observation{}, nil
	}

	items, result, err := p.cache.GetOrFetch(ctx, bulkKey, p.fetchBulk)
	p.metrics.CacheLookups.WithLabelValues(providerName, string(result)).Inc()
	if err != nil {
		return nil, fmt.Errorf("fetch road-weather feed: %w", err)
	}
	if result == ttlcache.ResultStale {
		p.logger.Warn("serving stale road-weather feed", "provider", providerName, "station_id", stationID)
	}

	obs := make([]domain.Observation, 0, 4)
	for _, it := range items {
		if it.NrVedurstofa == nil || *it.NrVedurstofa != nrWanted {
			continue
		}
		o, err := toObservation(stationID, it)
		if err != nil {
			p.metrics.RecordsDropped.WithLabelValues(providerName).Inc()
			p.logger.Debug("dropping malformed record", "provider", providerName, "station", it.Nafn, "error", err)
			continue
		}
		if o.Timestamp.Before(from) || !o.Timestamp.Before(to) {
			continue
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func (p *Provider) fetchBulk(ctx context.Context) ([]item, error) {
	start := time.Now()
	body, err := p.client.Get(ctx, p.baseURL+feedPath)
	p.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.ProviderFetches.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}

	var items []item
	if err := json.Unmarshal(body, &items); err != nil {
		p.metrics.ProviderFetches.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}
	p.metrics.ProviderFetches.WithLabelValues(providerName, "success").Inc()
	return items, nil
}

func toObservation(stationID string, it item) (domain.Observation, error) {
	local, err := time.ParseInLocation(timestampLayout, it.Dags, reykjavik)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse timestamp %q: %w", it.Dags, err)
	}
	return domain.Observation{
		StationID: stationID,
		Timestamp: local.UTC(),
		TempC:     it.Hiti,
		WindMS:    it.Vindhradi,
		GustMS:    it.Vindhvida,
		// The feed reports no visibility or precipitation type.
	}, nil
}

func parseStationNr(stationID string) (int, bool) {
	s := strings.TrimPrefix(stationID, "veg:")
	nr, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return nr, true
}

func registry() []domain.Station {
	return []domain.Station{
		{ID: "veg:31674", Name: "HFNFJ (Hafnarfjall)", Location: domain.Point{Lat: 64.4755, Lon: -21.9603}, Kind: domain.ProviderVegagerdin},
		{ID: "veg:31985", Name: "BRATT (Brattabrekka)", Location: domain.Point{Lat: 64.8716, Lon: -21.5155}, Kind: domain.ProviderVegagerdin},
		{ID: "veg:32377", Name: "THROS (Þröskuldar)", Location: domain.Point{Lat: 65.5524, Lon: -21.833}, Kind: domain.ProviderVegagerdin},
		{ID: "veg:32474", Name: "STEHE (Steingrímsfjarðarheiði)", Location: domain.Point{Lat: 65.7503, Lon: -22.1291}, Kind: domain.ProviderVegagerdin},
		{ID: "veg:32654", Name: "OGURI (Ögur)", Location: domain.Point{Lat: 66.0449, Lon: -22.6817}, Kind: domain.ProviderVegagerdin},
	}
}

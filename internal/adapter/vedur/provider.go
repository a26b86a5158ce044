// Package vedur adapts the Icelandic met office APIs: the AWS station
// observation feed (XML) and the CAP alert feed (JSON). Both sit behind the
// same host and require a User-Agent header.
package vedur

import (
	"context"
	"encoding/xml"
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
	providerName = "vedur"
	obsPath      = "/weather/observations/aws/10min/latest"

	// Feed timestamps are local ISO without a zone, e.g. "2025-11-05T21:40:00".
	timestampLayout = "2006-01-02T15:04:05"
)

var reykjavik = func() *time.Location {
	loc, err := time.LoadLocation("Atlantic/Reykjavik")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// feed mirrors the XML payload of the AWS endpoint.
type feed struct {
	XMLName  xml.Name      `xml:"observations"`
	Stations []stationNode `xml:"station"`
}

type stationNode struct {
	ID  string    `xml:"id,attr"`
	Obs []obsNode `xml:"obs"`
}

type obsNode struct {
	Time   string   `xml:"time,attr"`
	T      *float64 `xml:"t,attr"`      // temperature °C
	F      *float64 `xml:"f,attr"`      // mean wind m/s
	Fg     *float64 `xml:"fg,attr"`     // gust m/s
	Vis    *float64 `xml:"vis,attr"`    // visibility m
	Precip string   `xml:"precip,attr"` // precipitation code, may be empty
}

// Provider implements domain.StationProvider for the met office AWS feed.
// The endpoint serves one station per request, so entries are cached under
// per-station keys.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	cache   *ttlcache.Cache[[]obsNode]
	logger  *slog.Logger
	metrics *observability.Metrics

	registry []domain.Station
}

// New creates the provider. Pass a nil clock for real time.
func New(baseURL string, client *httpclient.Client, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Provider {
	return &Provider{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		cache:    ttlcache.New[[]obsNode](ttl, clock),
		logger:   logger,
		metrics:  metrics,
		registry: registry(),
	}
}

// Kind implements domain.StationProvider.
func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderVedur
}

// ListStations returns the static catalog of met office AWS stations along
// the corridor.
func (p *Provider) ListStations() []domain.Station {
	out := make([]domain.Station, len(p.registry))
	copy(out, p.registry)
	return out
}

// FetchObservations returns the station's readings inside [from, to). A
// station ID without a numeric suffix yields an empty slice.
func (p *Provider) FetchObservations(ctx context.Context, stationID string, from, to time.Time) ([]domain.Observation, error) {
	nr, ok := parseStationNr(stationID)
	if !ok {
		return []domain.Observation{}, nil
	}

	nodes, result, err := p.cache.GetOrFetch(ctx, nr, func(ctx context.Context) ([]obsNode, error) {
		return p.fetchStation(ctx, nr)
	})
	p.metrics.CacheLookups.WithLabelValues(providerName, string(result)).Inc()
	if err != nil {
		return nil, fmt.Errorf("fetch station %s observations: %w", stationID, err)
	}
	if result == ttlcache.ResultStale {
		p.logger.Warn("serving stale station observations", "provider", providerName, "station_id", stationID)
	}

	obs := make([]domain.Observation, 0, len(nodes))
	for _, n := range nodes {
		o, err := toObservation(stationID, n)
		if err != nil {
			p.metrics.RecordsDropped.WithLabelValues(providerName).Inc()
			p.logger.Debug("dropping malformed record", "provider", providerName, "station_id", stationID, "error", err)
			continue
		}
		if o.Timestamp.Before(from) || !o.Timestamp.Before(to) {
			continue
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func (p *Provider) fetchStation(ctx context.Context, nr string) ([]obsNode, error) {
	start := time.Now()
	body, err := p.client.Get(ctx, p.baseURL+obsPath+"?station_id="+nr)
	p.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.ProviderFetches.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		p.metrics.ProviderFetches.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("decode observations payload: %w", err)
	}
	p.metrics.ProviderFetches.WithLabelValues(providerName, "success").Inc()

	var nodes []obsNode
	for _, s := range f.Stations {
		if s.ID == nr {
			nodes = append(nodes, s.Obs...)
		}
	}
	return nodes, nil
}

func toObservation(stationID string, n obsNode) (domain.Observation, error) {
	local, err := time.ParseInLocation(timestampLayout, n.Time, reykjavik)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse timestamp %q: %w", n.Time, err)
	}
	return domain.Observation{
		StationID:   stationID,
		Timestamp:   local.UTC(),
		TempC:       n.T,
		WindMS:      n.F,
		GustMS:      n.Fg,
		VisibilityM: n.Vis,
		PrecipType:  n.Precip,
	}, nil
}

func parseStationNr(stationID string) (string, bool) {
	s := strings.TrimPrefix(stationID, "imo:")
	if _, err := strconv.Atoi(s); err != nil {
		return "", false
	}
	return s, true
}

func registry() []domain.Station {
	return []domain.Station{
		{ID: "imo:1475", Name: "vedur.is Reykjavík, Faxaflói", Location: domain.Point{Lat: 64.1275, Lon: -21.902}, Kind: domain.ProviderVedur},
		{ID: "imo:2481", Name: "vedur.is Hólmavík", Location: domain.Point{Lat: 65.6873, Lon: -21.6813}, Kind: domain.ProviderVedur},
		{ID: "imo:2642", Name: "vedur.is Ísafjörður", Location: domain.Point{Lat: 66.0596, Lon: -23.1699}, Kind: domain.ProviderVedur},
	}
}

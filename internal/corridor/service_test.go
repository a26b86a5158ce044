package corridor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/observability"
)

// testRoute runs one degree north along the zero meridian, about 111 km.
var testRoute = domain.Route{
	{Lon: 0, Lat: 64.0},
	{Lon: 0, Lat: 65.0},
}

type fakeProvider struct {
	kind     domain.ProviderKind
	stations []domain.Station
	obs      map[string][]domain.Observation
	err      error

	mu      sync.Mutex
	fetched []string
}

func (f *fakeProvider) Kind() domain.ProviderKind      { return f.kind }
func (f *fakeProvider) ListStations() []domain.Station { return f.stations }

func (f *fakeProvider) FetchObservations(_ context.Context, stationID string, _, _ time.Time) ([]domain.Observation, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, stationID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.obs[stationID], nil
}

type fakeAlerts struct {
	alerts []domain.Alert
}

func (f *fakeAlerts) FetchAlerts(context.Context, domain.Point) ([]domain.Alert, error) {
	return f.alerts, nil
}

type fakeForecasts struct {
	points []domain.ForecastPoint
	err    error
}

func (f *fakeForecasts) FetchForecasts(context.Context, []domain.Station) ([]domain.ForecastPoint, error) {
	return f.points, f.err
}

func f(v float64) *float64 { return &v }

func obsAt(stationID string, ts time.Time, wind, gust float64) domain.Observation {
	return domain.Observation{StationID: stationID, Timestamp: ts, WindMS: f(wind), GustMS: f(gust)}
}

func newService(t *testing.T, providers []domain.StationProvider, alerts domain.AlertProvider, forecasts domain.ForecastProvider) *Service {
	t.Helper()
	return New(providers, alerts, forecasts, 5000, time.Second,
		clockwork.NewFakeClock(), slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
}

func testWindow() domain.TimeWindow {
	from := time.Date(2025, 11, 4, 20, 0, 0, 0, time.UTC)
	return domain.TimeWindow{From: from, To: from.Add(2 * time.Hour)}
}

func TestResolve_MergesCatalogsAndFiltersCorridor(t *testing.T) {
	ts := time.Date(2025, 11, 4, 21, 0, 0, 0, time.UTC)
	pA := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
			{ID: "veg:2", Name: "Far inland", Location: domain.Point{Lon: 2.0, Lat: 64.5}, Kind: domain.ProviderVegagerdin},
		},
		obs: map[string][]domain.Observation{
			"veg:1": {obsAt("veg:1", ts, 12, 15)},
		},
	}
	pB := &fakeProvider{
		kind: domain.ProviderVedur,
		stations: []domain.Station{
			{ID: "imo:1", Name: "North", Location: domain.Point{Lon: 0, Lat: 64.8}, Kind: domain.ProviderVedur},
		},
		obs: map[string][]domain.Observation{
			"imo:1": {obsAt("imo:1", ts, 10, 14)},
		},
	}

	svc := newService(t, []domain.StationProvider{pA, pB}, nil, nil)

	res, err := svc.Resolve(context.Background(), testRoute, testWindow())
	require.NoError(t, err)

	require.Len(t, res.Stations, 2, "the station 2 degrees east is outside the buffer")
	assert.Equal(t, "veg:1", res.Stations[0].ID, "corridor order follows route progress")
	assert.Equal(t, "imo:1", res.Stations[1].ID)

	assert.Len(t, res.Observations, 2)
	require.Len(t, res.Facts, 2)
	assert.Equal(t, "veg:1", res.Facts[0].StationID)

	require.NotEmpty(t, res.Hazards)
	assert.Contains(t, res.Hazards[0], "Official Weather Warnings")
	assert.Len(t, res.Hazards, 1, "calm conditions produce only the header")
}

func TestResolve_ProviderFailureDegradesStation(t *testing.T) {
	ts := time.Date(2025, 11, 4, 21, 0, 0, 0, time.UTC)
	healthy := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
		},
		obs: map[string][]domain.Observation{
			"veg:1": {obsAt("veg:1", ts, 25, 31)},
		},
	}
	broken := &fakeProvider{
		kind: domain.ProviderVedur,
		stations: []domain.Station{
			{ID: "imo:1", Name: "North", Location: domain.Point{Lon: 0, Lat: 64.8}, Kind: domain.ProviderVedur},
		},
		err: errors.New("upstream down"),
	}

	svc := newService(t, []domain.StationProvider{healthy, broken}, nil, nil)

	res, err := svc.Resolve(context.Background(), testRoute, testWindow())
	require.NoError(t, err, "one failing provider must not fail the resolution")

	require.Len(t, res.Facts, 2, "the degraded station still gets a facts record")
	var degraded domain.StationFacts
	for _, facts := range res.Facts {
		if facts.StationID == "imo:1" {
			degraded = facts
		}
	}
	assert.Nil(t, degraded.MaxWindMS)
	assert.Nil(t, degraded.MinTempC)

	// The healthy station's level 2 wind and strong gusts still classify.
	assert.Contains(t, res.Hazards, "Warning Level 2: Wind 25.0 m/s at South - Reduce speed significantly")
	assert.Contains(t, res.Hazards, "Strong gusts 31.0 m/s at South")
}

func TestResolve_StationWithoutProviderSkipped(t *testing.T) {
	p := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
			{ID: "x:1", Name: "Orphan", Location: domain.Point{Lon: 0, Lat: 64.5}, Kind: domain.ProviderKind("unknown")},
		},
		obs: map[string][]domain.Observation{},
	}

	svc := newService(t, []domain.StationProvider{p}, nil, nil)

	res, err := svc.Resolve(context.Background(), testRoute, testWindow())
	require.NoError(t, err)

	assert.Len(t, res.Stations, 2)
	assert.Equal(t, []string{"veg:1"}, p.fetched, "no fetch is attempted for the orphan kind")
	assert.Len(t, res.Facts, 2, "the orphan still appears in the facts")
}

func TestResolve_AlertsAttachedToFacts(t *testing.T) {
	p := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
		},
		obs: map[string][]domain.Observation{},
	}
	alerts := &fakeAlerts{alerts: []domain.Alert{{Severity: "Severe", EventType: "Wind", Headline: "Storm"}}}

	svc := newService(t, []domain.StationProvider{p}, alerts, nil)

	res, err := svc.Resolve(context.Background(), testRoute, testWindow())
	require.NoError(t, err)

	require.Len(t, res.Facts, 1)
	require.Len(t, res.Facts[0].Alerts, 1)
	assert.Equal(t, "Storm", res.Facts[0].Alerts[0].Headline)
}

func TestResolve_ForecastsAttached(t *testing.T) {
	p := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
		},
		obs: map[string][]domain.Observation{},
	}
	fc := &fakeForecasts{points: []domain.ForecastPoint{
		{Time: time.Date(2025, 11, 4, 22, 0, 0, 0, time.UTC), Location: domain.Point{Lon: 0, Lat: 64.2}, TempC: f(-1)},
	}}

	svc := newService(t, []domain.StationProvider{p}, nil, fc)

	res, err := svc.Resolve(context.Background(), testRoute, testWindow())
	require.NoError(t, err)
	require.Len(t, res.Forecasts, 1)
}

func TestResolve_ForecastFailureTolerated(t *testing.T) {
	p := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
		},
		obs: map[string][]domain.Observation{},
	}
	fc := &fakeForecasts{err: errors.New("met.no down")}

	svc := newService(t, []domain.StationProvider{p}, nil, fc)

	res, err := svc.Resolve(context.Background(), testRoute, testWindow())
	require.NoError(t, err)
	assert.Empty(t, res.Forecasts)
}

func TestResolve_DegenerateRoute(t *testing.T) {
	p := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
		},
	}

	svc := newService(t, []domain.StationProvider{p}, nil, nil)

	res, err := svc.Resolve(context.Background(), domain.Route{{Lon: 0, Lat: 64}}, testWindow())
	require.NoError(t, err)
	assert.Empty(t, res.Stations)
	assert.Empty(t, res.Facts)
	assert.Equal(t, []string{"Official Weather Warnings (Icelandic Road Safety Office):"}, res.Hazards)
}

func TestResolve_ContextCancelled(t *testing.T) {
	p := &fakeProvider{
		kind: domain.ProviderVegagerdin,
		stations: []domain.Station{
			{ID: "veg:1", Name: "South", Location: domain.Point{Lon: 0, Lat: 64.2}, Kind: domain.ProviderVegagerdin},
		},
		obs: map[string][]domain.Observation{},
	}

	svc := newService(t, []domain.StationProvider{p}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Resolve(ctx, testRoute, testWindow())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

package yr

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/road-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/observability"
)

const forecastPayload = `{
	"properties": {
		"timeseries": [
			{"time": "2025-11-04T20:00:00Z",
			 "data": {"instant": {"details": {"air_temperature": -0.5, "wind_speed": 12.0}},
			          "next_1_hours": {"details": {"precipitation_amount": 0.4}}}},
			{"time": "2025-11-04T22:00:00Z",
			 "data": {"instant": {"details": {"air_temperature": -1.0, "wind_speed": 14.0}},
			          "next_1_hours": {"details": {"precipitation_amount": 1.2}}}},
			{"time": "2025-11-04T23:00:00Z",
			 "data": {"instant": {"details": {"air_temperature": -1.5, "wind_speed": 16.0}}}}
		]
	}
}`

var testStations = []domain.Station{
	{ID: "veg:31674", Name: "HFNFJ (Hafnarfjall)", Location: domain.Point{Lat: 64.4755, Lon: -21.9603}, Kind: domain.ProviderVegagerdin},
}

func newTestProvider(t *testing.T, srvURL string, clock clockwork.Clock) *Provider {
	t.Helper()
	client := httpclient.New(providerName, httpclient.Config{
		Timeout:         2 * time.Second,
		MaxRetries:      0,
		InitialInterval: time.Millisecond,
	}, map[string]string{"User-Agent": "road-weather-service/1.0"})
	return New(srvURL, client, time.Hour, clock,
		slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
}

func fakeClockAt(t *testing.T, at time.Time) *clockwork.FakeClock {
	t.Helper()
	return clockwork.NewFakeClockAt(at)
}

func TestFetchForecasts_FutureStepsOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, forecastPath, r.URL.Path)
		assert.Equal(t, "64.4755", r.URL.Query().Get("lat"))
		assert.Equal(t, "-21.9603", r.URL.Query().Get("lon"))
		w.Write([]byte(forecastPayload)) //nolint:errcheck
	}))
	defer srv.Close()

	// 21:00 sits between the first and second steps; the 20:00 step is past.
	clock := fakeClockAt(t, time.Date(2025, 11, 4, 21, 0, 0, 0, time.UTC))
	p := newTestProvider(t, srv.URL, clock)

	points, err := p.FetchForecasts(context.Background(), testStations)
	require.NoError(t, err)
	require.Len(t, points, 2)

	first := points[0]
	assert.Equal(t, time.Date(2025, 11, 4, 22, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, testStations[0].Location, first.Location)
	require.NotNil(t, first.TempC)
	assert.InDelta(t, -1.0, *first.TempC, 1e-9)
	require.NotNil(t, first.WindMS)
	assert.InDelta(t, 14.0, *first.WindMS, 1e-9)
	require.NotNil(t, first.PrecipMM)
	assert.InDelta(t, 1.2, *first.PrecipMM, 1e-9)

	assert.Nil(t, points[1].PrecipMM, "step without next_1_hours has no precip amount")
}

func TestFetchForecasts_CachedPerCoordinate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(forecastPayload)) //nolint:errcheck
	}))
	defer srv.Close()

	clock := fakeClockAt(t, time.Date(2025, 11, 4, 21, 0, 0, 0, time.UTC))
	p := newTestProvider(t, srv.URL, clock)

	_, err := p.FetchForecasts(context.Background(), testStations)
	require.NoError(t, err)
	_, err = p.FetchForecasts(context.Background(), testStations)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchForecasts_FailedCoordinateSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	clock := fakeClockAt(t, time.Date(2025, 11, 4, 21, 0, 0, 0, time.UTC))
	p := newTestProvider(t, srv.URL, clock)

	points, err := p.FetchForecasts(context.Background(), testStations)
	require.NoError(t, err, "forecasts are advisory and must not fail the resolution")
	assert.Empty(t, points)
}

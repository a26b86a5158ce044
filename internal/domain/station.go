package domain

import (
	"context"
	"time"
)

// ProviderKind tags which external data source a station belongs to. It
// routes observation fetches to the matching adapter.
type ProviderKind string

const (
	// ProviderVegagerdin is the Icelandic road authority road-weather feed.
	ProviderVegagerdin ProviderKind = "vegagerdin"
	// ProviderVedur is the Icelandic met office AWS station feed.
	ProviderVedur ProviderKind = "vedur"
)

// Station is a weather station from one provider's static catalog. Identity
// is ID, which carries a provider prefix (e.g. "veg:31674", "imo:1475") so
// IDs stay globally unique across providers.
type Station struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Location Point        `json:"location"`
	Kind     ProviderKind `json:"kind"`
}

// Observation is a single reading parsed from a provider payload. All
// measurement fields are optional; a provider may omit any sensor. Timestamps
// are UTC instants.
type Observation struct {
	StationID   string    `json:"stationId"`
	Timestamp   time.Time `json:"timestamp"`
	TempC       *float64  `json:"tempC,omitempty"`
	WindMS      *float64  `json:"windMs,omitempty"`
	GustMS      *float64  `json:"gustMs,omitempty"`
	VisibilityM *float64  `json:"visibilityM,omitempty"`
	PrecipType  string    `json:"precipType,omitempty"` // "rain", "snow", "sleet", or ""
}

// Alert is an official CAP alert, passed through from the alerts feed without
// interpretation.
type Alert struct {
	Severity    string `json:"severity,omitempty"`  // "Minor", "Moderate", "Severe", "Extreme"
	EventType   string `json:"eventType,omitempty"` // "Wind", "Snow", "Ice"
	Description string `json:"description,omitempty"`
	Headline    string `json:"headline,omitempty"`
}

// ForecastPoint is one forecast time step for a route coordinate.
type ForecastPoint struct {
	Time     time.Time `json:"time"`
	Location Point     `json:"location"`
	TempC    *float64  `json:"tempC,omitempty"`
	WindMS   *float64  `json:"windMs,omitempty"`
	PrecipMM *float64  `json:"precipMm,omitempty"`
}

// StationProvider abstracts one external observation source. Implementations
// own their bulk TTL cache and degrade gracefully: a network failure serves
// stale cached data when available, and malformed records are dropped rather
// than surfaced.
type StationProvider interface {
	// Kind identifies which stations this provider serves.
	Kind() ProviderKind

	// ListStations returns the provider's static station catalog.
	ListStations() []Station

	// FetchObservations returns observations for one station whose timestamps
	// fall inside the half-open window [from, to).
	FetchObservations(ctx context.Context, stationID string, from, to time.Time) ([]Observation, error)
}

// AlertProvider fetches official alerts for a coordinate.
type AlertProvider interface {
	FetchAlerts(ctx context.Context, location Point) ([]Alert, error)
}

// ForecastProvider fetches forecast points for a set of station coordinates.
type ForecastProvider interface {
	FetchForecasts(ctx context.Context, stations []Station) ([]ForecastPoint, error)
}

package domain

import "time"

// defaultSpeedKMH is the rural highway speed limit used for ETA estimates.
const defaultSpeedKMH = 90.0

// TravelMode selects how a travel time anchors the observation window.
type TravelMode string

const (
	// ModeDeparture anchors the window at the departure instant.
	ModeDeparture TravelMode = "departure"
	// ModeArrival works backwards from a desired arrival instant.
	ModeArrival TravelMode = "arrival"
)

// TimeWindow is a half-open interval [From, To).
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TravelWindow computes the observation window for a trip. Departure mode
// covers the four hours from t. Arrival mode estimates the departure instant
// by backing off the driving time at 90 km/h over routeKM, then spans two
// hours either side of that departure.
func TravelWindow(mode TravelMode, t time.Time, routeKM float64) TimeWindow {
	if mode == ModeArrival {
		eta := time.Duration(routeKM / defaultSpeedKMH * float64(time.Hour))
		depart := t.Add(-eta)
		return TimeWindow{
			From: depart.Add(-2 * time.Hour),
			To:   depart.Add(2 * time.Hour),
		}
	}
	return TimeWindow{From: t, To: t.Add(4 * time.Hour)}
}

// ObservationWindow is the default lookback for "what do stations report
// right now": the two hours before now. Winter reporting can lag, so a
// shorter window would drop valid readings.
func ObservationWindow(now time.Time) TimeWindow {
	return TimeWindow{From: now.Add(-2 * time.Hour), To: now}
}

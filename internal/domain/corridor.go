package domain

import "sort"

// FilterByBuffer returns the stations within bufferMeters of the route,
// ordered by progress along the route from start to end. Stations tied on
// progress are ordered by distance to the route, closest first. A degenerate
// route (fewer than two points) yields an empty corridor.
//
// The buffer test is inclusive: a station exactly bufferMeters away is kept.
func FilterByBuffer(stations []Station, route Route, bufferMeters float64) []Station {
	if len(route) < 2 || len(stations) == 0 {
		return nil
	}

	type stationMetrics struct {
		station   Station
		distanceM float64
		progressM float64
	}

	within := make([]stationMetrics, 0, len(stations))
	for _, s := range stations {
		d := PointToPolylineM(s.Location, route)
		if d > bufferMeters {
			continue
		}
		within = append(within, stationMetrics{
			station:   s,
			distanceM: d,
			progressM: ProgressAlongPolylineM(s.Location, route),
		})
	}

	sort.SliceStable(within, func(i, j int) bool {
		if within[i].progressM != within[j].progressM {
			return within[i].progressM < within[j].progressM
		}
		return within[i].distanceM < within[j].distanceM
	})

	out := make([]Station, len(within))
	for i, m := range within {
		out[i] = m.station
	}
	return out
}

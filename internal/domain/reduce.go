package domain

// StationFacts is the worst-case summary of one station's observations over a
// time window, plus any official alerts for its location. Facts are created
// fresh per request and never persisted.
type StationFacts struct {
	StationID   string   `json:"stationId"`
	StationName string   `json:"stationName"`
	MaxGustMS   *float64 `json:"maxGustMs,omitempty"`
	MaxWindMS   *float64 `json:"maxWindMs,omitempty"`
	MinTempC    *float64 `json:"minTempC,omitempty"`
	MinVisM     *float64 `json:"minVisM,omitempty"`
	PrecipType  string   `json:"precipType,omitempty"`
	Alerts      []Alert  `json:"alerts"`
}

// ReduceObservations collapses raw observations into one StationFacts per
// station, in the same order as stations (corridor order). Every station gets
// a facts record: one with zero observations keeps all measurement fields nil
// so absent data stays distinguishable from a real zero reading.
//
// Per station: max of non-nil gusts and winds, min of non-nil temperatures
// and visibilities, and the first non-empty precipitation type in observation
// order. Alerts are attached verbatim from alertsByStation; stations without
// an entry get an empty list.
func ReduceObservations(obs []Observation, stations []Station, alertsByStation map[string][]Alert) []StationFacts {
	byStation := make(map[string][]Observation)
	for _, o := range obs {
		byStation[o.StationID] = append(byStation[o.StationID], o)
	}

	out := make([]StationFacts, 0, len(stations))
	for _, station := range stations {
		facts := StationFacts{
			StationID:   station.ID,
			StationName: station.Name,
			Alerts:      []Alert{},
		}

		for _, o := range byStation[station.ID] {
			facts.MaxGustMS = maxOf(facts.MaxGustMS, o.GustMS)
			facts.MaxWindMS = maxOf(facts.MaxWindMS, o.WindMS)
			facts.MinTempC = minOf(facts.MinTempC, o.TempC)
			facts.MinVisM = minOf(facts.MinVisM, o.VisibilityM)
			if facts.PrecipType == "" && o.PrecipType != "" {
				facts.PrecipType = o.PrecipType
			}
		}

		if alerts, ok := alertsByStation[station.ID]; ok && alerts != nil {
			facts.Alerts = alerts
		}

		out = append(out, facts)
	}
	return out
}

// maxOf folds candidate into the running maximum, ignoring nil candidates.
func maxOf(current, candidate *float64) *float64 {
	if candidate == nil {
		return current
	}
	if current == nil || *candidate > *current {
		v := *candidate
		return &v
	}
	return current
}

// minOf folds candidate into the running minimum, ignoring nil candidates.
func minOf(current, candidate *float64) *float64 {
	if candidate == nil {
		return current
	}
	if current == nil || *candidate < *current {
		v := *candidate
		return &v
	}
	return current
}

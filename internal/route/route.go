// Package route holds the static route registry. The service currently
// serves one corridor, Reykjavík ↔ Ísafjörður, as an ordered waypoint
// polyline following Route 1 and Route 60/61 through the Westfjords.
package route

import (
	"github.com/couchcryptid/road-weather-service/internal/domain"
)

// Endpoint codes accepted by the observations API.
const (
	EndpointReykjavik  = "RVK"
	EndpointIsafjordur = "IFJ"
)

var rvkIsf = domain.Route{
	{Lon: -21.8046, Lat: 64.1238}, // Reykjavík
	{Lon: -21.9603, Lat: 64.4755}, // Hafnarfjall
	{Lon: -21.9101, Lat: 64.5439}, // Borgarnes
	{Lon: -21.5154, Lat: 64.8716}, // Brattabrekka
	{Lon: -21.7632, Lat: 65.1082}, // Búðardalur
	{Lon: -21.8330, Lat: 65.5524}, // Þröskuldar
	{Lon: -21.6951, Lat: 65.7015}, // Hólmavík
	{Lon: -22.1291, Lat: 65.7503}, // Steingrímsfjarðarheiði
	{Lon: -22.7303, Lat: 66.0403}, // Ögur
	{Lon: -22.9888, Lat: 66.0279}, // Súðavík
	{Lon: -23.0465, Lat: 66.0977}, // Arnarfjörður
	{Lon: -23.1239, Lat: 66.0746}, // Ísafjörður
}

// Coordinates returns the corridor polyline oriented from one endpoint to
// the other. Any pair other than IFJ→RVK gets the default RVK→IFJ
// orientation; the corridor itself is symmetric.
func Coordinates(from, to string) domain.Route {
	r := make(domain.Route, len(rvkIsf))
	copy(r, rvkIsf)
	if from == EndpointIsafjordur && to == EndpointReykjavik {
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
	}
	return r
}

// LengthM returns the corridor polyline length in meters.
func LengthM() float64 {
	return domain.PolylineLengthM(rvkIsf)
}

// GeoJSON returns the corridor as a GeoJSON Feature for map frontends.
func GeoJSON() map[string]any {
	coords := make([][]float64, len(rvkIsf))
	for i, p := range rvkIsf {
		coords[i] = []float64{p.Lon, p.Lat}
	}
	return map[string]any{
		"type": "Feature",
		"properties": map[string]any{
			"id":       "rvk-isf",
			"name":     "Reykjavík ↔ Ísafjörður",
			"length_m": LengthM(),
		},
		"geometry": map[string]any{
			"type":        "LineString",
			"coordinates": coords,
		},
	}
}

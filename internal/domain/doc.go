// Package domain models road-weather data along a fixed driving route.
//
// # Data Sources
//
// Station observations come from two Icelandic providers with different wire
// shapes: Vegagerðin (the road authority, a bare JSON array covering every
// road-weather station in one response) and Veður (the met office AWS feed,
// XML records wrapped in a root element). Both report timestamps in local
// civil time (Atlantic/Reykjavik), which adapters convert to UTC before an
// Observation is built. Official CAP alerts arrive from a separate feed and
// are carried through untouched.
//
// # Corridor Model
//
// A route is an ordered polyline of WGS-84 points. The corridor is the subset
// of stations within a buffer distance of that polyline, ordered by progress
// — the cumulative distance from the route start to the station's closest
// projected point. Ordering by progress means stations are reported in
// physical travel order regardless of which provider owns them.
//
// Geometry uses the haversine formula on a sphere of radius 6,371,008.8 m for
// distances, and a local equirectangular plane (x scaled by the cosine of the
// segment's average latitude) for point-to-segment projection. The projected
// point is converted back to geographic coordinates and the final distance is
// recomputed with haversine, so buffer tests stay accurate at high latitudes.
//
// # Reduction
//
// Raw observations per station collapse into worst-case StationFacts: maximum
// wind and gust, minimum temperature and visibility, and the first reported
// precipitation type. Every corridor station produces a facts record even
// with zero observations — absent data stays nil, never a sentinel value —
// so downstream consumers can always enumerate full route coverage.
//
// # Hazards
//
// StationFacts are checked against the wind-warning thresholds used by the
// Icelandic road safety guidelines: sustained wind 20/24/28 m/s and gusts
// 26/30/35 m/s (three levels each, highest level wins), visibility below
// 1000 m, and freezing temperature combined with reported precipitation.
package domain

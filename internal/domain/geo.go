package domain

import "math"

// EarthRadiusM is the mean earth radius in meters (IUGG).
const EarthRadiusM = 6_371_008.8

// Point is a WGS-84 coordinate. Routes and stations share this representation.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Route is an ordered polyline of at least two points. Routes are supplied
// externally and never mutated.
type Route []Point

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(a, b Point) float64 {
	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	dPhi := toRadians(b.Lat - a.Lat)
	dLambda := toRadians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// min() guards against sqrt of a value nudged past 1 by rounding.
	c := 2 * math.Asin(math.Min(1.0, math.Sqrt(h)))
	return EarthRadiusM * c
}

// PolylineLengthM sums the great-circle distances between consecutive
// waypoints. A route with fewer than two points has length 0.
func PolylineLengthM(route Route) float64 {
	if len(route) < 2 {
		return 0
	}
	var m float64
	for i := 0; i < len(route)-1; i++ {
		m += HaversineM(route[i], route[i+1])
	}
	return m
}

// PointToPolylineM returns the minimum distance in meters from p to any
// segment of the route. A degenerate route (fewer than two points) yields
// +Inf so the point fails every buffer filter.
func PointToPolylineM(p Point, route Route) float64 {
	if len(route) < 2 {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for i := 0; i < len(route)-1; i++ {
		d, _ := PointToSegmentM(p, route[i], route[i+1])
		if d < min {
			min = d
		}
	}
	return min
}

// ProgressAlongPolylineM returns the cumulative distance in meters from the
// route start to the closest projected position of p on the route. When two
// segments are equally close, the earlier segment wins, which keeps station
// ordering stable near waypoint vertices.
func ProgressAlongPolylineM(p Point, route Route) float64 {
	if len(route) < 2 {
		return 0
	}

	bestDistance := math.Inf(1)
	bestProgressOnSegment := 0.0
	progressBefore := 0.0
	cumulative := 0.0

	for i := 0; i < len(route)-1; i++ {
		a, b := route[i], route[i+1]
		d, t := PointToSegmentM(p, a, b)
		segLen := HaversineM(a, b)

		if d < bestDistance {
			bestDistance = d
			bestProgressOnSegment = segLen * t
			progressBefore = cumulative
		}
		cumulative += segLen
	}
	return progressBefore + bestProgressOnSegment
}

// PointToSegmentM projects p onto the segment from a to b and returns the
// distance in meters together with the clamped projection parameter t, where
// t=0 is at a and t=1 is at b.
//
// The projection happens on a local equirectangular plane with x scaled by
// the cosine of the segment's average latitude, which corrects for longitude
// compression away from the equator. The projected point is mapped back to
// geographic coordinates and the final distance uses haversine, not the
// planar approximation.
func PointToSegmentM(p, a, b Point) (distanceM, t float64) {
	lat0 := (a.Lat + b.Lat) / 2.0
	cosLat0 := math.Cos(toRadians(lat0))

	x1 := toRadians(a.Lon) * cosLat0
	y1 := toRadians(a.Lat)
	x2 := toRadians(b.Lon) * cosLat0
	y2 := toRadians(b.Lat)
	xp := toRadians(p.Lon) * cosLat0
	yp := toRadians(p.Lat)

	dx := x2 - x1
	dy := y2 - y1
	segLen2 := dx*dx + dy*dy

	var raw float64
	if segLen2 != 0 {
		raw = ((xp-x1)*dx + (yp-y1)*dy) / segLen2
	}
	t = math.Max(0.0, math.Min(1.0, raw))

	xProj := x1 + t*dx
	yProj := y1 + t*dy

	proj := Point{
		Lon: toDegrees(xProj / cosLat0),
		Lat: toDegrees(yProj),
	}
	return HaversineM(p, proj), t
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

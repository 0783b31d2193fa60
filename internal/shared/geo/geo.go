// Package geo holds the spherical geometry shared by routes, navigation and
// tracking: great-circle distance, initial bearing, compass buckets and map
// viewports.
package geo

import "math"

const EarthRadiusKm = 6371.0

// Minimum viewport span in degrees, so a single point or a straight
// meridian still produces a usable map window.
const minViewportSpanDeg = 0.01

const viewportMargin = 1.2

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineKm returns the great-circle distance between two coordinates in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func DistanceKm(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// PathKm sums the distance between consecutive points.
func PathKm(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}

// BearingDeg returns the initial compass bearing from one point to another in [0, 360).
func BearingDeg(from, to Point) float64 {
	dLng := toRadians(to.Lng - from.Lng)
	lat1 := toRadians(from.Lat)
	lat2 := toRadians(to.Lat)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return normalizeDeg(math.Atan2(y, x) * 180 / math.Pi)
}

func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

type Direction string

const (
	North Direction = "N"
	East  Direction = "E"
	South Direction = "S"
	West  Direction = "W"
)

// Name returns the spelled-out compass direction.
func (d Direction) Name() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	}
	return string(d)
}

// DirectionFor buckets a bearing into a cardinal direction. North covers
// [315, 360) and [0, 45); each lower bound is inclusive.
func DirectionFor(bearing float64) Direction {
	b := normalizeDeg(bearing)
	switch {
	case b >= 315 || b < 45:
		return North
	case b < 135:
		return East
	case b < 225:
		return South
	default:
		return West
	}
}

type Viewport struct {
	Center   Point   `json:"center"`
	LatDelta float64 `json:"lat_delta"`
	LngDelta float64 `json:"lng_delta"`
}

// ViewportFor centers on the mean of the points and spans their extent plus
// a 20% margin. It returns false for an empty slice.
func ViewportFor(points []Point) (Viewport, bool) {
	if len(points) == 0 {
		return Viewport{}, false
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}

	n := float64(len(points))
	return Viewport{
		Center:   Point{Lat: sumLat / n, Lng: sumLng / n},
		LatDelta: math.Max((maxLat-minLat)*viewportMargin, minViewportSpanDeg),
		LngDelta: math.Max((maxLng-minLng)*viewportMargin, minViewportSpanDeg),
	}, true
}

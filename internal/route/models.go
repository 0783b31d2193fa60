package route

import (
	"time"

	"backend-trekhub/internal/shared/geo"
)

const DefaultName = "Event route"

type TrackPoint struct {
	Lat float64  `json:"lat"`
	Lng float64  `json:"lng"`
	Ele *float64 `json:"ele,omitempty"`
}

func (tp TrackPoint) Point() geo.Point {
	return geo.Point{Lat: tp.Lat, Lng: tp.Lng}
}

// Route is an ordered stack of track points plus the drawing-mode flag.
type Route struct {
	Name      string       `json:"name"`
	Track     []TrackPoint `json:"points"`
	Drawing   bool         `json:"drawing"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Tap appends p when drawing mode is on and reports whether it did.
func (r *Route) Tap(p geo.Point) bool {
	if !r.Drawing {
		return false
	}
	r.Track = append(r.Track, TrackPoint{Lat: p.Lat, Lng: p.Lng})
	return true
}

// RemoveLast pops the most recent point. Empty routes are left alone.
func (r *Route) RemoveLast() (TrackPoint, bool) {
	if len(r.Track) == 0 {
		return TrackPoint{}, false
	}
	last := r.Track[len(r.Track)-1]
	r.Track = r.Track[:len(r.Track)-1]
	return last, true
}

func (r *Route) Replace(points []TrackPoint) {
	r.Track = append([]TrackPoint(nil), points...)
}

func (r *Route) Clear() {
	r.Track = nil
}

func (r *Route) Len() int {
	return len(r.Track)
}

// Points returns a copy of the track.
func (r *Route) Points() []TrackPoint {
	return append([]TrackPoint(nil), r.Track...)
}

func (r *Route) Coordinates() []geo.Point {
	return Coordinates(r.Track)
}

func Coordinates(points []TrackPoint) []geo.Point {
	out := make([]geo.Point, len(points))
	for i, p := range points {
		out[i] = p.Point()
	}
	return out
}

// Stats are the figures derived from a route for event creation.
type Stats struct {
	DistanceKm      float64 `json:"distance_km"`
	ElevationGainM  float64 `json:"elevation_gain_m"`
	ElevationLossM  float64 `json:"elevation_loss_m"`
	ElevationSource string  `json:"elevation_source"`
	EstimatedHours  int     `json:"estimated_hours"`
	Duration        string  `json:"duration"`
}

type Summary struct {
	Points   int           `json:"points"`
	Stats    Stats         `json:"stats"`
	Viewport *geo.Viewport `json:"viewport,omitempty"`
}

type PointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DrawingRequest struct {
	Drawing bool `json:"drawing"`
}

type AnalyzeRequest struct {
	Points []TrackPoint `json:"points"`
}

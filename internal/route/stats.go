package route

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"backend-trekhub/internal/shared/geo"
)

const (
	SourceMeasured  = "measured"
	SourceSynthetic = "synthetic"
	SourceNone      = "none"

	walkingSpeedKmh = 4.0
)

// ElevationModel supplies elevation change for routes whose points do not
// all carry an <ele> reading.
type ElevationModel interface {
	Segment(from, to TrackPoint) float64
	Source() string
}

// FlatElevation reports no elevation change.
type FlatElevation struct{}

func (FlatElevation) Segment(_, _ TrackPoint) float64 { return 0 }
func (FlatElevation) Source() string                  { return SourceNone }

// SyntheticElevation draws a uniform change in [-50, 50) meters per segment.
type SyntheticElevation struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSyntheticElevation(seed int64) *SyntheticElevation {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticElevation{rnd: rand.New(rand.NewSource(seed))}
}

func (s *SyntheticElevation) Segment(_, _ TrackPoint) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.rnd.Float64() - 0.5) * 100
}

func (s *SyntheticElevation) Source() string { return SourceSynthetic }

// Analyze computes distance, elevation and walking-time figures for points.
// Measured elevation wins when every point has one; otherwise model is used,
// and a nil model means flat.
func Analyze(points []TrackPoint, model ElevationModel) Stats {
	if model == nil {
		model = FlatElevation{}
	}
	distance := geo.PathKm(Coordinates(points))

	var gain, loss float64
	source := model.Source()
	if measured(points) {
		source = SourceMeasured
	}
	for i := 1; i < len(points); i++ {
		var delta float64
		if source == SourceMeasured {
			delta = *points[i].Ele - *points[i-1].Ele
		} else {
			delta = model.Segment(points[i-1], points[i])
		}
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}

	hours := EstimatedHours(distance)
	return Stats{
		DistanceKm:      distance,
		ElevationGainM:  math.Round(gain),
		ElevationLossM:  math.Round(loss),
		ElevationSource: source,
		EstimatedHours:  hours,
		Duration:        DurationRange(hours),
	}
}

func measured(points []TrackPoint) bool {
	if len(points) == 0 {
		return false
	}
	for _, p := range points {
		if p.Ele == nil {
			return false
		}
	}
	return true
}

// EstimatedHours assumes a 4 km/h pace and never returns less than one hour.
func EstimatedHours(distanceKm float64) int {
	h := int(math.Round(distanceKm / walkingSpeedKmh))
	if h < 1 {
		return 1
	}
	return h
}

func DurationRange(hours int) string {
	return fmt.Sprintf("%d-%d", hours, hours+2)
}

package navigation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"backend-trekhub/internal/shared/geo"
)

// LocationProvider yields the hiker's position while heading for target.
type LocationProvider interface {
	Locate(ctx context.Context, target geo.Point) (geo.Point, error)
}

// SimulatedLocator places the hiker uniformly within ±jitter/2 degrees of
// the target on each axis.
type SimulatedLocator struct {
	jitter float64
	mu     sync.Mutex
	rnd    *rand.Rand
}

func NewSimulatedLocator(jitterDeg float64, seed int64) *SimulatedLocator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedLocator{jitter: jitterDeg, rnd: rand.New(rand.NewSource(seed))}
}

func (l *SimulatedLocator) Locate(_ context.Context, target geo.Point) (geo.Point, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return geo.Point{
		Lat: target.Lat + (l.rnd.Float64()-0.5)*l.jitter,
		Lng: target.Lng + (l.rnd.Float64()-0.5)*l.jitter,
	}, nil
}

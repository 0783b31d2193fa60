package route

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"backend-trekhub/internal/cache"
	"backend-trekhub/internal/shared/geo"
	"backend-trekhub/internal/storage"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidPoint = errors.New("lat must be within [-90, 90] and lng within [-180, 180]")
	ErrEmptyRoute   = errors.New("add at least two points before exporting")
)

const draftKeyPrefix = "route:draft:"

// Service keeps one draft route per user in the cache.
type Service struct {
	cache     cache.Cache
	storage   *storage.Service
	elevation ElevationModel
	ttl       time.Duration
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewService(c cache.Cache, store *storage.Service, elevation ElevationModel, ttl time.Duration, log logrus.FieldLogger) *Service {
	if elevation == nil {
		elevation = FlatElevation{}
	}
	return &Service{
		cache:     c,
		storage:   store,
		elevation: elevation,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

func draftKey(userID string) string {
	return draftKeyPrefix + userID
}

// Draft returns the user's draft, or an empty one when none is stored.
func (s *Service) Draft(ctx context.Context, userID string) (Route, error) {
	var r Route
	err := s.cache.GetJSON(ctx, draftKey(userID), &r)
	if errors.Is(err, cache.ErrMiss) {
		return Route{Name: DefaultName}, nil
	}
	if err != nil {
		return Route{}, err
	}
	return r, nil
}

func (s *Service) save(ctx context.Context, userID string, r *Route) error {
	r.UpdatedAt = s.now()
	return s.cache.SetJSON(ctx, draftKey(userID), r, s.ttl)
}

func (s *Service) SetDrawing(ctx context.Context, userID string, drawing bool) (Route, error) {
	r, err := s.Draft(ctx, userID)
	if err != nil {
		return Route{}, err
	}
	r.Drawing = drawing
	if err := s.save(ctx, userID, &r); err != nil {
		return Route{}, err
	}
	return r, nil
}

// Tap adds a point to the draft if drawing mode is on. The boolean reports
// whether the point was added.
func (s *Service) Tap(ctx context.Context, userID string, p geo.Point) (Route, bool, error) {
	if !p.Valid() {
		return Route{}, false, ErrInvalidPoint
	}
	r, err := s.Draft(ctx, userID)
	if err != nil {
		return Route{}, false, err
	}
	if !r.Tap(p) {
		return r, false, nil
	}
	if err := s.save(ctx, userID, &r); err != nil {
		return Route{}, false, err
	}
	return r, true, nil
}

func (s *Service) RemoveLast(ctx context.Context, userID string) (Route, error) {
	r, err := s.Draft(ctx, userID)
	if err != nil {
		return Route{}, err
	}
	if _, ok := r.RemoveLast(); !ok {
		return r, nil
	}
	if err := s.save(ctx, userID, &r); err != nil {
		return Route{}, err
	}
	return r, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, draftKey(userID))
}

// ImportGPX replaces the draft's points with those of a GPX file. On any
// error the stored draft is left as it was.
func (s *Service) ImportGPX(ctx context.Context, userID, name string, content io.Reader) (Route, error) {
	points, err := Import(name, content)
	if err != nil {
		return Route{}, err
	}
	r, err := s.replaceTrack(ctx, userID, nameFromFile(name), points)
	if err != nil {
		return Route{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "file": name, "points": len(points)}).Info("gpx imported")
	return r, nil
}

// LoadSample replaces the draft with the bundled sample track.
func (s *Service) LoadSample(ctx context.Context, userID string) (Route, error) {
	points, err := ParseGPX(strings.NewReader(SampleGPX))
	if err != nil {
		return Route{}, err
	}
	return s.replaceTrack(ctx, userID, SampleName, points)
}

func (s *Service) replaceTrack(ctx context.Context, userID, name string, points []TrackPoint) (Route, error) {
	r, err := s.Draft(ctx, userID)
	if err != nil {
		return Route{}, err
	}
	r.Replace(points)
	r.Name = name
	if err := s.save(ctx, userID, &r); err != nil {
		return Route{}, err
	}
	return r, nil
}

// ExportGPX renders the draft as a GPX document and returns a download name.
func (s *Service) ExportGPX(ctx context.Context, userID string) (string, []byte, error) {
	r, err := s.Draft(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if r.Len() < 2 {
		return "", nil, ErrEmptyRoute
	}
	return FileName(r.Name), EncodeGPX(r.Name, r.Track), nil
}

// SaveExport writes the exported draft to file storage.
func (s *Service) SaveExport(ctx context.Context, userID string) (storage.Object, error) {
	name, content, err := s.ExportGPX(ctx, userID)
	if err != nil {
		return storage.Object{}, err
	}
	return s.storage.SaveGPX(ctx, userID, name, content)
}

func (s *Service) Analyze(points []TrackPoint) Summary {
	sum := Summary{Points: len(points), Stats: Analyze(points, s.elevation)}
	if vp, ok := geo.ViewportFor(Coordinates(points)); ok {
		sum.Viewport = &vp
	}
	return sum
}

// Summary returns stats and a map viewport for the user's draft.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	r, err := s.Draft(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return s.Analyze(r.Track), nil
}

func (s *Service) Elevation() ElevationModel {
	return s.elevation
}

package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-trekhub/internal/cache"
	"backend-trekhub/internal/db"
	"backend-trekhub/internal/route"
	"backend-trekhub/internal/shared/geo"
	"backend-trekhub/internal/stream"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrRouteTooShort   = errors.New("add at least 2 points to start navigation")
	ErrSessionNotFound = errors.New("navigation session not found")
	ErrSessionEnded    = errors.New("navigation session has ended")
	ErrNotOwner        = errors.New("navigation session belongs to another user")
)

const (
	sessionKeyPrefix = "navigation:session:"
	sessionTTL       = 12 * time.Hour
)

type Service struct {
	db      db.Querier
	cache   cache.Cache
	routes  *route.Service
	locator LocationProvider
	hub     *stream.Hub
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewService(db db.Querier, c cache.Cache, routes *route.Service, locator LocationProvider, hub *stream.Hub, log logrus.FieldLogger) *Service {
	return &Service{
		db:      db,
		cache:   c,
		routes:  routes,
		locator: locator,
		hub:     hub,
		log:     log,
		now:     time.Now,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Start opens a session over points with the hiker placed near the first one.
func (s *Service) Start(ctx context.Context, userID, name string, points []route.TrackPoint) (View, error) {
	if len(points) < 2 {
		return View{}, ErrRouteTooShort
	}
	for _, p := range points {
		if !p.Point().Valid() {
			return View{}, route.ErrInvalidPoint
		}
	}
	if name == "" {
		name = route.DefaultName
	}

	position, err := s.locator.Locate(ctx, points[0].Point())
	if err != nil {
		return View{}, err
	}
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Route:     append([]route.TrackPoint(nil), points...),
		Position:  position,
		Active:    true,
		StartedAt: s.now(),
	}
	if err := s.save(ctx, sess); err != nil {
		return View{}, err
	}
	s.log.WithFields(logrus.Fields{"session_id": sess.ID, "user_id": userID, "points": len(points)}).Info("navigation started")
	return s.publish(ctx, sess), nil
}

// StartFromDraft navigates the user's current draft route.
func (s *Service) StartFromDraft(ctx context.Context, userID string) (View, error) {
	draft, err := s.routes.Draft(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return s.Start(ctx, userID, draft.Name, draft.Track)
}

func (s *Service) Current(ctx context.Context, userID, id string) (View, error) {
	sess, err := s.load(ctx, userID, id)
	if err != nil {
		return View{}, err
	}
	return view(sess), nil
}

// Watch reports whether userID may follow the live updates of session id.
func (s *Service) Watch(ctx context.Context, userID, id string) error {
	_, err := s.load(ctx, userID, id)
	return err
}

// Advance moves to the next waypoint. Advancing from the last waypoint
// completes the session and records the hike.
func (s *Service) Advance(ctx context.Context, userID, id string) (View, error) {
	sess, err := s.load(ctx, userID, id)
	if err != nil {
		return View{}, err
	}
	if !sess.Active {
		return View{}, ErrSessionEnded
	}

	if sess.Step >= len(sess.Route)-1 {
		sess.Completed = true
		s.end(&sess)
		if err := s.recordHike(ctx, sess); err != nil {
			return View{}, err
		}
		if err := s.save(ctx, sess); err != nil {
			return View{}, err
		}
		s.log.WithFields(logrus.Fields{"session_id": sess.ID, "user_id": userID}).Info("navigation completed")
		return s.publish(ctx, sess), nil
	}

	sess.Step++
	position, err := s.locator.Locate(ctx, sess.Route[sess.Step].Point())
	if err != nil {
		return View{}, err
	}
	s.move(&sess, position)
	if err := s.save(ctx, sess); err != nil {
		return View{}, err
	}
	return s.publish(ctx, sess), nil
}

// ReportPosition replaces the simulated position with one measured by the client.
func (s *Service) ReportPosition(ctx context.Context, userID, id string, p geo.Point) (View, error) {
	if !p.Valid() {
		return View{}, route.ErrInvalidPoint
	}
	sess, err := s.load(ctx, userID, id)
	if err != nil {
		return View{}, err
	}
	if !sess.Active {
		return View{}, ErrSessionEnded
	}
	s.move(&sess, p)
	if err := s.save(ctx, sess); err != nil {
		return View{}, err
	}
	return s.publish(ctx, sess), nil
}

// Stop ends the session without recording a hike.
func (s *Service) Stop(ctx context.Context, userID, id string) (View, error) {
	sess, err := s.load(ctx, userID, id)
	if err != nil {
		return View{}, err
	}
	if !sess.Active {
		return view(sess), nil
	}
	s.end(&sess)
	if err := s.save(ctx, sess); err != nil {
		return View{}, err
	}
	return s.publish(ctx, sess), nil
}

func (s *Service) move(sess *Session, p geo.Point) {
	sess.TravelledKm += geo.DistanceKm(sess.Position, p)
	sess.Position = p
}

func (s *Service) end(sess *Session) {
	now := s.now()
	sess.Active = false
	sess.EndedAt = &now
}

func (s *Service) recordHike(ctx context.Context, sess Session) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO completed_hikes (id, user_id, name, distance_km, points, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, sess.ID, sess.UserID, sess.Name, geo.PathKm(route.Coordinates(sess.Route)), len(sess.Route), *sess.EndedAt)
	return err
}

func (s *Service) load(ctx context.Context, userID, id string) (Session, error) {
	var sess Session
	err := s.cache.GetJSON(ctx, sessionKey(id), &sess)
	if errors.Is(err, cache.ErrMiss) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if sess.UserID != userID {
		return Session{}, ErrNotOwner
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess Session) error {
	return s.cache.SetJSON(ctx, sessionKey(sess.ID), sess, sessionTTL)
}

func view(sess Session) View {
	v := View{Session: sess}
	if sess.Active {
		in := Instruct(sess.Step, len(sess.Route), sess.Position, sess.Route[sess.Step].Point())
		v.Instruction = &in
	}
	return v
}

// publish sends the view to websocket listeners and returns it.
func (s *Service) publish(ctx context.Context, sess Session) View {
	v := view(sess)
	if s.hub == nil {
		return v
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Warn("encode navigation update")
		return v
	}
	s.hub.Broadcast(ctx, sess.ID, payload)
	return v
}

package event

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"backend-trekhub/internal/db"
	"backend-trekhub/internal/route"
	"backend-trekhub/internal/shared/validate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

var (
	ErrRouteTooShort  = errors.New("add at least two points on the map to create the route")
	ErrEventNotFound  = errors.New("event not found")
	ErrEventFull      = errors.New("event is full")
	ErrAlreadyJoined  = errors.New("already joined this event")
	ErrNotParticipant = errors.New("not a participant of this event")
	ErrEventCancelled = errors.New("event has been cancelled")
	ErrNotCreator     = errors.New("only the creator can cancel an event")
)

const eventColumns = `id, title, location, starts_at, difficulty, max_participants, participant_count,
		description, meeting_point, equipment, image_url, distance_km, elevation_gain_m, duration,
		route_points, gpx_content, created_by, created_at, status`

type Service struct {
	db        db.Querier
	routes    *route.Service
	elevation route.ElevationModel
	log       logrus.FieldLogger
}

func NewService(db db.Querier, routes *route.Service, elevation route.ElevationModel, log logrus.FieldLogger) *Service {
	return &Service{db: db, routes: routes, elevation: elevation, log: log}
}

// Create validates the form, fills missing route figures from the route
// itself and stores the event with its generated GPX.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)
	if err := validate.Struct(req); err != nil {
		return Event{}, err
	}

	points := req.RoutePoints
	if req.UseDraft && s.routes != nil {
		draft, err := s.routes.Draft(ctx, userID)
		if err != nil {
			return Event{}, err
		}
		points = draft.Track
	}
	if len(points) < 2 {
		return Event{}, ErrRouteTooShort
	}
	for _, p := range points {
		if !p.Point().Valid() {
			return Event{}, route.ErrInvalidPoint
		}
	}

	stats := route.Analyze(points, s.elevation)
	ev := Event{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Location:        req.Location,
		StartsAt:        *req.StartsAt,
		Difficulty:      req.Difficulty,
		MaxParticipants: req.MaxParticipants,
		Description:     req.Description,
		MeetingPoint:    req.MeetingPoint,
		Equipment:       req.Equipment,
		ImageURL:        req.ImageURL,
		DistanceKm:      math.Round(stats.DistanceKm*10) / 10,
		ElevationGainM:  stats.ElevationGainM,
		Duration:        stats.Duration,
		RoutePoints:     points,
		GPXContent:      string(route.EncodeGPX(req.Title, points)),
		CreatedBy:       userID,
		Status:          StatusActive,
	}
	if req.DistanceKm != nil {
		ev.DistanceKm = *req.DistanceKm
	}
	if req.ElevationGainM != nil {
		ev.ElevationGainM = *req.ElevationGainM
	}
	if req.Duration != "" {
		ev.Duration = req.Duration
	}

	rawPoints, err := json.Marshal(ev.RoutePoints)
	if err != nil {
		return Event{}, err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO events (id, title, location, starts_at, difficulty, max_participants, description,
			meeting_point, equipment, image_url, distance_km, elevation_gain_m, duration,
			route_points, gpx_content, created_by, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at
	`, ev.ID, ev.Title, ev.Location, ev.StartsAt, ev.Difficulty, ev.MaxParticipants, ev.Description,
		ev.MeetingPoint, ev.Equipment, ev.ImageURL, ev.DistanceKm, ev.ElevationGainM, ev.Duration,
		rawPoints, ev.GPXContent, ev.CreatedBy, ev.Status)
	if err := row.Scan(&ev.CreatedAt); err != nil {
		return Event{}, err
	}

	s.log.WithFields(logrus.Fields{"event_id": ev.ID, "user_id": userID, "points": len(points)}).Info("event created")
	return ev, nil
}

func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	row := s.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	return ev, err
}

// List returns active events ordered by start time, narrowed by f.
func (s *Service) List(ctx context.Context, f Filter) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events WHERE status = $1
		ORDER BY starts_at
	`, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		ev.GPXContent = ""
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f.Apply(events), nil
}

// Join takes a free place in the event. The capacity check and the
// participant insert happen in one statement.
func (s *Service) Join(ctx context.Context, userID, eventID string) (Participant, error) {
	row := s.db.QueryRow(ctx, `
		WITH slot AS (
			UPDATE events SET participant_count = participant_count + 1
			WHERE id = $1 AND status = 'active' AND participant_count < max_participants
			RETURNING id
		)
		INSERT INTO event_participants (event_id, user_id)
		SELECT id, $2 FROM slot
		RETURNING joined_at
	`, eventID, userID)

	p := Participant{UserID: userID}
	err := row.Scan(&p.JoinedAt)
	if err == nil {
		return p, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Participant{}, ErrAlreadyJoined
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Participant{}, err
	}
	return Participant{}, s.joinFailure(ctx, userID, eventID)
}

// joinFailure explains why no place was taken.
func (s *Service) joinFailure(ctx context.Context, userID, eventID string) error {
	var status string
	var count, capacity int
	var joined bool
	err := s.db.QueryRow(ctx, `
		SELECT e.status, e.participant_count, e.max_participants,
			EXISTS (SELECT 1 FROM event_participants p WHERE p.event_id = e.id AND p.user_id = $2)
		FROM events e WHERE e.id = $1
	`, eventID, userID).Scan(&status, &count, &capacity, &joined)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrEventNotFound
	case err != nil:
		return err
	case joined:
		return ErrAlreadyJoined
	case status != StatusActive:
		return ErrEventCancelled
	case count >= capacity:
		return ErrEventFull
	}
	return ErrEventFull
}

func (s *Service) Leave(ctx context.Context, userID, eventID string) error {
	tag, err := s.db.Exec(ctx, `
		WITH gone AS (
			DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2
			RETURNING event_id
		)
		UPDATE events SET participant_count = participant_count - 1
		WHERE id IN (SELECT event_id FROM gone)
	`, eventID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotParticipant
	}
	return nil
}

func (s *Service) Participants(ctx context.Context, eventID string) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.user_id, u.name, p.joined_at
		FROM event_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1
		ORDER BY p.joined_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// Cancel marks the event cancelled. Only its creator may do so.
func (s *Service) Cancel(ctx context.Context, userID, eventID string) (Event, error) {
	ev, err := s.Get(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if ev.CreatedBy != userID {
		return Event{}, ErrNotCreator
	}
	if _, err := s.db.Exec(ctx, `UPDATE events SET status = $2 WHERE id = $1`, eventID, StatusCancelled); err != nil {
		return Event{}, err
	}
	ev.Status = StatusCancelled
	return ev, nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var ev Event
	var rawPoints []byte
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Location, &ev.StartsAt, &ev.Difficulty, &ev.MaxParticipants,
		&ev.ParticipantCount, &ev.Description, &ev.MeetingPoint, &ev.Equipment, &ev.ImageURL,
		&ev.DistanceKm, &ev.ElevationGainM, &ev.Duration, &rawPoints, &ev.GPXContent,
		&ev.CreatedBy, &ev.CreatedAt, &ev.Status); err != nil {
		return Event{}, err
	}
	if len(rawPoints) > 0 {
		if err := json.Unmarshal(rawPoints, &ev.RoutePoints); err != nil {
			return Event{}, err
		}
	}
	return ev, nil
}

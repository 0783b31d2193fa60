package profile

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"backend-trekhub/internal/db"
	"backend-trekhub/internal/shared/validate"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

const (
	birthDateLayout = "2006-01-02"
	recentHikes     = 5
	earlyStartHour  = 7
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidBirthDate = errors.New("birth_date must be YYYY-MM-DD")
)

type Service struct {
	db  db.Querier
	log logrus.FieldLogger
}

func NewService(db db.Querier, log logrus.FieldLogger) *Service {
	return &Service{db: db, log: log}
}

// Get assembles the profile screen: account fields, stats, achievements and
// the latest completed hikes.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	hikes, err := s.RecentHikes(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		User:         user,
		Stats:        stats,
		Achievements: Achievements(stats),
		RecentHikes:  hikes,
	}, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM completed_hikes WHERE user_id = $1),
			(SELECT COALESCE(SUM(distance_km), 0) FROM completed_hikes WHERE user_id = $1),
			(SELECT COUNT(*) FROM events WHERE created_by = $1),
			(SELECT COUNT(*) FROM user_follows WHERE follower_id = $1),
			(SELECT COUNT(*) FROM posts WHERE user_id = $1 AND image_url <> ''),
			(SELECT COUNT(*) FROM event_participants p JOIN events e ON e.id = p.event_id
				WHERE p.user_id = $1 AND EXTRACT(HOUR FROM e.starts_at) < $2)
	`, userID, earlyStartHour).Scan(&st.TrailsCompleted, &st.TotalDistanceKm, &st.EventsOrganized,
		&st.HikingBuddies, &st.PhotosShared, &st.EarlyStarts)
	if err != nil {
		return Stats{}, err
	}
	st.TotalDistanceKm = math.Round(st.TotalDistanceKm*10) / 10
	return st, nil
}

func (s *Service) RecentHikes(ctx context.Context, userID string) ([]Hike, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, distance_km, points, completed_at
		FROM completed_hikes WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`, userID, recentHikes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hikes := []Hike{}
	for rows.Next() {
		var h Hike
		if err := rows.Scan(&h.ID, &h.Name, &h.DistanceKm, &h.Points, &h.CompletedAt); err != nil {
			return nil, err
		}
		hikes = append(hikes, h)
	}
	return hikes, rows.Err()
}

// Update changes name and birth date. Fields left out keep their value.
func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (User, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return User{}, &validate.FieldError{Field: "name", Tag: "required"}
		}
		req.Name = &trimmed
	}
	var birthDate *time.Time
	if req.BirthDate != nil {
		parsed, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			return User{}, ErrInvalidBirthDate
		}
		birthDate = &parsed
	}

	row := s.db.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name), birth_date = COALESCE($3, birth_date), updated_at = now()
		WHERE id = $1
		RETURNING id, email, name, birth_date, created_at, updated_at
	`, userID, req.Name, birthDate)
	user, err := scanUser(row)
	if err != nil {
		return User{}, err
	}
	s.log.WithField("user_id", userID).Info("profile updated")
	return user, nil
}

func (s *Service) user(ctx context.Context, userID string) (User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, name, birth_date, created_at, updated_at
		FROM users WHERE id = $1
	`, userID)
	return scanUser(row)
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var birthDate time.Time
	err := row.Scan(&u.ID, &u.Email, &u.Name, &birthDate, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.BirthDate = birthDate.Format(birthDateLayout)
	return u, nil
}

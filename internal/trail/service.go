package trail

import (
	"context"
	"errors"
	"strings"
	"time"

	"backend-trekhub/internal/cache"
	"backend-trekhub/internal/db"
	"backend-trekhub/internal/shared/validate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

var (
	ErrTrailNotFound   = errors.New("trail not found")
	ErrUnknownCategory = errors.New("unknown trail category")
)

const (
	listKeyPrefix   = "trail:list:"
	listTTL         = 5 * time.Minute
	listLimit       = 20
	defaultRadiusKm = 25
)

const trailColumns = `id, name, location, distance_km, elevation_gain_m, difficulty, rating, review_count,
		estimated_time, features, image_url, ST_Y(trailhead::geometry), ST_X(trailhead::geometry),
		created_by, created_at`

// cachedCategories are the lists that do not depend on the caller.
var cachedCategories = []string{CategoryPopular, CategoryEasy, CategoryChallenging, CategoryScenic}

var categoryClauses = map[string]string{
	CategoryPopular:     `ORDER BY rating DESC, review_count DESC`,
	CategoryEasy:        `WHERE difficulty = 'Easy' ORDER BY rating DESC`,
	CategoryChallenging: `WHERE difficulty = 'Hard' ORDER BY rating DESC`,
	CategoryScenic:      `WHERE cardinality(features) > 0 ORDER BY rating DESC`,
}

type Service struct {
	db    db.Querier
	cache cache.Cache
	log   logrus.FieldLogger
}

func NewService(db db.Querier, c cache.Cache, log logrus.FieldLogger) *Service {
	return &Service{db: db, cache: c, log: log}
}

func listKey(category string) string {
	return listKeyPrefix + category
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Trail, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if err := validate.Struct(req); err != nil {
		return Trail{}, err
	}
	features := req.Features
	if features == nil {
		features = []string{}
	}
	t := Trail{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Location:      req.Location,
		DistanceKm:    req.DistanceKm,
		ElevationM:    req.ElevationM,
		Difficulty:    req.Difficulty,
		EstimatedTime: req.EstimatedTime,
		Features:      features,
		ImageURL:      req.ImageURL,
		Lat:           req.Lat,
		Lng:           req.Lng,
		CreatedBy:     userID,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trails (id, name, location, distance_km, elevation_gain_m, difficulty, estimated_time,
			features, image_url, trailhead, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, ST_SetSRID(ST_MakePoint($10,$11), 4326)::geography, $12)
		RETURNING created_at
	`, t.ID, t.Name, t.Location, t.DistanceKm, t.ElevationM, t.Difficulty, t.EstimatedTime,
		t.Features, t.ImageURL, t.Lng, t.Lat, t.CreatedBy)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Trail{}, err
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (Trail, error) {
	row := s.db.QueryRow(ctx, `SELECT `+trailColumns+` FROM trails WHERE id=$1`, id)
	t, err := scanTrail(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trail{}, ErrTrailNotFound
	}
	return t, err
}

// List returns up to twenty trails of a category. Everything but nearby is
// served from the cache when possible.
func (s *Service) List(ctx context.Context, category string, near NearbyQuery) ([]Trail, error) {
	if category == CategoryNearby {
		return s.Nearby(ctx, near)
	}
	clause, ok := categoryClauses[category]
	if !ok {
		return nil, ErrUnknownCategory
	}

	var trails []Trail
	err := s.cache.GetJSON(ctx, listKey(category), &trails)
	if err == nil {
		return trails, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.WithError(err).WithField("category", category).Warn("trail list cache read failed")
	}

	rows, err := s.db.Query(ctx, `SELECT `+trailColumns+` FROM trails `+clause+` LIMIT $1`, listLimit)
	if err != nil {
		return nil, err
	}
	trails, err = collect(rows)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, listKey(category), trails, listTTL); err != nil {
		s.log.WithError(err).WithField("category", category).Warn("trail list cache write failed")
	}
	return trails, nil
}

func (s *Service) Nearby(ctx context.Context, q NearbyQuery) ([]Trail, error) {
	if q.RadiusKm <= 0 {
		q.RadiusKm = defaultRadiusKm
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+trailColumns+`
		FROM trails
		WHERE ST_DWithin(trailhead, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY ST_Distance(trailhead, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography)
		LIMIT $4
	`, q.Lng, q.Lat, q.RadiusKm*1000, listLimit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Featured is the best rated trail.
func (s *Service) Featured(ctx context.Context) (Trail, error) {
	trails, err := s.List(ctx, CategoryPopular, NearbyQuery{})
	if err != nil {
		return Trail{}, err
	}
	if len(trails) == 0 {
		return Trail{}, ErrTrailNotFound
	}
	return trails[0], nil
}

// AddReview stores or replaces the user's review and refreshes the trail's
// rating and review count.
func (s *Service) AddReview(ctx context.Context, userID, trailID string, req ReviewRequest) (Review, error) {
	if err := validate.Struct(req); err != nil {
		return Review{}, err
	}
	review := Review{
		ID:      uuid.NewString(),
		TrailID: trailID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trail_reviews (id, trail_id, user_id, rating, comment)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (trail_id, user_id) DO UPDATE
		SET rating=EXCLUDED.rating, comment=EXCLUDED.comment
		RETURNING id, created_at
	`, review.ID, review.TrailID, review.UserID, review.Rating, review.Comment)
	if err := row.Scan(&review.ID, &review.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Review{}, ErrTrailNotFound
		}
		return Review{}, err
	}

	_, err := s.db.Exec(ctx, `
		UPDATE trails SET
			rating = (SELECT ROUND(AVG(rating)::numeric, 1) FROM trail_reviews WHERE trail_id = $1),
			review_count = (SELECT COUNT(*) FROM trail_reviews WHERE trail_id = $1)
		WHERE id = $1
	`, trailID)
	if err != nil {
		return Review{}, err
	}
	s.invalidate(ctx)
	return review, nil
}

func (s *Service) Reviews(ctx context.Context, trailID string) ([]Review, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trail_id, user_id, rating, comment, created_at
		FROM trail_reviews WHERE trail_id=$1
		ORDER BY created_at DESC
	`, trailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.TrailID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *Service) invalidate(ctx context.Context) {
	keys := make([]string, len(cachedCategories))
	for i, c := range cachedCategories {
		keys[i] = listKey(c)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WithError(err).Warn("trail list cache invalidation failed")
	}
}

func collect(rows pgx.Rows) ([]Trail, error) {
	defer rows.Close()
	trails := []Trail{}
	for rows.Next() {
		t, err := scanTrail(rows)
		if err != nil {
			return nil, err
		}
		trails = append(trails, t)
	}
	return trails, rows.Err()
}

func scanTrail(row pgx.Row) (Trail, error) {
	var t Trail
	err := row.Scan(&t.ID, &t.Name, &t.Location, &t.DistanceKm, &t.ElevationM, &t.Difficulty, &t.Rating,
		&t.ReviewCount, &t.EstimatedTime, &t.Features, &t.ImageURL, &t.Lat, &t.Lng, &t.CreatedBy, &t.CreatedAt)
	return t, err
}

package social

import (
	"context"
	"errors"
	"strings"

	"backend-trekhub/internal/db"
	"backend-trekhub/internal/shared/validate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrSelfFollow   = errors.New("cannot follow yourself")
	ErrUserNotFound = errors.New("user not found")
)

const recentLimit = 50

// postSelect reads posts with author and counters; $1 is the viewer.
const postSelect = `
	SELECT p.id, p.user_id, u.name, p.content, p.image_url, p.location_name, p.event_id,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM post_comments c WHERE c.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1),
		p.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id`

type Service struct {
	db  db.Querier
	log logrus.FieldLogger
}

func NewService(db db.Querier, log logrus.FieldLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) CreatePost(ctx context.Context, userID string, req PostRequest) (Post, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validate.Struct(req); err != nil {
		return Post{}, err
	}
	post := Post{
		ID:           uuid.NewString(),
		UserID:       userID,
		Content:      req.Content,
		ImageURL:     req.ImageURL,
		LocationName: strings.TrimSpace(req.LocationName),
		EventID:      req.EventID,
	}
	row := s.db.QueryRow(ctx, `
		WITH created AS (
			INSERT INTO posts (id, user_id, content, image_url, location_name, event_id)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING created_at
		)
		SELECT created.created_at, u.name FROM created, users u WHERE u.id = $2
	`, post.ID, post.UserID, post.Content, post.ImageURL, post.LocationName, post.EventID)
	if err := row.Scan(&post.CreatedAt, &post.AuthorName); err != nil {
		return Post{}, err
	}
	s.log.WithFields(logrus.Fields{"post_id": post.ID, "user_id": userID}).Info("post created")
	return post, nil
}

// Recent is the community feed: the newest posts from everyone.
func (s *Service) Recent(ctx context.Context, viewerID string) ([]Post, error) {
	rows, err := s.db.Query(ctx, postSelect+`
		ORDER BY p.created_at DESC
		LIMIT $2
	`, viewerID, recentLimit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// Feed holds the viewer's own posts and those of people they follow.
func (s *Service) Feed(ctx context.Context, viewerID string) ([]Post, error) {
	rows, err := s.db.Query(ctx, postSelect+`
		WHERE p.user_id = $1
		   OR p.user_id IN (SELECT following_id FROM user_follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC
	`, viewerID)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// ToggleLike likes the post, or removes the like when it is already there.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (LikeState, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return LikeState{}, err
	}
	state := LikeState{Liked: tag.RowsAffected() == 0}
	if state.Liked {
		_, err := s.db.Exec(ctx, `
			INSERT INTO post_likes (post_id, user_id) VALUES ($1,$2)
			ON CONFLICT DO NOTHING
		`, postID, userID)
		if err != nil {
			return LikeState{}, missingAs(err, ErrPostNotFound)
		}
	}
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&state.LikeCount)
	if err != nil {
		return LikeState{}, err
	}
	return state, nil
}

func (s *Service) AddComment(ctx context.Context, userID, postID string, req CommentRequest) (Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validate.Struct(req); err != nil {
		return Comment{}, err
	}
	comment := Comment{
		ID:      uuid.NewString(),
		PostID:  postID,
		UserID:  userID,
		Content: req.Content,
	}
	row := s.db.QueryRow(ctx, `
		WITH created AS (
			INSERT INTO post_comments (id, post_id, user_id, content)
			VALUES ($1,$2,$3,$4)
			RETURNING created_at
		)
		SELECT created.created_at, u.name FROM created, users u WHERE u.id = $3
	`, comment.ID, comment.PostID, comment.UserID, comment.Content)
	if err := row.Scan(&comment.CreatedAt, &comment.AuthorName); err != nil {
		return Comment{}, missingAs(err, ErrPostNotFound)
	}
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, u.name, c.content, c.created_at
		FROM post_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Service) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO user_follows (follower_id, following_id)
		SELECT $1, id FROM users WHERE id = $2
		ON CONFLICT DO NOTHING
	`, followerID, followingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, followingID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
	}
	return nil
}

func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM user_follows WHERE follower_id = $1 AND following_id = $2`, followerID, followingID)
	return err
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	defer rows.Close()
	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.AuthorName, &p.Content, &p.ImageURL, &p.LocationName, &p.EventID,
			&p.LikeCount, &p.CommentCount, &p.LikedByMe, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// missingAs maps a foreign key violation to notFound.
func missingAs(err, notFound error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return notFound
	}
	return err
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"backend-trekhub/internal/db"

	"github.com/google/uuid"
)

var ErrNotGPX = errors.New("file must have a .gpx extension")

type Service struct {
	db  db.Querier
	dir string
}

func NewService(db db.Querier, dir string) *Service {
	return &Service{db: db, dir: dir}
}

// IsGPXName reports whether a file name carries the .gpx extension, case-insensitively.
func IsGPXName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".gpx")
}

// SaveGPX writes content under the user's directory and records it.
func (s *Service) SaveGPX(ctx context.Context, userID, name string, content []byte) (Object, error) {
	if !IsGPXName(name) {
		return Object{}, ErrNotGPX
	}
	obj := Object{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      filepath.Base(name),
		Kind:      KindGPX,
		SizeBytes: int64(len(content)),
	}

	userDir := filepath.Join(s.dir, filepath.Base(userID))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create storage dir: %w", err)
	}
	obj.Path = filepath.Join(userDir, obj.ID+"-"+obj.Name)
	if err := os.WriteFile(obj.Path, content, 0o644); err != nil {
		return Object{}, fmt.Errorf("write %s: %w", obj.Name, err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO storage_objects (id, user_id, name, path, kind, size_bytes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, obj.ID, obj.UserID, obj.Name, obj.Path, obj.Kind, obj.SizeBytes)
	if err := row.Scan(&obj.CreatedAt); err != nil {
		_ = os.Remove(obj.Path)
		return Object{}, err
	}
	return obj, nil
}

func (s *Service) Get(ctx context.Context, id string) (Object, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, path, kind, size_bytes, created_at
		FROM storage_objects WHERE id=$1
	`, id)
	var obj Object
	if err := row.Scan(&obj.ID, &obj.UserID, &obj.Name, &obj.Path, &obj.Kind, &obj.SizeBytes, &obj.CreatedAt); err != nil {
		return Object{}, err
	}
	return obj, nil
}

// Read returns the stored bytes of an object.
func (s *Service) Read(obj Object) ([]byte, error) {
	return os.ReadFile(obj.Path)
}

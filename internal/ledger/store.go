package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store handles database operations for uploads
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a new upload row
func (s *Store) Create(ctx context.Context, u *Upload) error {
	query := `
		INSERT INTO uploads (id, kind, original_name, bucket, key, width, height, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		u.ID, u.Kind, u.OriginalName, u.Bucket, u.Key,
		nullable(u.Width), nullable(u.Height), u.Status,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// UpdateStatus sets the status and error message of an upload
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errorMessage string) error {
	query := `
		UPDATE uploads
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, status, nullable(errorMessage), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update upload status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrUploadNotFound, id)
	}
	return nil
}

// Get retrieves an upload by ID
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Upload, error) {
	query := `
		SELECT id, kind, original_name, bucket, key, width, height,
		       status, error_message, created_at, updated_at
		FROM uploads
		WHERE id = $1
	`

	var u Upload
	var width, height, errorMessage *string

	err := s.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Kind, &u.OriginalName, &u.Bucket, &u.Key,
		&width, &height, &u.Status, &errorMessage,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, id)
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}

	if width != nil {
		u.Width = *width
	}
	if height != nil {
		u.Height = *height
	}
	if errorMessage != nil {
		u.ErrorMessage = *errorMessage
	}
	return &u, nil
}

// CleanupOlderThan deletes uploads created before now minus olderThan
func (s *Store) CleanupOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.db.Exec(ctx, `DELETE FROM uploads WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup uploads: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is implemented by Store.
type Repository interface {
	Create(ctx context.Context, u *Upload) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errorMessage string) error
	Get(ctx context.Context, id uuid.UUID) (*Upload, error)
	CleanupOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Manager records the lifecycle of relayed uploads
type Manager struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(repo Repository, logger *zap.Logger) *Manager {
	return &Manager{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Record stores u as pending
func (m *Manager) Record(ctx context.Context, u *Upload) error {
	now := m.now()
	u.Status = StatusPending
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := m.repo.Create(ctx, u); err != nil {
		m.logger.Error("Failed to record upload",
			zap.String("upload_id", u.ID.String()),
			zap.Error(err),
		)
		return err
	}

	m.logger.Debug("Upload recorded",
		zap.String("upload_id", u.ID.String()),
		zap.String("kind", string(u.Kind)),
		zap.String("key", u.Key),
	)
	return nil
}

func (m *Manager) MarkUploaded(ctx context.Context, id uuid.UUID) error {
	return m.setStatus(ctx, id, StatusUploaded, "")
}

func (m *Manager) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return m.setStatus(ctx, id, StatusFailed, reason)
}

func (m *Manager) setStatus(ctx context.Context, id uuid.UUID, status Status, reason string) error {
	if err := m.repo.UpdateStatus(ctx, id, status, reason); err != nil {
		m.logger.Error("Failed to update upload status",
			zap.String("upload_id", id.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Upload, error) {
	return m.repo.Get(ctx, id)
}

// Cleanup removes upload records older than the given duration
func (m *Manager) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	count, err := m.repo.CleanupOlderThan(ctx, olderThan)
	if err != nil {
		m.logger.Error("Failed to cleanup uploads", zap.Error(err))
		return 0, err
	}

	m.logger.Info("Cleaned up uploads",
		zap.Int64("count", count),
		zap.Duration("older_than", olderThan),
	)
	return count, nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "event-portal-service/internal/domain/portal"
	pkgerrors "event-portal-service/pkg/errors"
)

// Repo stores portal sessions through GORM. It runs on PostgreSQL in
// production and on SQLite for single-node setups and tests.
type Repo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRepo creates a new instance of Repo.
func NewRepo(db *gorm.DB, log *zap.Logger) *Repo {
	return &Repo{db: db, log: log}
}

// SessionSchema represents the database schema for the sessions table.
type SessionSchema struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Token     string    `gorm:"not null"`
	UserID    string    `gorm:"size:64"`
	Email     string    `gorm:"size:254;not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for the SessionSchema model.
func (SessionSchema) TableName() string {
	return "sessions"
}

func toSchema(s *domain.Session) SessionSchema {
	return SessionSchema{
		ID:        s.ID,
		Token:     s.Token,
		UserID:    s.UserID,
		Email:     s.Email,
		CreatedAt: s.CreatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
	}
}

func (m SessionSchema) toDomain() *domain.Session {
	return &domain.Session{
		ID:        m.ID,
		Token:     m.Token,
		UserID:    m.UserID,
		Email:     m.Email,
		CreatedAt: m.CreatedAt.UTC(),
		ExpiresAt: m.ExpiresAt.UTC(),
	}
}

// Migrate creates or updates the sessions table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SessionSchema{}); err != nil {
		return fmt.Errorf("failed to migrate sessions table: %w", err)
	}
	return nil
}

// Create inserts a new session.
func (r *Repo) Create(ctx context.Context, s *domain.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	if s.ID == "" {
		return errors.New("session id is required")
	}

	model := toSchema(s)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create session in db", zap.String("session_id", s.ID), zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.log.Debug("session created in db", zap.String("session_id", s.ID))
	return nil
}

// Get loads a session by id. It returns *errors.NotFoundError when none exists.
func (r *Repo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var model SessionSchema
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewNotFoundError("session", "session not found")
	}
	if err != nil {
		r.log.Error("failed to get session from db", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return model.toDomain(), nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (r *Repo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&SessionSchema{})
	if result.Error != nil {
		r.log.Error("failed to delete session from db", zap.String("session_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}

	r.log.Debug("session deleted from db", zap.String("session_id", id), zap.Int64("rows", result.RowsAffected))
	return nil
}

// PurgeExpired deletes every session that expired at or before now.
func (r *Repo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&SessionSchema{})
	if result.Error != nil {
		r.log.Error("failed to purge expired sessions", zap.Error(result.Error))
		return 0, fmt.Errorf("failed to purge sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		r.log.Info("purged expired sessions", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// Ping checks that the database answers.
func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	domain "event-portal-service/internal/domain/portal"
	pkgerrors "event-portal-service/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive across queries
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestRepo_CreateGet(t *testing.T) {
	repo := NewRepo(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s := &domain.Session{
		ID:        "7f1c2d4e-0000-4000-8000-000000000001",
		Token:     "tok",
		UserID:    "U001",
		Email:     "ana@example.com",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)
	assert.Equal(t, s.UserID, got.UserID)
	assert.Equal(t, s.Email, got.Email)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))
}

func TestRepo_Create_Invalid(t *testing.T) {
	repo := NewRepo(setupTestDB(t), zaptest.NewLogger(t))

	assert.Error(t, repo.Create(context.Background(), nil))
	assert.Error(t, repo.Create(context.Background(), &domain.Session{Token: "tok"}))
}

func TestRepo_Get_NotFound(t *testing.T) {
	repo := NewRepo(setupTestDB(t), zaptest.NewLogger(t))

	_, err := repo.Get(context.Background(), "missing")

	var notFound *pkgerrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRepo_Delete(t *testing.T) {
	repo := NewRepo(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Session{ID: "s1", Token: "tok", Email: "a@b.co", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.Delete(ctx, "s1"))
	require.NoError(t, repo.Delete(ctx, "s1"), "deleting twice is a no-op")

	_, err := repo.Get(ctx, "s1")
	assert.Error(t, err)
}

func TestRepo_PurgeExpired(t *testing.T) {
	repo := NewRepo(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for id, exp := range map[string]time.Time{
		"old":      now.Add(-time.Hour),
		"boundary": now,
		"live":     now.Add(time.Hour),
	} {
		require.NoError(t, repo.Create(ctx, &domain.Session{ID: id, Token: "tok", Email: "a@b.co", CreatedAt: now, ExpiresAt: exp}))
	}

	n, err := repo.PurgeExpired(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, err = repo.Get(ctx, "live")
	assert.NoError(t, err)
	require.NoError(t, repo.Ping(ctx))
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"
)

func TestResetTokenRepo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	repo := NewResetTokenRepo()
	require.NoError(t, repo.SaveResetToken(ctx, models.ResetToken{
		TokenHash: "live", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(30 * time.Minute),
	}))
	require.NoError(t, repo.SaveResetToken(ctx, models.ResetToken{
		TokenHash: "stale", UserID: "u1", CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-30 * time.Minute),
	}))

	_, err := repo.ConsumeResetToken(ctx, "stale", now)
	assert.ErrorIs(t, err, storage.ErrTokenAlreadyUsedOrExpired)
	assert.Equal(t, 2, repo.Len(), "expired record stays until swept")

	rec, err := repo.ConsumeResetToken(ctx, "live", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.UserID)

	_, err = repo.ConsumeResetToken(ctx, "live", now)
	assert.ErrorIs(t, err, storage.ErrTokenAlreadyUsedOrExpired)

	n, err := repo.DeleteExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, repo.Len())
}

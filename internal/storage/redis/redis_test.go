package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"
)

var (
	now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rec = models.ResetToken{
		TokenHash: "abc123",
		UserID:    "u1",
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
)

func encoded(t *testing.T, v models.ResetToken) []byte {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return data
}

func TestSaveResetToken(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewWithClient(client)

	mock.ExpectSet("reset:abc123", encoded(t, rec), 30*time.Minute).SetVal("OK")

	require.NoError(t, repo.SaveResetToken(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveResetToken_AlreadyExpired(t *testing.T) {
	client, _ := redismock.NewClientMock()
	repo := NewWithClient(client)

	stale := rec
	stale.ExpiresAt = stale.CreatedAt

	assert.Error(t, repo.SaveResetToken(context.Background(), stale))
}

func TestConsumeResetToken(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock redismock.ClientMock)
		at      time.Time
		wantErr error
	}{
		{
			name: "live token",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGetDel("reset:abc123").SetVal(string(encoded(t, rec)))
			},
			at: now.Add(time.Minute),
		},
		{
			name: "missing key",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGetDel("reset:abc123").RedisNil()
			},
			at:      now,
			wantErr: storage.ErrTokenAlreadyUsedOrExpired,
		},
		{
			name: "past expiry but not yet evicted",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGetDel("reset:abc123").SetVal(string(encoded(t, rec)))
			},
			at:      now.Add(30 * time.Minute),
			wantErr: storage.ErrTokenAlreadyUsedOrExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			repo := NewWithClient(client)
			tt.setup(mock)

			got, err := repo.ConsumeResetToken(context.Background(), "abc123", tt.at)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "u1", got.UserID)
			assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
		})
	}
}

func TestConsumeResetToken_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewWithClient(client)

	mock.ExpectGetDel("reset:abc123").SetErr(errors.New("connection reset"))
	mock.ExpectGetDel("reset:abc123").SetVal("{not json")

	_, err := repo.ConsumeResetToken(context.Background(), "abc123", now)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrTokenAlreadyUsedOrExpired)

	_, err = repo.ConsumeResetToken(context.Background(), "abc123", now)
	assert.ErrorContains(t, err, "decode")
}

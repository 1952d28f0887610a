package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"

	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "reset:"

type RedisRepo struct {
	client redis.Cmdable
	closer func() error
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
		closer: client.Close,
	}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.Cmdable) *RedisRepo {
	return &RedisRepo{client: client}
}

func resetKey(tokenHash string) string {
	return resetKeyPrefix + tokenHash
}

// SaveResetToken stores the record with a key TTL matching its expiry. The
// TTL is housekeeping only; expiry is re-checked on consume.
func (r *RedisRepo) SaveResetToken(ctx context.Context, t models.ResetToken) error {
	const op = "storage.redis.SaveResetToken"

	ttl := t.ExpiresAt.Sub(t.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("%s: token already expired", op)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, resetKey(t.TokenHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeResetToken uses GETDEL, so at most one caller receives the record.
func (r *RedisRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (models.ResetToken, error) {
	const op = "storage.redis.ConsumeResetToken"

	data, err := r.client.GetDel(ctx, resetKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.ResetToken{}, storage.ErrTokenAlreadyUsedOrExpired
		}

		return models.ResetToken{}, fmt.Errorf("%s: %w", op, err)
	}

	var t models.ResetToken
	if err := json.Unmarshal(data, &t); err != nil {
		return models.ResetToken{}, fmt.Errorf("%s: decode: %w", op, err)
	}

	if t.IsExpired(now) {
		return models.ResetToken{}, storage.ErrTokenAlreadyUsedOrExpired
	}

	return t, nil
}

// DeleteExpiredResetTokens is a no-op: redis evicts keys by TTL.
func (r *RedisRepo) DeleteExpiredResetTokens(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisRepo) Close() {
	if r.closer != nil {
		_ = r.closer()
	}
}

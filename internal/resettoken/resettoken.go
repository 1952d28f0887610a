package resettoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/lib/metrics"
	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"
)

const (
	DefaultTTL = models.ResetTokenTTL
	tokenBytes = 32
)

// Repository persists reset token records. ConsumeResetToken must find and
// delete a record whose expires_at is after now in one atomic step, returning
// storage.ErrTokenAlreadyUsedOrExpired when there is none.
type Repository interface {
	SaveResetToken(ctx context.Context, token models.ResetToken) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (models.ResetToken, error)
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Store issues single-use, time-windowed password reset tokens. It is the
// only writer of reset token records.
type Store struct {
	log  *slog.Logger
	repo Repository
	ttl  time.Duration
	now  func() time.Time
	rand io.Reader
}

func New(log *slog.Logger, repo Repository, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{
		log:  log,
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		rand: rand.Reader,
	}
}

// Issue creates a token for userID and returns its raw value. Only the hash
// is persisted.
func (s *Store) Issue(ctx context.Context, userID string) (string, error) {
	const op = "resettoken.Issue"

	raw := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.rand, raw); err != nil {
		return "", fmt.Errorf("%s: generate token: %w", op, err)
	}

	token := base64.RawURLEncoding.EncodeToString(raw)
	now := s.now().UTC()

	rec := models.ResetToken{
		TokenHash: Hash(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.repo.SaveResetToken(ctx, rec); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordReset(metrics.ResetIssued, 1)

	return token, nil
}

// Consume validates and invalidates token in one step and returns the owning
// user. A second call with the same token fails with
// storage.ErrTokenAlreadyUsedOrExpired.
func (s *Store) Consume(ctx context.Context, token string) (string, error) {
	const op = "resettoken.Consume"

	if token == "" {
		metrics.RecordReset(metrics.ResetRejected, 1)
		return "", fmt.Errorf("%s: %w", op, storage.ErrTokenAlreadyUsedOrExpired)
	}

	now := s.now().UTC()

	rec, err := s.repo.ConsumeResetToken(ctx, Hash(token), now)
	if err != nil {
		if errors.Is(err, storage.ErrTokenAlreadyUsedOrExpired) {
			metrics.RecordReset(metrics.ResetRejected, 1)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Backends that delete unconditionally (redis GETDEL) rely on this check.
	if rec.IsExpired(now) {
		metrics.RecordReset(metrics.ResetRejected, 1)
		return "", fmt.Errorf("%s: %w", op, storage.ErrTokenAlreadyUsedOrExpired)
	}

	metrics.RecordReset(metrics.ResetConsumed, 1)

	return rec.UserID, nil
}

// Sweep removes expired records. Correctness never depends on it.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	const op = "resettoken.Sweep"

	n, err := s.repo.DeleteExpiredResetTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordReset(metrics.ResetSwept, int(n))

	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// interval disables sweeping and returns at once.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) error {
	const op = "resettoken.RunSweeper"

	log := s.log.With(slog.String("op", op))

	if interval <= 0 {
		log.Info("reset token sweeper disabled", slog.Duration("interval", interval))
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reset token sweeper stopped")
			return nil
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Error("failed to sweep expired reset tokens", sl.Err(err))
				continue
			}

			if n > 0 {
				log.Debug("expired reset tokens swept", slog.Int64("deleted", n))
			}
		}
	}
}

// Hash returns the hex SHA-256 of a raw token, the form stored by repositories.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

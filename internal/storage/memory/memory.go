package memory

import (
	"context"
	"sync"
	"time"

	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"
)

// ResetTokenRepo keeps reset tokens in process memory. Used for local runs
// and tests; records do not survive a restart.
type ResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]models.ResetToken
}

func NewResetTokenRepo() *ResetTokenRepo {
	return &ResetTokenRepo{
		tokens: make(map[string]models.ResetToken),
	}
}

func (r *ResetTokenRepo) SaveResetToken(_ context.Context, token models.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.TokenHash] = token

	return nil
}

func (r *ResetTokenRepo) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time) (models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[tokenHash]
	if !ok || rec.IsExpired(now) {
		return models.ResetToken{}, storage.ErrTokenAlreadyUsedOrExpired
	}

	delete(r.tokens, tokenHash)

	return rec, nil
}

func (r *ResetTokenRepo) DeleteExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, rec := range r.tokens {
		if rec.IsExpired(now) {
			delete(r.tokens, hash)
			n++
		}
	}

	return n, nil
}

// Len reports the number of stored records, expired ones included.
func (r *ResetTokenRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tokens)
}

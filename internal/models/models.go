package models

import "time"

type User struct {
	ID        string
	Username  string
	Email     string
	PassHash  string
	Salt      string
	CreatedAt time.Time
}

// ResetToken is a stored password-reset record. Only the hash of the token is kept.
type ResetToken struct {
	TokenHash string    `json:"token_hash"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the token is past its window at now.
func (t ResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

const PurposePasswordReset = "password_reset"

// ResetTokenTTL is how long a password reset link stays usable.
const ResetTokenTTL = 30 * time.Minute

// Message is the payload published to the mail queue.
type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}

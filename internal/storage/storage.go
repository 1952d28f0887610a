package storage

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	ErrUsernameTaken = fmt.Errorf("username taken: %w", ErrUserExists)
	ErrEmailTaken    = fmt.Errorf("email taken: %w", ErrUserExists)

	// ErrTokenAlreadyUsedOrExpired covers unknown, consumed and expired reset tokens alike.
	ErrTokenAlreadyUsedOrExpired = errors.New("reset token already used or expired")
)

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/lib/metrics"
	"playlist_auth/internal/lib/password"
	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserExists            = storage.ErrUserExists
	ErrValidation            = errors.New("validation failed")
	ErrPasswordMismatch      = fmt.Errorf("passwords do not match: %w", ErrValidation)
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
)

// timingSalt and timingDigest are verified against when the user does not
// exist, so unknown usernames cost the same KDF work as wrong passwords.
const (
	timingSalt   = "00000000000000000000000000000000"
	timingDigest = ""
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	hasher      PasswordHasher
	tokens      TokenIssuer
	resets      ResetTokenStore
	publisher   Publisher
	resetURL    string
}

type UserSaver interface {
	SaveUser(ctx context.Context, u models.User) error
	UpdatePassword(ctx context.Context, userID, passHash, salt string) error
	DeleteUser(ctx context.Context, userID string) error
}

type UserProvider interface {
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type PasswordHasher interface {
	Hash(password string) (password.Hash, error)
	Verify(password, salt, digest string) (bool, error)
}

type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}

type ResetTokenStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// New builds the credential service. resetURL is the public base URL the
// reset link is built from.
func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	hasher PasswordHasher,
	tokens TokenIssuer,
	resets ResetTokenStore,
	publisher Publisher,
	resetURL string,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		hasher:      hasher,
		tokens:      tokens,
		resets:      resets,
		publisher:   publisher,
		resetURL:    strings.TrimRight(resetURL, "/"),
	}
}

// RegisterNewUser stores a new user with a freshly salted password hash.
// The pre-checks are a fast path; the unique constraints in storage decide.
func (a *Auth) RegisterNewUser(
	ctx context.Context,
	username string,
	email string,
	pass string,
) (models.User, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("registering new user")

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if err := a.checkAvailable(ctx, username, email); err != nil {
		if errors.Is(err, ErrUserExists) {
			log.Warn("user already exists", sl.Err(err))
			metrics.RecordRegistration(metrics.StatusRejected)
		} else {
			metrics.RecordRegistration(metrics.StatusError)
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := a.hasher.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		metrics.RecordRegistration(metrics.StatusError)

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		PassHash: hashed.Digest,
		Salt:     hashed.Salt,
	}

	if err := a.usrSaver.SaveUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			log.Warn("user already exists", sl.Err(err))
			metrics.RecordRegistration(metrics.StatusRejected)

			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}

		log.Error("failed to save user", sl.Err(err))
		metrics.RecordRegistration(metrics.StatusError)

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordRegistration(metrics.StatusSuccess)
	log.Info("user registered", slog.String("uid", user.ID))

	return user, nil
}

func (a *Auth) checkAvailable(ctx context.Context, username, email string) error {
	taken, err := a.usrProvider.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return storage.ErrUsernameTaken
	}

	taken, err = a.usrProvider.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return storage.ErrEmailTaken
	}

	return nil
}

// Login verifies the password and returns a session token. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, username, pass string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")

			if _, err := a.hasher.Verify(pass, timingSalt, timingDigest); err != nil {
				log.Error("failed to verify password", sl.Err(err))
			}

			metrics.RecordLogin(metrics.StatusFailure)

			return "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		metrics.RecordLogin(metrics.StatusError)

		return "", fmt.Errorf("%s: %w", op, err)
	}

	ok, err := a.hasher.Verify(pass, user.Salt, user.PassHash)
	if err != nil {
		log.Error("failed to verify password", sl.Err(err))
		metrics.RecordLogin(metrics.StatusError)

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		log.Info("invalid password", slog.String("uid", user.ID))
		metrics.RecordLogin(metrics.StatusFailure)

		return "", ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		metrics.RecordLogin(metrics.StatusError)

		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordLogin(metrics.StatusSuccess)
	log.Info("user logged in successfully", slog.String("uid", user.ID))

	return token, nil
}

// RequestReset mails a reset link when identifier (email or username)
// matches an account. Unknown accounts are not reported.
func (a *Auth) RequestReset(ctx context.Context, identifier string) error {
	const op = "auth.RequestReset"

	log := a.log.With(slog.String("op", op))

	user, err := a.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("reset requested for unknown account")
			return nil
		}

		log.Error("failed to get user", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.resets.Issue(ctx, user.ID)
	if err != nil {
		log.Error("failed to issue reset token", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Email:   user.Email,
		Link:    a.resetLink(token, user.Email),
		Purpose: models.PurposePasswordReset,
	}

	if err := a.publisher.SendMessage(ctx, msg); err != nil {
		log.Error("failed to send reset link", sl.Err(err))
		metrics.RecordReset(metrics.ResetMailFail, 1)

		return nil
	}

	log.Info("reset link sent", slog.String("uid", user.ID))

	return nil
}

func (a *Auth) lookup(ctx context.Context, identifier string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)

	if strings.Contains(identifier, "@") {
		return a.usrProvider.UserByEmail(ctx, normalizeEmail(identifier))
	}

	return a.usrProvider.UserByUsername(ctx, identifier)
}

func (a *Auth) resetLink(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)

	return a.resetURL + "/reset-password?" + q.Encode()
}

// CompleteReset consumes the reset token and replaces the stored salt and
// hash. The token cannot be used again whatever the outcome of the update.
func (a *Auth) CompleteReset(ctx context.Context, token, newPass, newPassRepeat string) error {
	const op = "auth.CompleteReset"

	log := a.log.With(slog.String("op", op))

	if newPass != newPassRepeat {
		return fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	userID, err := a.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenAlreadyUsedOrExpired) {
			log.Warn("reset token rejected")
			return fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredToken)
		}

		log.Error("failed to consume reset token", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := a.hasher.Hash(newPass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.UpdatePassword(ctx, userID, hashed.Digest, hashed.Salt); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("reset token owner no longer exists", slog.String("uid", userID))
			return fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredToken)
		}

		log.Error("failed to update password", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.String("uid", userID))

	return nil
}

// ChangePassword replaces the credential of an authenticated user with a
// freshly salted hash of newPass.
func (a *Auth) ChangePassword(ctx context.Context, userID, newPass, newPassRepeat string) error {
	const op = "auth.ChangePassword"

	log := a.log.With(
		slog.String("op", op),
		slog.String("uid", userID),
	)

	if newPass != newPassRepeat {
		return fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	hashed, err := a.hasher.Hash(newPass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.UpdatePassword(ctx, userID, hashed.Digest, hashed.Salt); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
		} else {
			log.Error("failed to update password", sl.Err(err))
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password changed")

	return nil
}

// DeleteUser removes the account. Outstanding reset tokens go with it.
// Issued session tokens stay verifiable until they expire, but no longer
// resolve to a user.
func (a *Auth) DeleteUser(ctx context.Context, userID string) error {
	const op = "auth.DeleteUser"

	log := a.log.With(
		slog.String("op", op),
		slog.String("uid", userID),
	)

	if err := a.usrSaver.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
		} else {
			log.Error("failed to delete user", sl.Err(err))
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user deleted")

	return nil
}

// User returns the account for an authenticated subject.
func (a *Auth) User(ctx context.Context, id string) (models.User, error) {
	const op = "auth.User"

	user, err := a.usrProvider.UserByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

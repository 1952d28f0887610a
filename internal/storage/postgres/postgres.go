package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"playlist_auth/internal/config"
	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

// DB is the subset of *pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type PostgresRepo struct {
	pool DB
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// NewWithDB wraps an existing pool.
func NewWithDB(db DB) *PostgresRepo {
	return &PostgresRepo{pool: db}
}

func (r *PostgresRepo) SaveUser(ctx context.Context, u models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (id, username, email, password_hash, salt)
		VALUES ($1, $2, $3, $4, $5);
	`

	_, err := r.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.PassHash, u.Salt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case constraintUsername:
				return fmt.Errorf("%s: %w", op, storage.ErrUsernameTaken)
			case constraintEmail:
				return fmt.Errorf("%s: %w", op, storage.ErrEmailTaken)
			default:
				return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
			}
		}

		return fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.userBy(ctx, "storage.postgres.UserByUsername", "username", username)
}

func (r *PostgresRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.userBy(ctx, "storage.postgres.UserByEmail", "email", email)
}

func (r *PostgresRepo) UserByID(ctx context.Context, id string) (models.User, error) {
	return r.userBy(ctx, "storage.postgres.UserByID", "id", id)
}

// userBy is only called with column names fixed at compile time.
func (r *PostgresRepo) userBy(ctx context.Context, op, column, value string) (models.User, error) {
	query := `
		SELECT id, username, email, password_hash, salt, created_at
		FROM users
		WHERE ` + column + ` = $1;
	`

	var u models.User
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PassHash,
		&u.Salt,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "storage.postgres.UsernameExists",
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1);`, username)
}

func (r *PostgresRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "storage.postgres.EmailExists",
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1);`, email)
}

func (r *PostgresRepo) exists(ctx context.Context, op, query, value string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, value).Scan(&ok); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// UpdatePassword replaces hash and salt together.
func (r *PostgresRepo) UpdatePassword(ctx context.Context, userID, passHash, salt string) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
		UPDATE users
		SET password_hash = $1, salt = $2, updated_at = NOW()
		WHERE id = $3;
	`

	tag, err := r.pool.Exec(ctx, query, passHash, salt, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// DeleteUser removes the user; reset_tokens rows cascade.
func (r *PostgresRepo) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.postgres.DeleteUser"

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1;`, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (r *PostgresRepo) SaveResetToken(ctx context.Context, t models.ResetToken) error {
	const op = "storage.postgres.SaveResetToken"

	query := `
		INSERT INTO reset_tokens (token_hash, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4);
	`

	if _, err := r.pool.Exec(ctx, query, t.TokenHash, t.UserID, t.CreatedAt, t.ExpiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeResetToken deletes and returns a live token in a single statement,
// so concurrent callers cannot both observe it.
func (r *PostgresRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (models.ResetToken, error) {
	const op = "storage.postgres.ConsumeResetToken"

	query := `
		DELETE FROM reset_tokens
		WHERE token_hash = $1 AND expires_at > $2
		RETURNING token_hash, user_id, created_at, expires_at;
	`

	var t models.ResetToken
	err := r.pool.QueryRow(ctx, query, tokenHash, now).Scan(
		&t.TokenHash,
		&t.UserID,
		&t.CreatedAt,
		&t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ResetToken{}, storage.ErrTokenAlreadyUsedOrExpired
		}

		return models.ResetToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

func (r *PostgresRepo) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredResetTokens"

	tag, err := r.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE expires_at <= $1;`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// dsn builds the keyword/value connection string for pgxpool.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}

// MigrationURL is the pgx5:// form of the connection settings used by golang-migrate.
func MigrationURL(cfg *config.Config) string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(cfg.Postgres.User, cfg.Postgres.Password),
		Host:     cfg.Postgres.Host + ":" + strconv.Itoa(cfg.Postgres.Port),
		Path:     "/" + cfg.Postgres.DBName,
		RawQuery: url.Values{"sslmode": []string{cfg.Postgres.SSLMode}}.Encode(),
	}

	return u.String()
}

package userrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yanqian/userauth/internal/domain/auth"
	apperrors "github.com/yanqian/userauth/pkg/errors"
)

// Querier is the single-round-trip surface the repository needs. It is
// satisfied by *database.Pool, *pgxpool.Pool and pgxmock pools.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert adds a user row and returns it as stored.
func (r *PostgresRepository) Insert(ctx context.Context, record auth.UserRecord) (auth.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, pass_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, pass_hash, created_at
	`, record.Username, record.Email, record.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return auth.User{}, apperrors.Wrap(auth.CodeUserExists, auth.ErrUserExists.Message, err)
		}
		return auth.User{}, err
	}
	return user, nil
}

// GetByUsername fetches a user by username.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (auth.User, bool, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, email, pass_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
	return lookup(row)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (auth.User, bool, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, email, pass_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
	return lookup(row)
}

// UpdatePasswordHash replaces the stored hash of an existing user.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	var updated uuid.UUID
	err := r.db.QueryRow(ctx, `
		UPDATE users SET pass_hash = $2
		WHERE id = $1
		RETURNING id
	`, id, hash).Scan(&updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update password hash: user %s not found", id)
	}
	return err
}

func lookup(row pgx.Row) (auth.User, bool, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	return user, true, nil
}

func scanUser(row pgx.Row) (auth.User, error) {
	var user auth.User
	var created time.Time
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &created); err != nil {
		return auth.User{}, err
	}
	user.CreatedAt = created.UTC()
	return user, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)

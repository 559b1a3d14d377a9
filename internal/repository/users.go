package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserRepository persists user accounts.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository constructs a PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new user. A duplicate username yields ErrUserExists.
func (r *PostgresUserRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByUsername returns a user by username or ErrNotFound.
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, `WHERE username = $1`, username)
}

// GetByID returns a user by id or ErrNotFound.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

// GetByRefreshToken returns the user holding the given refresh token.
func (r *PostgresUserRepository) GetByRefreshToken(ctx context.Context, token string) (*model.User, error) {
	return r.get(ctx, `WHERE refresh_token = $1`, token)
}

func (r *PostgresUserRepository) get(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u       model.User
		refresh *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, role, refresh_token, created_at FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &refresh, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if refresh != nil {
		u.RefreshToken = *refresh
	}
	return &u, nil
}

// Update persists username, password hash, and role.
func (r *PostgresUserRepository) Update(ctx context.Context, u *model.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET username = $2, password_hash = $3, role = $4 WHERE id = $1`,
		u.ID, u.Username, u.PasswordHash, u.Role,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken stores (or, with an empty token, revokes) the user's
// refresh token.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	var value *string
	if token != "" {
		value = &token
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = $2 WHERE id = $1`,
		id, value,
	)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

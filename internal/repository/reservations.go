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

// uniqueViolation is the PostgreSQL error code raised when an insert hits
// the partial unique index on active (user_id, event_id) pairs.
const uniqueViolation = "23505"

// PostgresReservationRepository persists reservations.
type PostgresReservationRepository struct {
	db *pgxpool.Pool
}

// NewPostgresReservationRepository constructs a PostgresReservationRepository.
func NewPostgresReservationRepository(db *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{db: db}
}

// Record inserts an active reservation. The check for an existing active
// reservation and the insert are one atomic operation: the partial unique
// index reservations_active_holder enforces at most one active row per
// (user, event) pair, and the resulting unique violation is mapped to
// ErrDuplicateActive.
func (r *PostgresReservationRepository) Record(ctx context.Context, userID, eventID string) (*model.Reservation, error) {
	res := &model.Reservation{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Status:    model.StatusActive,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO reservations (id, event_id, user_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.EventID, res.UserID, res.Status, res.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateActive
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	return res, nil
}

// GetByID returns a single reservation or ErrNotFound.
func (r *PostgresReservationRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, user_id, status, created_at, released_at
		 FROM reservations WHERE id = $1`,
		id,
	).Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &res.CreatedAt, &res.ReleasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// MarkReleased transitions an active reservation to released. The status
// predicate makes the transition single-shot: a second call finds no active
// row and reports ErrAlreadyReleased instead of silently succeeding.
func (r *PostgresReservationRepository) MarkReleased(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations
		 SET status = $2, released_at = $3
		 WHERE id = $1 AND status = $4`,
		id, model.StatusReleased, time.Now().UTC(), model.StatusActive,
	)
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyReleased
}

// ListActiveFor returns the user's active reservations, oldest first.
func (r *PostgresReservationRepository) ListActiveFor(ctx context.Context, userID string) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, user_id, status, created_at, released_at
		 FROM reservations
		 WHERE user_id = $1 AND status = $2
		 ORDER BY created_at ASC`,
		userID, model.StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &res.CreatedAt, &res.ReleasedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// CountActiveForEvent returns how many active reservations reference the event.
func (r *PostgresReservationRepository) CountActiveForEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = $2`,
		eventID, model.StatusActive,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

// PostgresLeakLog appends leaked-slot records to the capacity_leaks table
// for out-of-band reconciliation.
type PostgresLeakLog struct {
	db *pgxpool.Pool
}

// NewPostgresLeakLog constructs a PostgresLeakLog.
func NewPostgresLeakLog(db *pgxpool.Pool) *PostgresLeakLog {
	return &PostgresLeakLog{db: db}
}

// Record appends one leaked slot for the event.
func (l *PostgresLeakLog) Record(ctx context.Context, eventID, cause string) error {
	_, err := l.db.Exec(ctx,
		`INSERT INTO capacity_leaks (event_id, cause, created_at) VALUES ($1, $2, $3)`,
		eventID, cause, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record leak: %w", err)
	}
	return nil
}

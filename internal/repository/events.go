package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresEventRepository persists events and implements the capacity
// ledger with single-statement conditional updates.
type PostgresEventRepository struct {
	db *pgxpool.Pool
}

// NewPostgresEventRepository constructs a PostgresEventRepository.
func NewPostgresEventRepository(db *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Create inserts a new event with available_slots initialised to capacity.
func (r *PostgresEventRepository) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.AvailableSlots = e.Capacity

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, name, description, location, date, capacity, available_slots, organizer_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Name, e.Description, e.Location, e.Date, e.Capacity, e.AvailableSlots, e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns all events ordered by creation time descending.
func (r *PostgresEventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, description, location, date, capacity, available_slots, organizer_id, created_at, updated_at
		 FROM events
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Location, &e.Date,
			&e.Capacity, &e.AvailableSlots, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description, location, date, capacity, available_slots, organizer_id, created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Description, &e.Location, &e.Date,
		&e.Capacity, &e.AvailableSlots, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// Update persists the mutable event attributes. Capacity and the slot
// counter are excluded: the ledger owns the counter, and capacity is
// immutable after creation.
func (r *PostgresEventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET name = $2, description = $3, location = $4, date = $5, updated_at = $6
		 WHERE id = $1`,
		e.ID, e.Name, e.Description, e.Location, e.Date, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event. Callers are responsible for ensuring no active
// reservations reference it.
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TryClaim performs the conditional decrement as one statement.
//
// The WHERE clause is the whole trick: the predicate and the decrement are
// evaluated under the row lock the UPDATE itself takes, so two concurrent
// claims can never both see the last slot. There is no read-then-write
// window to race through.
func (r *PostgresEventRepository) TryClaim(ctx context.Context, id string) (int, error) {
	var remaining int
	err := r.db.QueryRow(ctx,
		`UPDATE events
		 SET available_slots = available_slots - 1, updated_at = $2
		 WHERE id = $1 AND available_slots > 0
		 RETURNING available_slots`,
		id, time.Now().UTC(),
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("claim slot: %w", err)
	}

	// No row matched: either the event is unknown or it is full.
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("claim slot: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrExhausted
}

// Release performs the conditional increment, capped at capacity so a
// stray double-release can never over-credit.
func (r *PostgresEventRepository) Release(ctx context.Context, id string) (int, error) {
	var remaining int
	err := r.db.QueryRow(ctx,
		`UPDATE events
		 SET available_slots = available_slots + 1, updated_at = $2
		 WHERE id = $1 AND available_slots < capacity
		 RETURNING available_slots`,
		id, time.Now().UTC(),
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("release slot: %w", err)
	}

	// Already at full capacity, or the event is gone.
	var capacity int
	if err := r.db.QueryRow(ctx,
		`SELECT capacity FROM events WHERE id = $1`, id,
	).Scan(&capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("release slot: %w", err)
	}
	return capacity, nil
}

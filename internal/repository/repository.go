// Package repository defines the persistence boundary of the reservation
// system and implements it for PostgreSQL (pgx, no ORM) and in-memory
// backends. The capacity ledger operations TryClaim and Release are the
// only sanctioned way to change an event's remaining slot count.
package repository

import (
	"context"
	"errors"

	"github.com/MariferVL/eventhub/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrExhausted is returned by TryClaim when an event has no remaining slots.
// It is an expected business outcome, not a storage failure.
var ErrExhausted = errors.New("no slots remaining")

// ErrDuplicateActive is returned when a user already holds an active
// reservation for the event.
var ErrDuplicateActive = errors.New("active reservation already exists")

// ErrAlreadyReleased is returned when releasing a reservation that has
// already been released.
var ErrAlreadyReleased = errors.New("reservation already released")

// ErrUserExists is returned when the username is already taken.
var ErrUserExists = errors.New("username already taken")

// EventRepository is the capacity ledger plus plain event persistence.
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// Update persists name/description/location/date. Capacity and
	// available slots are never touched here.
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error

	// TryClaim atomically decrements the event's available slots, only if
	// at least one remains, and returns the new remaining count. Under N
	// concurrent callers with R slots remaining exactly min(N, R) succeed;
	// the rest get ErrExhausted.
	TryClaim(ctx context.Context, id string) (remaining int, err error)

	// Release atomically increments available slots, capped at capacity,
	// and returns the new remaining count. A release against an event
	// already at full capacity is a no-op returning the capacity.
	Release(ctx context.Context, id string) (remaining int, err error)
}

// ReservationRepository is the durable record of who holds which slot.
type ReservationRepository interface {
	// Record inserts an active reservation. The duplicate check and the
	// insert are a single atomic operation; a second active reservation
	// for the same (user, event) pair yields ErrDuplicateActive.
	Record(ctx context.Context, userID, eventID string) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	// MarkReleased transitions an active reservation to released. It fails
	// with ErrAlreadyReleased rather than no-opping, so callers can
	// guarantee capacity is credited back at most once per reservation.
	MarkReleased(ctx context.Context, id string) error
	// ListActiveFor returns the user's active reservations, oldest first.
	ListActiveFor(ctx context.Context, userID string) ([]model.Reservation, error)
	CountActiveForEvent(ctx context.Context, eventID string) (int, error)
}

// UserRepository handles account persistence.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	SetRefreshToken(ctx context.Context, id, token string) error
	GetByRefreshToken(ctx context.Context, token string) (*model.User, error)
}

// LeakLog records capacity units that leaked when the compensating release
// of a failed claim itself failed. Entries are reconciled out of band; the
// log is append-only.
type LeakLog interface {
	Record(ctx context.Context, eventID, cause string) error
}

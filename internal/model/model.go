// Package model defines the core domain types for the event reservation system.
package model

import "time"

// User roles.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
)

// Reservation statuses. A reservation is created active and, once released,
// never transitions again.
const (
	StatusActive   = "active"
	StatusReleased = "released"
)

// User is an authenticated principal. The password hash and refresh token
// never leave the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event represents a reservable event created by an organizer.
// Capacity is immutable after creation; AvailableSlots is mutated only
// through the ledger's claim/release operations.
type Event struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	Capacity       int       `json:"capacity"`
	AvailableSlots int       `json:"available_slots"`
	OrganizerID    string    `json:"organizer_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsFull returns true when no slots remain.
func (e *Event) IsFull() bool {
	return e.AvailableSlots <= 0
}

// Reservation records that a user holds one slot of an event.
type Reservation struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	UserID     string     `json:"user_id"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

// Active reports whether the reservation still holds its slot.
func (r *Reservation) Active() bool {
	return r.Status == StatusActive
}

// SlotsChange is the payload broadcast to the notification sink after every
// successful claim or release.
type SlotsChange struct {
	EventID   string `json:"event_id"`
	Remaining int    `json:"remaining"`
}

// ─── Request payloads ─────────────────────────────────────────────────────────

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user organizer"`
}

// LoginRequest is the payload for authenticating.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token to exchange for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateProfileRequest is the payload for PUT /users/me. Empty fields are
// left unchanged.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=64"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"max=200"`
	Date        time.Time `json:"date" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,gt=0,lte=100000"`
}

// UpdateEventRequest is the payload for updating an event. Capacity is
// deliberately absent: total capacity cannot change after creation.
type UpdateEventRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"max=200"`
	Date        time.Time `json:"date" validate:"required"`
}

// ReserveRequest is the payload for claiming a slot.
type ReserveRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

// ─── Response payloads ────────────────────────────────────────────────────────

// TokenPair is returned on successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ReserveResponse confirms a successful claim.
type ReserveResponse struct {
	Reservation Reservation `json:"reservation"`
	Remaining   int         `json:"remaining"`
}

// CancelResponse confirms a successful release.
type CancelResponse struct {
	Remaining int `json:"remaining"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

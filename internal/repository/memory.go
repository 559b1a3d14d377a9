package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/google/uuid"
)

// The in-memory backend serves tests and local development without a
// database. Every operation takes the store mutex, so the conditional
// decrement in TryClaim is exactly as indivisible as the SQL statement it
// stands in for.

// MemoryEventRepository is an in-memory EventRepository.
type MemoryEventRepository struct {
	mu     sync.Mutex
	events map[string]*model.Event
}

// NewMemoryEventRepository constructs an empty MemoryEventRepository.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]*model.Event)}
}

// Create stores a new event with available slots set to capacity.
func (r *MemoryEventRepository) Create(ctx context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.AvailableSlots = e.Capacity

	cp := *e
	r.events[e.ID] = &cp
	return nil
}

// List returns all events ordered by creation time descending.
func (r *MemoryEventRepository) List(ctx context.Context) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetByID returns a copy of the event or ErrNotFound.
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Update persists the mutable attributes only.
func (r *MemoryEventRepository) Update(ctx context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.events[e.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = e.Name
	cur.Description = e.Description
	cur.Location = e.Location
	cur.Date = e.Date
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the event.
func (r *MemoryEventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.events, id)
	return nil
}

// TryClaim decrements available slots if any remain, under the store lock.
func (r *MemoryEventRepository) TryClaim(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return 0, ErrNotFound
	}
	if e.AvailableSlots <= 0 {
		return 0, ErrExhausted
	}
	e.AvailableSlots--
	e.UpdatedAt = time.Now().UTC()
	return e.AvailableSlots, nil
}

// Release increments available slots, capped at capacity.
func (r *MemoryEventRepository) Release(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return 0, ErrNotFound
	}
	if e.AvailableSlots < e.Capacity {
		e.AvailableSlots++
		e.UpdatedAt = time.Now().UTC()
	}
	return e.AvailableSlots, nil
}

// MemoryReservationRepository is an in-memory ReservationRepository.
type MemoryReservationRepository struct {
	mu           sync.Mutex
	reservations map[string]*model.Reservation
	// active holds "userID|eventID" keys for active reservations, mirroring
	// the partial unique index of the Postgres backend.
	active map[string]string
}

// NewMemoryReservationRepository constructs an empty MemoryReservationRepository.
func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[string]*model.Reservation),
		active:       make(map[string]string),
	}
}

func activeKey(userID, eventID string) string { return userID + "|" + eventID }

// Record inserts an active reservation; the duplicate check and insert
// happen under the same lock acquisition.
func (r *MemoryReservationRepository) Record(ctx context.Context, userID, eventID string) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := activeKey(userID, eventID)
	if _, ok := r.active[key]; ok {
		return nil, ErrDuplicateActive
	}

	res := &model.Reservation{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Status:    model.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	r.reservations[res.ID] = res
	r.active[key] = res.ID

	cp := *res
	return &cp, nil
}

// GetByID returns a copy of the reservation or ErrNotFound.
func (r *MemoryReservationRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

// MarkReleased transitions active → released, once.
func (r *MemoryReservationRepository) MarkReleased(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[id]
	if !ok {
		return ErrNotFound
	}
	if res.Status != model.StatusActive {
		return ErrAlreadyReleased
	}
	now := time.Now().UTC()
	res.Status = model.StatusReleased
	res.ReleasedAt = &now
	delete(r.active, activeKey(res.UserID, res.EventID))
	return nil
}

// ListActiveFor returns the user's active reservations, oldest first.
func (r *MemoryReservationRepository) ListActiveFor(ctx context.Context, userID string) ([]model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Reservation
	for _, res := range r.reservations {
		if res.UserID == userID && res.Status == model.StatusActive {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CountActiveForEvent returns how many active reservations reference the event.
func (r *MemoryReservationRepository) CountActiveForEvent(ctx context.Context, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, res := range r.reservations {
		if res.EventID == eventID && res.Status == model.StatusActive {
			n++
		}
	}
	return n, nil
}

// MemoryUserRepository is an in-memory UserRepository.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User
}

// NewMemoryUserRepository constructs an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*model.User)}
}

// Create stores a new user, rejecting duplicate usernames.
func (r *MemoryUserRepository) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username {
			return ErrUserExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now().UTC()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

// GetByUsername returns a user by username or ErrNotFound.
func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// GetByID returns a user by id or ErrNotFound.
func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByRefreshToken returns the user holding the given refresh token.
func (r *MemoryUserRepository) GetByRefreshToken(ctx context.Context, token string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token == "" {
		return nil, ErrNotFound
	}
	for _, u := range r.users {
		if u.RefreshToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// Update persists username, password hash, and role.
func (r *MemoryUserRepository) Update(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range r.users {
		if id != u.ID && existing.Username == u.Username {
			return ErrUserExists
		}
	}
	cur.Username = u.Username
	cur.PasswordHash = u.PasswordHash
	cur.Role = u.Role
	return nil
}

// SetRefreshToken stores or revokes the user's refresh token.
func (r *MemoryUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

// MemoryLeakLog collects leaked-slot records in memory.
type MemoryLeakLog struct {
	mu    sync.Mutex
	leaks []LeakRecord
}

// LeakRecord is one leaked capacity unit awaiting reconciliation.
type LeakRecord struct {
	EventID   string
	Cause     string
	CreatedAt time.Time
}

// NewMemoryLeakLog constructs an empty MemoryLeakLog.
func NewMemoryLeakLog() *MemoryLeakLog {
	return &MemoryLeakLog{}
}

// Record appends one leaked slot for the event.
func (l *MemoryLeakLog) Record(ctx context.Context, eventID, cause string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.leaks = append(l.leaks, LeakRecord{EventID: eventID, Cause: cause, CreatedAt: time.Now().UTC()})
	return nil
}

// Leaks returns a snapshot of recorded leaks.
func (l *MemoryLeakLog) Leaks() []LeakRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LeakRecord, len(l.leaks))
	copy(out, l.leaks)
	return out
}

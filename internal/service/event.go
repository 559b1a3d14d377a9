package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MariferVL/eventhub/internal/cache"
	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/repository"
)

// EventService orchestrates event CRUD. The read path may be served from
// the cache; every mutation invalidates it. Capacity is fixed at creation
// and never changed here; the ledger owns the slot counter.
type EventService struct {
	events       repository.EventRepository
	reservations repository.ReservationRepository
	cache        *cache.EventCache
}

// NewEventService constructs an EventService. The cache may be nil.
func NewEventService(
	events repository.EventRepository,
	reservations repository.ReservationRepository,
	eventCache *cache.EventCache,
) *EventService {
	return &EventService{events: events, reservations: reservations, cache: eventCache}
}

// Create validates the request and stores a new event owned by the organizer.
func (s *EventService) Create(ctx context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error) {
	e := &model.Event{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Capacity:    req.Capacity,
		OrganizerID: organizerID,
	}
	if e.Name == "" {
		return nil, fmt.Errorf("event name is required")
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateList(ctx)
	}
	return e, nil
}

// List returns all events, cache first.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	if s.cache != nil {
		if events, ok := s.cache.GetList(ctx); ok {
			return events, nil
		}
	}
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetList(ctx, events)
	}
	return events, nil
}

// Get returns a single event by id, cache first.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidReference
	}
	if s.cache != nil {
		if e, ok := s.cache.GetEvent(ctx, id); ok {
			return e, nil
		}
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetEvent(ctx, e)
	}
	return e, nil
}

// Update changes an event's mutable attributes. Only the owning organizer
// may update; capacity is immutable after creation.
func (s *EventService) Update(ctx context.Context, organizerID, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidReference
	}

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, ErrForbidden
	}

	e.Name = strings.TrimSpace(req.Name)
	e.Description = req.Description
	e.Location = req.Location
	e.Date = req.Date
	if e.Name == "" {
		return nil, fmt.Errorf("event name is required")
	}

	if err := s.events.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateEvent(ctx, id)
	}
	return e, nil
}

// Delete removes an event. Deletion is blocked while active reservations
// reference it, so a held slot can never point at a missing event.
func (s *EventService) Delete(ctx context.Context, organizerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidReference
	}

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.OrganizerID != organizerID {
		return ErrForbidden
	}

	active, err := s.reservations.CountActiveForEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("count reservations: %w", err)
	}
	if active > 0 {
		return ErrActiveReservations
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateEvent(ctx, id)
	}
	return nil
}

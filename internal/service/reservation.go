// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MariferVL/eventhub/internal/cache"
	"github.com/MariferVL/eventhub/internal/logger"
	"github.com/MariferVL/eventhub/internal/metrics"
	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/notify"
	"github.com/MariferVL/eventhub/internal/repository"
)

// detachedTimeout bounds the compensation and notification work that must
// outlive the caller's context.
const detachedTimeout = 5 * time.Second

// ReservationService orchestrates the capacity ledger and the reservation
// registry into the user-facing reserve/cancel operations.
type ReservationService struct {
	log      *slog.Logger
	ledger   repository.EventRepository
	registry repository.ReservationRepository
	leaks    repository.LeakLog
	notifier notify.Notifier
	cache    *cache.EventCache
	metrics  *metrics.Metrics
}

// NewReservationService constructs a ReservationService. The cache may be
// nil; the notifier must not be (use notify.Nop to disable fan-out).
func NewReservationService(
	log *slog.Logger,
	ledger repository.EventRepository,
	registry repository.ReservationRepository,
	leaks repository.LeakLog,
	notifier notify.Notifier,
	eventCache *cache.EventCache,
	m *metrics.Metrics,
) *ReservationService {
	return &ReservationService{
		log:      log,
		ledger:   ledger,
		registry: registry,
		leaks:    leaks,
		notifier: notifier,
		cache:    eventCache,
		metrics:  m,
	}
}

// Reserve claims one slot of the event for the user.
//
// The claim is two steps against two stores: decrement the ledger, then
// record the holder. The decrement itself is atomic, so the only partial
// state a failure can leave behind is a claimed slot with no holder, and
// that is undone here by the compensating release before the error is
// surfaced. Exhausted and duplicate claims are expected outcomes and come
// back as repository.ErrExhausted / repository.ErrDuplicateActive.
func (s *ReservationService) Reserve(ctx context.Context, userID, eventID string) (*model.Reservation, int, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, 0, ErrInvalidReference
	}

	remaining, err := s.ledger.TryClaim(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrExhausted) {
			s.metrics.Reservations.WithLabelValues(metrics.OutcomeExhausted).Inc()
			return nil, 0, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, err
		}
		s.metrics.Reservations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, 0, fmt.Errorf("claim slot: %w", err)
	}

	res, err := s.registry.Record(ctx, userID, eventID)
	if err != nil {
		s.compensate(ctx, eventID)
		if errors.Is(err, repository.ErrDuplicateActive) {
			s.metrics.Reservations.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return nil, 0, err
		}
		s.metrics.Reservations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, 0, fmt.Errorf("record reservation: %w", err)
	}

	s.metrics.Reservations.WithLabelValues(metrics.OutcomeGranted).Inc()
	s.afterSlotsChanged(ctx, eventID, remaining)
	return res, remaining, nil
}

// compensate undoes a claim whose registry write failed. It runs on a
// context detached from the caller: a client that gives up mid-request
// must not be able to abandon the ledger in a claimed-but-unheld state.
// If the release itself fails the slot has leaked, and the one thing this
// service must not do is lose track of that: the leak lands in the log and
// in a durable record for out-of-band reconciliation.
func (s *ReservationService) compensate(ctx context.Context, eventID string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedTimeout)
	defer cancel()

	if _, err := s.ledger.Release(dctx, eventID); err != nil {
		s.metrics.LeakedSlots.Inc()
		s.log.Error("compensating release failed, slot leaked",
			slog.String("event_id", eventID), logger.Err(err))
		if lerr := s.leaks.Record(dctx, eventID, "compensating release failed: "+err.Error()); lerr != nil {
			s.log.Error("recording leaked slot failed",
				slog.String("event_id", eventID), logger.Err(lerr))
		}
	}
}

// Cancel releases the reservation if the caller holds it.
//
// The registry transition runs before the ledger credit on purpose: a
// crash between the two leaves availability undercounted, which is the
// recoverable direction. The reverse order could hand the same slot out
// twice.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID string) (int, error) {
	if _, err := uuid.Parse(reservationID); err != nil {
		return 0, ErrInvalidReference
	}

	res, err := s.registry.GetByID(ctx, reservationID)
	if err != nil {
		return 0, err
	}
	if res.UserID != userID {
		return 0, ErrForbidden
	}

	if err := s.registry.MarkReleased(ctx, res.ID); err != nil {
		return 0, err
	}

	remaining, err := s.ledger.Release(ctx, res.EventID)
	if err != nil {
		// The reservation is already released, so this slot will stay
		// uncredited until reconciliation picks up the record.
		s.log.Error("release after cancel failed",
			slog.String("event_id", res.EventID), logger.Err(err))
		if lerr := s.leaks.Record(ctx, res.EventID, "release after cancel failed: "+err.Error()); lerr != nil {
			s.log.Error("recording uncredited slot failed",
				slog.String("event_id", res.EventID), logger.Err(lerr))
		}
		return 0, fmt.Errorf("release slot: %w", err)
	}

	s.metrics.Cancellations.Inc()
	s.afterSlotsChanged(ctx, res.EventID, remaining)
	return remaining, nil
}

// ListActiveFor returns the user's active reservations, oldest first.
func (s *ReservationService) ListActiveFor(ctx context.Context, userID string) ([]model.Reservation, error) {
	return s.registry.ListActiveFor(ctx, userID)
}

// afterSlotsChanged invalidates the read cache and hands the new count to
// the notification sink. Both are fire-and-forget: the claim or release
// has already committed and its outcome no longer depends on anything
// that happens here.
func (s *ReservationService) afterSlotsChanged(ctx context.Context, eventID string, remaining int) {
	dctx := context.WithoutCancel(ctx)
	if s.cache != nil {
		s.cache.InvalidateEvent(dctx, eventID)
	}

	go func() {
		nctx, cancel := context.WithTimeout(dctx, detachedTimeout)
		defer cancel()
		if err := s.notifier.SlotsChanged(nctx, eventID, remaining); err != nil {
			s.log.Warn("slot change notification failed",
				slog.String("event_id", eventID), logger.Err(err))
		}
	}()
}

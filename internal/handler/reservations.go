package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/repository"
	"github.com/MariferVL/eventhub/internal/service"
)

// ReservationHandler holds the handlers for claiming and releasing slots.
type ReservationHandler struct {
	reservations *service.ReservationService
}

// Reserve handles POST /reservations
// The response distinguishes "event is full" from "you already hold a
// reservation" so clients know whether retrying elsewhere makes sense.
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r)

	var req model.ReserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, remaining, err := h.reservations.Reserve(r.Context(), p.UserID, req.EventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReference):
			writeError(w, http.StatusBadRequest, "malformed event id")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, repository.ErrExhausted):
			writeError(w, http.StatusConflict, "no slots remaining for this event")
		case errors.Is(err, repository.ErrDuplicateActive):
			writeError(w, http.StatusConflict, "you already hold a reservation for this event")
		default:
			writeError(w, http.StatusServiceUnavailable, "could not complete reservation, try again")
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.ReserveResponse{Reservation: *res, Remaining: remaining})
}

// ListMine handles GET /reservations
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r)

	reservations, err := h.reservations.ListActiveFor(r.Context(), p.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}

	if reservations == nil {
		reservations = []model.Reservation{}
	}

	writeJSON(w, http.StatusOK, reservations)
}

// Cancel handles DELETE /reservations/{id} (holder only).
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r)
	id := chi.URLParam(r, "id")

	remaining, err := h.reservations.Cancel(r.Context(), p.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReference):
			writeError(w, http.StatusBadRequest, "malformed reservation id")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "reservation not found")
		case errors.Is(err, service.ErrForbidden):
			writeError(w, http.StatusForbidden, "not the holder of this reservation")
		case errors.Is(err, repository.ErrAlreadyReleased):
			writeError(w, http.StatusConflict, "reservation already released")
		default:
			writeError(w, http.StatusServiceUnavailable, "could not cancel reservation, try again")
		}
		return
	}

	writeJSON(w, http.StatusOK, model.CancelResponse{Remaining: remaining})
}

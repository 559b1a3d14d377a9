package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/repository"
	"github.com/MariferVL/eventhub/internal/service"
)

// EventHandler holds the handlers for event CRUD.
type EventHandler struct {
	events *service.EventService
}

// Create handles POST /events (organizer only).
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r)

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.Create(r.Context(), p.UserID, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReference):
			writeError(w, http.StatusBadRequest, "malformed event id")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to get event")
		}
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// Update handles PUT /events/{id} (owning organizer only).
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r)
	id := chi.URLParam(r, "id")

	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.Update(r.Context(), p.UserID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReference):
			writeError(w, http.StatusBadRequest, "malformed event id")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, service.ErrForbidden):
			writeError(w, http.StatusForbidden, "not the organizer of this event")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /events/{id} (owning organizer only).
// Deletion is refused while active reservations exist.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r)
	id := chi.URLParam(r, "id")

	err := h.events.Delete(r.Context(), p.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReference):
			writeError(w, http.StatusBadRequest, "malformed event id")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, service.ErrForbidden):
			writeError(w, http.StatusForbidden, "not the organizer of this event")
		case errors.Is(err, service.ErrActiveReservations):
			writeError(w, http.StatusConflict, "event still has active reservations")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete event")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

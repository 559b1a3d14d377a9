package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MariferVL/eventhub/internal/metrics"
	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/notify"
	"github.com/MariferVL/eventhub/internal/repository"
	"github.com/MariferVL/eventhub/internal/service"
	"github.com/MariferVL/eventhub/internal/token"
)

// testServer is the full router over in-memory backends.
type testServer struct {
	handler http.Handler
	nextIP  int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repository.NewMemoryUserRepository()
	events := repository.NewMemoryEventRepository()
	reservations := repository.NewMemoryReservationRepository()
	leaks := repository.NewMemoryLeakLog()
	tokens := token.NewManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	m := metrics.New()

	router := NewRouter(RouterConfig{
		Logger:       log,
		Auth:         service.NewAuthService(log, users, tokens),
		Events:       service.NewEventService(events, reservations, nil),
		Reservations: service.NewReservationService(log, events, reservations, leaks, notify.Nop{}, nil, m),
		Users:        service.NewUserService(users),
		Tokens:       tokens,
		Metrics:      m.Handler(),
	})
	return &testServer{handler: router}
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

// registerAndLogin creates an account and returns a valid access token.
// Each account gets its own client IP so the per-IP credential limiter
// never throttles test setup.
func (ts *testServer) registerAndLogin(t *testing.T, username, role string) string {
	t.Helper()

	ts.nextIP++
	clientIP := fmt.Sprintf("10.0.0.%d", ts.nextIP)

	register, err := json.Marshal(model.RegisterRequest{
		Username: username, Password: "correct horse", Role: role,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(register))
	req.Header.Set("X-Real-IP", clientIP)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	login, err := json.Marshal(model.LoginRequest{Username: username, Password: "correct horse"})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(login))
	req.Header.Set("X-Real-IP", clientIP)
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	return decodeBody[model.TokenPair](t, rr).AccessToken
}

func (ts *testServer) createEvent(t *testing.T, bearer string, capacity int) model.Event {
	t.Helper()

	rr := ts.do(t, http.MethodPost, "/events/", bearer, model.CreateEventRequest{
		Name:     "gophercon",
		Location: "valdivia",
		Date:     time.Now().Add(24 * time.Hour),
		Capacity: capacity,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	return decodeBody[model.Event](t, rr)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRegister_RejectsBadPayloads(t *testing.T) {
	ts := newTestServer(t)

	// Too-short password fails validation.
	rr := ts.do(t, http.MethodPost, "/auth/register", "", model.RegisterRequest{
		Username: "ana", Password: "short",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown fields are rejected.
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewReader([]byte(`{"username":"ana","password":"correct horse","admin":true}`)))
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)

	body := model.RegisterRequest{Username: "ana", Password: "correct horse"}
	rr := ts.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/auth/register", "", model.RegisterRequest{
		Username: "ana", Password: "correct horse",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPost, "/auth/login", "", model.LoginRequest{
		Username: "ana", Password: "wrong password",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/auth/register", "", model.RegisterRequest{
		Username: "ana", Password: "correct horse",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPost, "/auth/login", "", model.LoginRequest{
		Username: "ana", Password: "correct horse",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	pair := decodeBody[model.TokenPair](t, rr)

	rr = ts.do(t, http.MethodPost, "/auth/refresh", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodPost, "/auth/logout", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusNoContent, rr.Code)

	// The revoked token no longer refreshes.
	rr = ts.do(t, http.MethodPost, "/auth/refresh", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Logging out twice is fine.
	rr = ts.do(t, http.MethodPost, "/auth/logout", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestEvents_RequireOrganizerRole(t *testing.T) {
	ts := newTestServer(t)
	userToken := ts.registerAndLogin(t, "plain-user", model.RoleUser)

	rr := ts.do(t, http.MethodPost, "/events/", userToken, model.CreateEventRequest{
		Name: "gophercon", Date: time.Now().Add(time.Hour), Capacity: 10,
	})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodPost, "/events/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodPost, "/events/", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEvents_CRUDFlow(t *testing.T) {
	ts := newTestServer(t)
	org := ts.registerAndLogin(t, "organizer", model.RoleOrganizer)

	event := ts.createEvent(t, org, 10)
	require.Equal(t, 10, event.AvailableSlots)

	// Public read paths need no token.
	rr := ts.do(t, http.MethodGet, "/events/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeBody[[]model.Event](t, rr), 1)

	rr = ts.do(t, http.MethodGet, "/events/"+event.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodPut, "/events/"+event.ID, org, model.UpdateEventRequest{
		Name: "renamed", Date: event.Date,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "renamed", decodeBody[model.Event](t, rr).Name)

	rr = ts.do(t, http.MethodDelete, "/events/"+event.ID, org, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.do(t, http.MethodGet, "/events/"+event.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEvents_UpdateByNonOwnerForbidden(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.registerAndLogin(t, "owner", model.RoleOrganizer)
	other := ts.registerAndLogin(t, "other", model.RoleOrganizer)

	event := ts.createEvent(t, owner, 5)

	rr := ts.do(t, http.MethodPut, "/events/"+event.ID, other, model.UpdateEventRequest{
		Name: "hijacked", Date: event.Date,
	})
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestReservations_FullLifecycle(t *testing.T) {
	ts := newTestServer(t)
	org := ts.registerAndLogin(t, "organizer", model.RoleOrganizer)
	user := ts.registerAndLogin(t, "attendee", model.RoleUser)

	event := ts.createEvent(t, org, 2)

	// Reserve.
	rr := ts.do(t, http.MethodPost, "/reservations/", user, model.ReserveRequest{EventID: event.ID})
	require.Equal(t, http.StatusCreated, rr.Code)
	reserved := decodeBody[model.ReserveResponse](t, rr)
	require.Equal(t, 1, reserved.Remaining)
	require.Equal(t, model.StatusActive, reserved.Reservation.Status)

	// A second reserve by the same user conflicts.
	rr = ts.do(t, http.MethodPost, "/reservations/", user, model.ReserveRequest{EventID: event.ID})
	require.Equal(t, http.StatusConflict, rr.Code)

	// It shows up in the listing.
	rr = ts.do(t, http.MethodGet, "/reservations/", user, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeBody[[]model.Reservation](t, rr), 1)

	// Cancel restores the slot.
	rr = ts.do(t, http.MethodDelete, "/reservations/"+reserved.Reservation.ID, user, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 2, decodeBody[model.CancelResponse](t, rr).Remaining)

	// A second cancel conflicts.
	rr = ts.do(t, http.MethodDelete, "/reservations/"+reserved.Reservation.ID, user, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestReservations_ExhaustedEvent(t *testing.T) {
	ts := newTestServer(t)
	org := ts.registerAndLogin(t, "organizer", model.RoleOrganizer)
	event := ts.createEvent(t, org, 1)

	first := ts.registerAndLogin(t, "first", model.RoleUser)
	rr := ts.do(t, http.MethodPost, "/reservations/", first, model.ReserveRequest{EventID: event.ID})
	require.Equal(t, http.StatusCreated, rr.Code)

	second := ts.registerAndLogin(t, "second", model.RoleUser)
	rr = ts.do(t, http.MethodPost, "/reservations/", second, model.ReserveRequest{EventID: event.ID})
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, decodeBody[model.ErrorResponse](t, rr).Error, "no slots remaining")
}

func TestReservations_ErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	user := ts.registerAndLogin(t, "attendee", model.RoleUser)

	rr := ts.do(t, http.MethodPost, "/reservations/", user, model.ReserveRequest{EventID: "not-a-uuid"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/reservations/", user,
		model.ReserveRequest{EventID: "2f9e2c9a-9a61-4b7d-8f37-0b9b9f6f9c11"})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/reservations/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestReservations_CancelByNonHolder(t *testing.T) {
	ts := newTestServer(t)
	org := ts.registerAndLogin(t, "organizer", model.RoleOrganizer)
	event := ts.createEvent(t, org, 5)

	holder := ts.registerAndLogin(t, "holder", model.RoleUser)
	rr := ts.do(t, http.MethodPost, "/reservations/", holder, model.ReserveRequest{EventID: event.ID})
	require.Equal(t, http.StatusCreated, rr.Code)
	reserved := decodeBody[model.ReserveResponse](t, rr)

	intruder := ts.registerAndLogin(t, "intruder", model.RoleUser)
	rr = ts.do(t, http.MethodDelete, "/reservations/"+reserved.Reservation.ID, intruder, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestEventDelete_BlockedByActiveReservation(t *testing.T) {
	ts := newTestServer(t)
	org := ts.registerAndLogin(t, "organizer", model.RoleOrganizer)
	event := ts.createEvent(t, org, 5)

	user := ts.registerAndLogin(t, "attendee", model.RoleUser)
	rr := ts.do(t, http.MethodPost, "/reservations/", user, model.ReserveRequest{EventID: event.ID})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodDelete, "/events/"+event.ID, org, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestUsers_Profile(t *testing.T) {
	ts := newTestServer(t)
	user := ts.registerAndLogin(t, "ana", model.RoleUser)

	rr := ts.do(t, http.MethodGet, "/users/me", user, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ana", decodeBody[model.User](t, rr).Username)

	rr = ts.do(t, http.MethodPut, "/users/me", user, model.UpdateProfileRequest{Username: "ana-renamed"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ana-renamed", decodeBody[model.User](t, rr).Username)

	rr = ts.do(t, http.MethodGet, "/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "eventhub")
}

func TestAuthEndpoints_RateLimited(t *testing.T) {
	ts := newTestServer(t)

	// The credential bucket holds 5 tokens; the 6th attempt inside the
	// window is refused.
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = ts.do(t, http.MethodPost, "/auth/login", "", model.LoginRequest{
			Username: fmt.Sprintf("ghost-%d", i), Password: "whatever pass",
		})
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Equal(t, "1", last.Result().Header.Get("Retry-After"))
}

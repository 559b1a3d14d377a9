package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/token"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	tm := token.NewManager("access", "refresh", time.Hour, 24*time.Hour)
	tok, err := tm.Access(&model.User{ID: "user-1", Role: model.RoleUser})
	require.NoError(t, err)

	var seen Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r)
		w.WriteHeader(http.StatusOK)
	})
	protected := Authenticate(tm)(next)

	// Valid token passes and the principal is attached.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, Principal{UserID: "user-1", Role: model.RoleUser}, seen)

	// Missing header.
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Wrong scheme.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic "+tok)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// A refresh token is not an access token.
	refresh, err := tm.Refresh(&model.User{ID: "user-1", Role: model.RoleUser})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	tm := token.NewManager("access", "refresh", time.Hour, 24*time.Hour)
	organizersOnly := Authenticate(tm)(RequireRole(model.RoleOrganizer)(okHandler()))

	userTok, err := tm.Access(&model.User{ID: "u", Role: model.RoleUser})
	require.NoError(t, err)
	orgTok, err := tm.Access(&model.User{ID: "o", Role: model.RoleOrganizer})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	rr := httptest.NewRecorder()
	organizersOnly.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+orgTok)
	rr = httptest.NewRecorder()
	organizersOnly.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter_BurstThenRefuse(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 3, IdleTTL: time.Minute})
	limited := rl.Middleware(func(r *http.Request) string { return r.RemoteAddr })(okHandler())

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "1", rr.Result().Header.Get("Retry-After"))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	limited := rl.Middleware(func(r *http.Request) string { return r.Header.Get("X-Client") })(okHandler())

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, send("a"))
	require.Equal(t, http.StatusTooManyRequests, send("a"))
	// A different key still has its full bucket.
	require.Equal(t, http.StatusOK, send("b"))
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "*", rr.Result().Header.Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

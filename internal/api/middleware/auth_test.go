package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chetan5734v/freelancer/internal/auth"
)

func newAuthedHandler(t *testing.T) (*auth.Manager, http.Handler) {
	t.Helper()
	mgr := auth.NewManager("test-secret")
	mw := NewAuthMiddleware(mgr)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUsername(r.Context())))
	})
	return mgr, mw.RequireAuth(next)
}

func TestRequireAuthHeader(t *testing.T) {
	mgr, handler := newAuthedHandler(t)
	token, err := mgr.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "alice" {
		t.Fatalf("username = %q, want alice", rec.Body.String())
	}
}

func TestRequireAuthQueryParam(t *testing.T) {
	mgr, handler := newAuthedHandler(t)
	token, err := mgr.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Websocket clients cannot set headers on the upgrade request.
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	_, handler := newAuthedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthBadToken(t *testing.T) {
	_, handler := newAuthedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthWrongSecret(t *testing.T) {
	_, handler := newAuthedHandler(t)
	other := auth.NewManager("other-secret")
	token, err := other.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

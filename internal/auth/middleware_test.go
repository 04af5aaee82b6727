package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// echoUserHandler writes the context userID (or "anonymous") so tests can
// observe what the middleware put in the context.
func echoUserHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := UserIDFromContext(r.Context()); ok {
			w.Write([]byte(userID))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func requestWithToken(t *testing.T, token string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	return r
}

// =========================================================================
// REQUIRE AUTH TESTS
// =========================================================================

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-42")

	handler := RequireAuth(ts)(echoUserHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(t, token))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "user-42" {
		t.Errorf("handler saw userID %q, want %q", got, "user-42")
	}
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	ts := newTestTokenService(t)

	handler := RequireAuth(ts)(echoUserHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(t, ""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	ts := newTestTokenService(t)

	handler := RequireAuth(ts)(echoUserHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(t, "not-a-real-token"))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// =========================================================================
// OPTIONAL AUTH TESTS
// =========================================================================

func TestOptionalAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-42")

	handler := OptionalAuth(ts)(echoUserHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(t, token))

	if got := rec.Body.String(); got != "user-42" {
		t.Errorf("handler saw %q, want %q", got, "user-42")
	}
}

func TestOptionalAuth_NoToken_StillServes(t *testing.T) {
	ts := newTestTokenService(t)

	handler := OptionalAuth(ts)(echoUserHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(t, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 — optional auth must not block", rec.Code)
	}
	if got := rec.Body.String(); got != "anonymous" {
		t.Errorf("handler saw %q, want %q", got, "anonymous")
	}
}

func TestOptionalAuth_InvalidToken_TreatedAsAnonymous(t *testing.T) {
	ts := newTestTokenService(t)

	handler := OptionalAuth(ts)(echoUserHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(t, "garbage"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "anonymous" {
		t.Errorf("handler saw %q, want %q", got, "anonymous")
	}
}

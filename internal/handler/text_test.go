package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/txtshr/internal/auth"
	"github.com/sakif/txtshr/internal/model"
	"github.com/sakif/txtshr/internal/repository/sqlite"
	"github.com/sakif/txtshr/internal/service"
)

// testApp wires the real stack — chi router, auth middleware, services,
// in-memory SQLite — so these tests cover exactly what a client sees:
// routes, status codes, JSON bodies, and cookies.
type testApp struct {
	router *chi.Mux
	tokens *auth.TokenService
	db     *sqlite.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	textHandler := NewTextHandler(service.NewTextService(db, logger), logger)

	r := chi.NewRouter()
	r.Get("/api/texts", textHandler.HandleList)
	r.Post("/api/texts/anonymous", textHandler.HandleCreateAnonymous)
	r.With(auth.OptionalAuth(tokens)).Get("/api/texts/{id}", textHandler.HandleGetByID)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Post("/api/texts", textHandler.HandleCreate)
		r.Delete("/api/texts/{id}", textHandler.HandleDelete)
		r.Get("/api/me/texts", textHandler.HandleListMine)
	})

	return &testApp{router: r, tokens: tokens, db: db}
}

// newUser registers an account directly in the store and returns its ID
// plus a valid session cookie.
func (a *testApp) newUser(t *testing.T, name, email string) (string, *http.Cookie) {
	t.Helper()
	user := &model.User{Name: name, Email: email, PasswordHash: "x"}
	if err := a.db.CreateWithPassword(context.Background(), user); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	token, err := a.tokens.Generate(user.ID)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return user.ID, &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

// do performs a request against the router and returns the recorder.
func (a *testApp) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeText(t *testing.T, rec *httptest.ResponseRecorder) model.Text {
	t.Helper()
	var text model.Text
	if err := json.Unmarshal(rec.Body.Bytes(), &text); err != nil {
		t.Fatalf("decoding text response: %v (body: %s)", err, rec.Body.String())
	}
	return text
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) model.TextPage {
	t.Helper()
	var page model.TextPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding page response: %v (body: %s)", err, rec.Body.String())
	}
	return page
}

// =========================================================================
// CREATE
// =========================================================================

func TestHandleCreate(t *testing.T) {
	app := newTestApp(t)
	userID, cookie := app.newUser(t, "alice", "alice@example.com")

	rec := app.do(t, http.MethodPost, "/api/texts",
		`{"title":"Hello","content":"World"}`, cookie)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}

	text := decodeText(t, rec)
	if text.Visibility != model.VisibilityPublic {
		t.Errorf("Visibility = %q, want public default", text.Visibility)
	}
	if text.UserID == nil || *text.UserID != userID {
		t.Errorf("UserID = %v, want %q", text.UserID, userID)
	}
	if len(text.ID) != 10 {
		t.Errorf("ID = %q (len %d), want a 10-char token", text.ID, len(text.ID))
	}
}

func TestHandleCreate_RequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/texts",
		`{"title":"Hello","content":"World"}`, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleCreate_ValidationError(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.newUser(t, "alice", "alice@example.com")

	longTitle := strings.Repeat("x", 36)
	rec := app.do(t, http.MethodPost, "/api/texts",
		`{"title":"`+longTitle+`","content":"c"}`, cookie)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if errResp.Error != "validation_error" {
		t.Errorf("error kind = %q, want validation_error", errResp.Error)
	}
	if errResp.Field != "title" {
		t.Errorf("error field = %q, want title", errResp.Field)
	}

	// Nothing persisted.
	page := decodePage(t, app.do(t, http.MethodGet, "/api/texts", "", nil))
	if page.TotalCount != 0 {
		t.Errorf("TotalCount = %d after rejected create, want 0", page.TotalCount)
	}
}

func TestHandleCreate_InvalidJSON(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.newUser(t, "alice", "alice@example.com")

	rec := app.do(t, http.MethodPost, "/api/texts", `{not json`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// =========================================================================
// CREATE ANONYMOUS
// =========================================================================

func TestHandleCreateAnonymous_ForcesPublic(t *testing.T) {
	app := newTestApp(t)

	// A supplied visibility is ignored, not rejected.
	rec := app.do(t, http.MethodPost, "/api/texts/anonymous",
		`{"title":"drive-by","content":"paste","visibility":"private"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}

	text := decodeText(t, rec)
	if text.Visibility != model.VisibilityPublic {
		t.Errorf("Visibility = %q, want public regardless of input", text.Visibility)
	}
	if text.UserID != nil {
		t.Errorf("UserID = %v, want null", text.UserID)
	}
	if text.Username != "Anonymous" {
		t.Errorf("Username = %q, want %q", text.Username, "Anonymous")
	}
}

// =========================================================================
// GET BY ID
// =========================================================================

func TestHandleGetByID_PublicReadableAnonymously(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.newUser(t, "alice", "alice@example.com")

	created := decodeText(t, app.do(t, http.MethodPost, "/api/texts",
		`{"title":"Hello","content":"World","visibility":"public"}`, cookie))

	rec := app.do(t, http.MethodGet, "/api/texts/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	text := decodeText(t, rec)
	if text.Content != "World" {
		t.Errorf("Content = %q, want %q", text.Content, "World")
	}
	if text.Username != "alice" {
		t.Errorf("Username = %q, want %q", text.Username, "alice")
	}
}

func TestHandleGetByID_PrivateVisibleOnlyToOwner(t *testing.T) {
	app := newTestApp(t)
	_, owner := app.newUser(t, "alice", "alice@example.com")
	_, other := app.newUser(t, "bob", "bob@example.com")

	created := decodeText(t, app.do(t, http.MethodPost, "/api/texts",
		`{"title":"secret","content":"hidden","visibility":"private"}`, owner))

	// Anonymous caller: denied.
	rec := app.do(t, http.MethodGet, "/api/texts/"+created.ID, "", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("anonymous status = %d, want 403", rec.Code)
	}

	// Different user: denied.
	rec = app.do(t, http.MethodGet, "/api/texts/"+created.ID, "", other)
	if rec.Code != http.StatusForbidden {
		t.Errorf("other-user status = %d, want 403", rec.Code)
	}

	// Owner: success.
	rec = app.do(t, http.MethodGet, "/api/texts/"+created.ID, "", owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner status = %d, want 200", rec.Code)
	}
	if got := decodeText(t, rec).Content; got != "hidden" {
		t.Errorf("Content = %q, want %q", got, "hidden")
	}
}

func TestHandleGetByID_NotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/texts/nosuchtext", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// =========================================================================
// PUBLIC LISTING
// =========================================================================

func TestHandleList_OnlyPublicWithAnonymousNames(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.newUser(t, "alice", "alice@example.com")

	app.do(t, http.MethodPost, "/api/texts", `{"title":"pub","content":"c"}`, cookie)
	app.do(t, http.MethodPost, "/api/texts", `{"title":"unl","content":"c","visibility":"unlisted"}`, cookie)
	app.do(t, http.MethodPost, "/api/texts", `{"title":"prv","content":"c","visibility":"private"}`, cookie)
	app.do(t, http.MethodPost, "/api/texts/anonymous", `{"title":"anon","content":"c"}`, nil)

	page := decodePage(t, app.do(t, http.MethodGet, "/api/texts", "", nil))

	if page.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2 (one owned public + one anonymous)", page.TotalCount)
	}
	for _, s := range page.Texts {
		if s.Title == "unl" || s.Title == "prv" {
			t.Errorf("non-public text %q leaked into the public listing", s.Title)
		}
		if s.UserID == nil && s.Username != "Anonymous" {
			t.Errorf("anonymous row Username = %q, want %q", s.Username, "Anonymous")
		}
	}
}

func TestHandleList_PaginationAndHasMore(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 7; i++ {
		rec := app.do(t, http.MethodPost, "/api/texts/anonymous", `{"title":"t","content":"c"}`, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed create status = %d", rec.Code)
		}
	}

	page := decodePage(t, app.do(t, http.MethodGet, "/api/texts?limit=5&offset=0", "", nil))
	if len(page.Texts) != 5 || page.TotalCount != 7 || !page.HasMore {
		t.Errorf("page 1 = {%d texts, total %d, hasMore %v}, want {5, 7, true}",
			len(page.Texts), page.TotalCount, page.HasMore)
	}

	page = decodePage(t, app.do(t, http.MethodGet, "/api/texts?limit=5&offset=5", "", nil))
	if len(page.Texts) != 2 || page.HasMore {
		t.Errorf("page 2 = {%d texts, hasMore %v}, want {2, false}",
			len(page.Texts), page.HasMore)
	}
}

func TestHandleList_BadParams(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/api/texts?limit=abc",
		"/api/texts?limit=101",
		"/api/texts?offset=-1",
	} {
		rec := app.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, rec.Code)
		}
	}
}

// =========================================================================
// MY TEXTS
// =========================================================================

func TestHandleListMine(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.newUser(t, "alice", "alice@example.com")
	_, bob := app.newUser(t, "bob", "bob@example.com")

	app.do(t, http.MethodPost, "/api/texts", `{"title":"a1","content":"c","visibility":"private"}`, alice)
	app.do(t, http.MethodPost, "/api/texts", `{"title":"a2","content":"c"}`, alice)
	app.do(t, http.MethodPost, "/api/texts", `{"title":"b1","content":"c"}`, bob)

	page := decodePage(t, app.do(t, http.MethodGet, "/api/me/texts", "", alice))
	if page.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", page.TotalCount)
	}
	for _, s := range page.Texts {
		if s.Visibility == "" {
			t.Errorf("own-texts row %q missing visibility", s.Title)
		}
	}
}

func TestHandleListMine_RequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/me/texts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestHandleDelete(t *testing.T) {
	app := newTestApp(t)
	_, owner := app.newUser(t, "alice", "alice@example.com")
	_, other := app.newUser(t, "bob", "bob@example.com")

	created := decodeText(t, app.do(t, http.MethodPost, "/api/texts",
		`{"title":"mine","content":"c"}`, owner))

	// No session: 401.
	if rec := app.do(t, http.MethodDelete, "/api/texts/"+created.ID, "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated delete status = %d, want 401", rec.Code)
	}

	// Wrong user: 403, text survives.
	if rec := app.do(t, http.MethodDelete, "/api/texts/"+created.ID, "", other); rec.Code != http.StatusForbidden {
		t.Errorf("non-owner delete status = %d, want 403", rec.Code)
	}
	if rec := app.do(t, http.MethodGet, "/api/texts/"+created.ID, "", nil); rec.Code != http.StatusOK {
		t.Errorf("text gone after forbidden delete (status %d)", rec.Code)
	}

	// Owner: 204, then 404.
	if rec := app.do(t, http.MethodDelete, "/api/texts/"+created.ID, "", owner); rec.Code != http.StatusNoContent {
		t.Errorf("owner delete status = %d, want 204", rec.Code)
	}
	if rec := app.do(t, http.MethodGet, "/api/texts/"+created.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", rec.Code)
	}
}

func TestHandleDelete_NonexistentLooksLikeNotOwned(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.newUser(t, "alice", "alice@example.com")

	// Same 403 as deleting someone else's text — no existence probing.
	rec := app.do(t, http.MethodDelete, "/api/texts/nosuchtext", "", cookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

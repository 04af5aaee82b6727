package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/txtshr/internal/apperror"
	"github.com/sakif/txtshr/internal/auth"
	"github.com/sakif/txtshr/internal/model"
	"github.com/sakif/txtshr/internal/service"
)

// anonymousName is what an unowned text's author renders as. Purely a
// presentation concern — the database keeps user_id NULL and no name.
const anonymousName = "Anonymous"

// TextHandler exposes the text store over HTTP. It parses and responds;
// validation and access rules live in the service.
type TextHandler struct {
	texts  *service.TextService
	logger *slog.Logger
}

// NewTextHandler creates a TextHandler.
func NewTextHandler(texts *service.TextService, logger *slog.Logger) *TextHandler {
	return &TextHandler{texts: texts, logger: logger}
}

// createTextRequest is the JSON body for both create endpoints. The
// anonymous endpoint ignores Visibility — anonymous texts are always public.
type createTextRequest struct {
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Visibility model.Visibility `json:"visibility"`
}

// HandleCreate saves a new text for the authenticated caller.
//
// HTTP: POST /api/texts (auth required)
// Body: {"title": "...", "content": "...", "visibility": "public|unlisted|private"}
func (h *TextHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// RequireAuth guards this route; reaching here without an identity
		// would be a wiring bug.
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req createTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	text, err := h.texts.Create(r.Context(), userID, req.Title, req.Content, req.Visibility)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, presentText(text))
}

// HandleCreateAnonymous saves a new unowned text. No authentication; any
// visibility in the body is ignored and the text is public.
//
// HTTP: POST /api/texts/anonymous
func (h *TextHandler) HandleCreateAnonymous(w http.ResponseWriter, r *http.Request) {
	var req createTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	text, err := h.texts.CreateAnonymous(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, presentText(text))
}

// HandleList returns one page of the public listing.
//
// HTTP: GET /api/texts?limit=20&offset=0
// Response: {"texts": [...], "totalCount": N, "hasMore": bool}
func (h *TextHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseListParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.texts.ListPublic(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presentPage(page))
}

// HandleGetByID returns a full text including content.
//
// HTTP: GET /api/texts/{id}
// Auth: optional — the route sits behind OptionalAuth, so a logged-in
// caller's identity reaches the service and decides the private-text check;
// everyone else is an anonymous caller.
func (h *TextHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	callerID, _ := auth.UserIDFromContext(r.Context())

	text, err := h.texts.GetByID(r.Context(), id, callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presentText(text))
}

// HandleListMine returns one page of the caller's own texts.
//
// HTTP: GET /api/me/texts?limit=20&offset=0 (auth required)
func (h *TextHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	limit, offset, err := parseListParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.texts.ListMine(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandleDelete removes one of the caller's own texts.
//
// HTTP: DELETE /api/texts/{id} (auth required)
// 204 on success; 403 whether the text doesn't exist or isn't the caller's.
func (h *TextHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	id := r.PathValue("id")
	if err := h.texts.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseListParams reads limit/offset query parameters. Absent parameters
// fall back to the service defaults (limit 20, offset 0); present ones must
// be integers — range checks happen in the service.
func parseListParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperror.ValidationFailed("limit", "limit must be an integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperror.ValidationFailed("offset", "offset must be an integer")
		}
	}
	return limit, offset, nil
}

// presentText substitutes the anonymous display name. The model keeps an
// empty Username for unowned texts; the API renders them as "Anonymous".
func presentText(text *model.Text) *model.Text {
	if text.UserID == nil && text.Username == "" {
		out := *text
		out.Username = anonymousName
		return &out
	}
	return text
}

// presentPage does the same substitution across a public listing page. The
// owner's own listing never passes through here — all of its rows belong to
// the caller.
func presentPage(page *model.TextPage) *model.TextPage {
	for i := range page.Texts {
		if page.Texts[i].UserID == nil && page.Texts[i].Username == "" {
			page.Texts[i].Username = anonymousName
		}
	}
	return page
}

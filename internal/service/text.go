// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces access rules
//	Repository (Data layer)  → reads/writes to the database
//
// The service only sees the repository INTERFACES (not the sqlite package),
// so its tests inject in-memory mocks and the storage backend stays
// swappable. It returns domain errors (apperror), never HTTP status codes —
// the handler layer does that translation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/txtshr/internal/apperror"
	"github.com/sakif/txtshr/internal/model"
	"github.com/sakif/txtshr/internal/repository"
)

// Validation constants. Named so error messages and tests reference the same
// numbers as the checks.
const (
	MaxTitleLength   = 35
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// TextService handles business logic for shared texts: input validation,
// the visibility rules on reads, and the ownership rule on deletes.
type TextService struct {
	repo   repository.TextRepository
	logger *slog.Logger
}

// NewTextService creates a TextService. The caller decides which
// TextRepository implementation to inject (SQLite in production, a mock in
// tests).
func NewTextService(repo repository.TextRepository, logger *slog.Logger) *TextService {
	return &TextService{
		repo:   repo,
		logger: logger,
	}
}

// validateInput checks the creation contract shared by Create and
// CreateAnonymous: title 1..35 characters after trimming, content non-empty.
func validateInput(title, content string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if content == "" {
		return "", apperror.ValidationFailed("content", "content is required")
	}
	return title, nil
}

// Create validates and saves a new text for an authenticated caller.
//
// visibility may be empty, in which case it defaults to public. All
// validation happens BEFORE the repository is touched — a title of length 36
// never reaches the database.
func (s *TextService) Create(ctx context.Context, callerID, title, content string, visibility model.Visibility) (*model.Text, error) {
	if callerID == "" {
		return nil, apperror.Unauthorized("authentication required to create a text")
	}

	title, err := validateInput(title, content)
	if err != nil {
		return nil, err
	}

	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, apperror.ValidationFailed("visibility",
			"visibility must be public, unlisted or private")
	}

	text := &model.Text{
		Title:      title,
		Content:    content,
		Visibility: visibility,
		UserID:     &callerID,
	}

	if err := s.repo.Create(ctx, text); err != nil {
		s.logger.Error("failed to create text",
			slog.String("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating text: %w", err)
	}

	s.logger.Info("text created",
		slog.String("id", text.ID),
		slog.String("visibility", string(text.Visibility)),
		slog.String("userID", callerID),
	)

	return text, nil
}

// CreateAnonymous saves a new text with no owner.
//
// Anonymous texts are ALWAYS public, whatever the caller supplied — an
// unowned private text would be readable by nobody, ever. They also can
// never be deleted (no owner to authorize the delete).
func (s *TextService) CreateAnonymous(ctx context.Context, title, content string) (*model.Text, error) {
	title, err := validateInput(title, content)
	if err != nil {
		return nil, err
	}

	text := &model.Text{
		Title:      title,
		Content:    content,
		Visibility: model.VisibilityPublic,
		UserID:     nil,
	}

	if err := s.repo.Create(ctx, text); err != nil {
		s.logger.Error("failed to create anonymous text", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating anonymous text: %w", err)
	}

	s.logger.Info("anonymous text created", slog.String("id", text.ID))

	return text, nil
}

// GetByID retrieves a full text, enforcing the visibility rule.
//
// callerID is "" for anonymous callers. Public and unlisted texts are
// readable by anyone who knows the ID; private texts only by their owner.
// The check runs AFTER the fetch, so "no such text" and "private text" stay
// distinct errors (NotFound vs AccessDenied) — knowing a private text's ID
// reveals only that it exists, which its URL already does.
func (s *TextService) GetByID(ctx context.Context, id, callerID string) (*model.Text, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "text ID is required")
	}

	text, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if text.Visibility == model.VisibilityPrivate {
		if text.UserID == nil || callerID == "" || callerID != *text.UserID {
			return nil, apperror.AccessDenied("this text is private")
		}
	}

	return text, nil
}

// ListPublic returns one page of the public listing.
func (s *TextService) ListPublic(ctx context.Context, limit, offset int) (*model.TextPage, error) {
	opts, err := validateListOptions(limit, offset)
	if err != nil {
		return nil, err
	}

	texts, total, err := s.repo.ListPublic(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list public texts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing public texts: %w", err)
	}

	return newTextPage(texts, total, opts), nil
}

// ListMine returns one page of the caller's own texts, any visibility.
func (s *TextService) ListMine(ctx context.Context, callerID string, limit, offset int) (*model.TextPage, error) {
	if callerID == "" {
		return nil, apperror.Unauthorized("authentication required to list your texts")
	}

	opts, err := validateListOptions(limit, offset)
	if err != nil {
		return nil, err
	}

	texts, total, err := s.repo.ListByUser(ctx, callerID, opts)
	if err != nil {
		s.logger.Error("failed to list user texts",
			slog.String("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing texts for user %s: %w", callerID, err)
	}

	return newTextPage(texts, total, opts), nil
}

// Delete removes a text owned by the caller.
//
// The ownership check lives in the repository's DELETE statement; a failed
// delete is Forbidden whether the text doesn't exist or belongs to someone
// else. That conflation is deliberate — see DeleteOwned.
func (s *TextService) Delete(ctx context.Context, id, callerID string) error {
	if callerID == "" {
		return apperror.Unauthorized("authentication required to delete a text")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "text ID is required")
	}

	if err := s.repo.DeleteOwned(ctx, id, callerID); err != nil {
		return err
	}

	s.logger.Info("text deleted",
		slog.String("id", id),
		slog.String("userID", callerID),
	)
	return nil
}

// validateListOptions enforces the pagination contract: limit in [1,100]
// (0 means "not provided" and takes the default), offset >= 0. Out-of-range
// values are rejected, not clamped — the caller asked for something the API
// doesn't offer.
func validateListOptions(limit, offset int) (repository.ListOptions, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return repository.ListOptions{}, apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	if offset < 0 {
		return repository.ListOptions{}, apperror.ValidationFailed("offset",
			"offset must not be negative")
	}
	return repository.ListOptions{Limit: limit, Offset: offset}, nil
}

// newTextPage assembles the page envelope. hasMore is derived from the
// window position, not from the page length: offset+limit < totalCount.
func newTextPage(texts []model.TextSummary, total int, opts repository.ListOptions) *model.TextPage {
	return &model.TextPage{
		Texts:      texts,
		TotalCount: total,
		HasMore:    opts.Offset+opts.Limit < total,
	}
}

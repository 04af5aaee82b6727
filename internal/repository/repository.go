// Package repository declares the storage interfaces the service layer
// depends on. Services receive these interfaces (not the concrete sqlite
// types), so tests can inject in-memory mocks and the storage backend can
// be swapped without touching business logic.
package repository

import (
	"context"

	"github.com/sakif/txtshr/internal/model"
)

// ListOptions is the pagination window for listing queries.
// The service layer validates ranges (limit 1..100, offset >= 0) before
// these values reach a repository.
type ListOptions struct {
	Limit  int
	Offset int
}

// TextRepository is the persistence contract for texts.
//
// Authorization note: GetByID performs no access checks — the service layer
// enforces the private-text rule after the fetch. DeleteOwned is the one
// operation with the ownership check baked into the SQL itself, so that
// "not found" and "not owned" are indistinguishable to the caller.
type TextRepository interface {
	// Create generates the text's ID and timestamps, then persists it.
	Create(ctx context.Context, text *model.Text) error

	// GetByID returns the full record including content, with the owner's
	// display name joined in. Returns apperror.ErrNotFound if no row matches.
	GetByID(ctx context.Context, id string) (*model.Text, error)

	// ListPublic returns one window of public texts, newest first, plus the
	// total count of public texts (not window-limited).
	ListPublic(ctx context.Context, opts ListOptions) ([]model.TextSummary, int, error)

	// ListByUser returns one window of the given user's texts (any
	// visibility), newest first, plus that user's total count.
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]model.TextSummary, int, error)

	// DeleteOwned deletes the text only if id matches AND userID owns it.
	// Returns apperror.ErrForbidden when zero rows were affected.
	DeleteOwned(ctx context.Context, id, userID string) error
}

// UserRepository is the persistence contract for accounts.
type UserRepository interface {
	// CreateWithPassword inserts a new email/password account.
	// Returns apperror.ErrValidation if the email is already registered.
	CreateWithPassword(ctx context.Context, user *model.User) error

	// GetUserByEmail looks an account up by its login email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID looks an account up by its internal ID.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// UpsertGitHub inserts or updates an account keyed by its GitHub ID.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

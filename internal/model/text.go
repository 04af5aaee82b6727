// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Visibility is the access tier of a text.
//
// WHY A NAMED STRING TYPE?
// A plain string would work, but a named type documents intent and lets us
// attach the Valid() method. The values are stored as-is in the database
// (TEXT column), so string is the natural underlying type.
type Visibility string

const (
	// VisibilityPublic texts appear in the public listing and are readable by anyone.
	VisibilityPublic Visibility = "public"
	// VisibilityUnlisted texts are readable by anyone who knows the ID,
	// but never appear in the public listing.
	VisibilityUnlisted Visibility = "unlisted"
	// VisibilityPrivate texts are readable only by their owner.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the three known visibility tiers.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return true
	}
	return false
}

// Text represents a shared text snippet.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize this
// struct. UserID is a pointer because anonymously created texts have no owner:
// a nil pointer marshals to JSON null, matching the nullable user_id column.
//
// Username is not a column on the texts table — it is joined from the owner's
// user record at query time, purely for display. It is empty for anonymous
// texts; the handler layer renders those as "Anonymous".
type Text struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Visibility Visibility `json:"visibility"`
	UserID     *string    `json:"userId"`
	Username   string     `json:"username,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TextSummary is a listing row: everything a list needs, minus the content.
// Content can be arbitrarily large, so listings never fetch it.
//
// Visibility is only populated for the owner's own listing (the owner needs
// to tell their private/unlisted/public texts apart); the public listing
// leaves it empty and omitempty drops it from the JSON.
type TextSummary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Visibility Visibility `json:"visibility,omitempty"`
	UserID     *string    `json:"userId,omitempty"`
	Username   string     `json:"username,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TextPage is one window of a paginated listing.
//
// TotalCount is the full (unwindowed) number of matching rows. HasMore is
// derived: offset+limit < totalCount. The count and the page are fetched as
// two independent reads, so the count may be momentarily stale relative to
// the page — fine for a display counter.
type TextPage struct {
	Texts      []TextSummary `json:"texts"`
	TotalCount int           `json:"totalCount"`
	HasMore    bool          `json:"hasMore"`
}

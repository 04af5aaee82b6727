// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Two identity sources map onto one users table:
//   - email + password: Email is the login key, PasswordHash holds the bcrypt hash
//   - GitHub OAuth: GitHubID is GitHub's stable numeric user ID
//
// An account created via OAuth has an empty PasswordHash; an account created
// via email signup has GitHubID = 0. Either way we generate our own internal
// string ID (xid) so primary keys never depend on a third party's numbering.
//
// PasswordHash carries `json:"-"` so it can never leak into an API response,
// no matter which handler marshals the struct.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`  // Display name shown next to texts
	Email        string    `json:"email"     db:"email"` // Unique login key (may be empty for OAuth users who hide it)
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"githubId,omitempty"  db:"github_id"` // 0 when the account has no GitHub link
	AvatarURL    string    `json:"avatarUrl,omitempty" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

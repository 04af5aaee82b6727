package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/txtshr/internal/apperror"
	"github.com/sakif/txtshr/internal/model"
	"github.com/sakif/txtshr/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateWithPassword inserts a new email/password account.
//
// The email column is UNIQUE, so a duplicate registration surfaces as a
// constraint violation. We translate that into a validation error rather
// than a raw SQL error — the handler maps it to 400, and the message doesn't
// expose driver internals.
func (db *DB) CreateWithPassword(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// modernc.org/sqlite reports constraint failures in the error text;
		// there is no exported sentinel to errors.Is against.
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return apperror.ValidationFailed("email", "an account with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByEmail retrieves an account by its login email.
// Returns apperror.ErrNotFound when no account uses that email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, github_id, avatar_url, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// GetUserByID retrieves an account by its internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, github_id, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// UpsertGitHub inserts or updates an account keyed by its GitHub ID.
//
// First login → INSERT with a fresh internal ID. Subsequent logins → UPDATE
// name/email/avatar in case they changed on GitHub, KEEPING the existing
// internal ID (texts reference it).
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Name,
			user.Email,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, github_id, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.GitHubID,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

// scanUser reads one user row. github_id is nullable (email/password
// accounts), so it scans through sql.NullInt64.
func (db *DB) scanUser(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&githubID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

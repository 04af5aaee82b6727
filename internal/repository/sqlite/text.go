package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/txtshr/internal/apperror"
	"github.com/sakif/txtshr/internal/model"
	"github.com/sakif/txtshr/internal/repository"
)

// Compile-time check that *DB implements repository.TextRepository.
// `var _ X = (*Y)(nil)` fails to compile if a method is missing, so an
// incomplete implementation is caught here rather than at a distant call site.
var _ repository.TextRepository = (*DB)(nil)

// idAlphabet is the character set for text IDs: URL-safe, no escaping needed
// in a share link.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"

// idLength is the length of a text ID. 64^10 ≈ 1.15e18 possible IDs — short
// enough to share, large enough that guessing an unlisted text's ID is
// impractical.
const idLength = 10

// newTextID generates a random 10-character URL-safe identifier.
//
// crypto/rand (not math/rand): unlisted texts rely on their ID being
// unguessable, so the ID must come from a cryptographic source.
func newTextID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	id := make([]byte, idLength)
	for i, b := range buf {
		// 64 characters in the alphabet, so masking the low 6 bits gives a
		// uniform index with no modulo bias.
		id[i] = idAlphabet[b&63]
	}
	return string(id), nil
}

// Create inserts a new text, generating its ID and stamping both timestamps.
//
// Pointer receiver on the model: after Create returns, the caller's struct
// holds the generated ID and timestamps.
func (db *DB) Create(ctx context.Context, text *model.Text) error {
	id, err := newTextID()
	if err != nil {
		return fmt.Errorf("sqlite: generating text id: %w", err)
	}
	text.ID = id

	now := time.Now()
	text.CreatedAt = now
	text.UpdatedAt = now

	// user_id is passed through as *string: nil marshals to SQL NULL for
	// anonymous texts.
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO texts (id, title, content, visibility, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		text.ID,
		text.Title,
		text.Content,
		string(text.Visibility),
		text.UserID,
		text.CreatedAt,
		text.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating text: %w", err)
	}

	return nil
}

// GetByID retrieves a single text with the owner's display name joined in.
//
// LEFT JOIN (not INNER): anonymous texts have user_id NULL and must still be
// returned — the joined name comes back NULL and scans into an empty string
// via sql.NullString.
//
// No access check happens here; the service layer enforces the private-text
// rule on the returned record.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Text, error) {
	var (
		text     model.Text
		userID   sql.NullString
		username sql.NullString
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT t.id, t.title, t.content, t.visibility, t.user_id, u.name,
		        t.created_at, t.updated_at
		 FROM texts t
		 LEFT JOIN users u ON u.id = t.user_id
		 WHERE t.id = ?`,
		id,
	).Scan(
		&text.ID,
		&text.Title,
		&text.Content,
		&text.Visibility,
		&userID,
		&username,
		&text.CreatedAt,
		&text.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("text", id)
		}
		return nil, fmt.Errorf("sqlite: getting text %s: %w", id, err)
	}

	if userID.Valid {
		text.UserID = &userID.String
	}
	text.Username = username.String

	return &text, nil
}

// countResult carries the total count (or the error) from the concurrent
// count query back to the listing goroutine.
type countResult struct {
	total int
	err   error
}

// ListPublic returns one window of public texts, newest first, together with
// the total number of public texts.
//
// The count query runs in its own goroutine while the page query runs on the
// calling goroutine — two independent reads against the pool (sql.DB is safe
// for concurrent use). There is no transaction spanning them, so the count
// can be stale relative to the page. Accepted: it only feeds a pagination
// counter.
func (db *DB) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.TextSummary, int, error) {
	countCh := make(chan countResult, 1)
	go func() {
		var total int
		err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM texts WHERE visibility = 'public'`,
		).Scan(&total)
		if err != nil {
			countCh <- countResult{err: fmt.Errorf("sqlite: counting public texts: %w", err)}
			return
		}
		countCh <- countResult{total: total}
	}()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.title, t.user_id, u.name, t.created_at
		 FROM texts t
		 LEFT JOIN users u ON u.id = t.user_id
		 WHERE t.visibility = 'public'
		 ORDER BY t.created_at DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		<-countCh
		return nil, 0, fmt.Errorf("sqlite: listing public texts: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.TextSummary, 0, opts.Limit)
	for rows.Next() {
		var (
			s        model.TextSummary
			userID   sql.NullString
			username sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Title, &userID, &username, &s.CreatedAt); err != nil {
			<-countCh
			return nil, 0, fmt.Errorf("sqlite: scanning public text row: %w", err)
		}
		if userID.Valid {
			s.UserID = &userID.String
		}
		s.Username = username.String
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		<-countCh
		return nil, 0, fmt.Errorf("sqlite: iterating public texts: %w", err)
	}

	count := <-countCh
	if count.err != nil {
		return nil, 0, count.err
	}

	return summaries, count.total, nil
}

// ListByUser returns one window of the given user's texts, any visibility,
// newest first, plus that user's total count. Summaries include visibility
// (the owner needs to tell their tiers apart) but no owner join — the caller
// IS the owner.
//
// Same concurrent page+count shape as ListPublic.
func (db *DB) ListByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.TextSummary, int, error) {
	countCh := make(chan countResult, 1)
	go func() {
		var total int
		err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM texts WHERE user_id = ?`, userID,
		).Scan(&total)
		if err != nil {
			countCh <- countResult{err: fmt.Errorf("sqlite: counting texts for user %s: %w", userID, err)}
			return
		}
		countCh <- countResult{total: total}
	}()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, visibility, created_at
		 FROM texts
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userID,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		<-countCh
		return nil, 0, fmt.Errorf("sqlite: listing texts for user %s: %w", userID, err)
	}
	defer rows.Close()

	summaries := make([]model.TextSummary, 0, opts.Limit)
	for rows.Next() {
		var s model.TextSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Visibility, &s.CreatedAt); err != nil {
			<-countCh
			return nil, 0, fmt.Errorf("sqlite: scanning user text row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		<-countCh
		return nil, 0, fmt.Errorf("sqlite: iterating user texts: %w", err)
	}

	count := <-countCh
	if count.err != nil {
		return nil, 0, count.err
	}

	return summaries, count.total, nil
}

// DeleteOwned deletes a text only when both the id and the owner match.
//
// One DELETE with the ownership check in the WHERE clause. Zero rows affected
// means "no such text" OR "not yours" — deliberately the same Forbidden
// error, so delete attempts can't be used to probe which IDs exist. Anonymous
// texts (user_id NULL) never match `user_id = ?` and are therefore
// undeletable by anyone.
func (db *DB) DeleteOwned(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM texts WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting text %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.Forbidden("you can only delete your own texts")
	}

	return nil
}

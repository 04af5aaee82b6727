// Package auth — password hashing.
//
// bcrypt is deliberately slow; that slowness is the defence against offline
// brute force. It salts automatically and embeds salt + cost in the output
// string, so the hash column is self-contained. Never store passwords with
// fast hashes (MD5, SHA-256) — GPUs chew through those.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible at login, brutal for attackers. Tune so hashing
// stays in the 200–300ms range on production hardware.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification. It's a struct
// rather than free functions so tests can inject a lower cost and skip the
// ~250ms per hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Use cost 4 (bcrypt's minimum) in tests; never in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password. The output embeds version, cost and
// salt (e.g. "$2a$12$..."), so it can be stored directly.
//
// bcrypt silently truncates inputs past 72 bytes; we reject those instead so
// callers aren't surprised.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored hash. Returns nil on
// match. The comparison is constant-time inside bcrypt, so response timing
// leaks nothing about how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

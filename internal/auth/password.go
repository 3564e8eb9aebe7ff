package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with a configured bcrypt cost.
// Hashing is CPU-bound, so concurrent hashes are capped by a semaphore:
// a burst of registrations cannot monopolize the process while cheap
// token verifications keep flowing.
type Hasher struct {
	cost int
	sem  chan struct{}
}

// NewHasher builds a hasher. Cost and concurrency are process-wide
// configuration, fixed after startup.
func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Hasher{cost: cost, sem: make(chan struct{}, maxConcurrent)}
}

// Hash enforces the strength policy and produces a salted bcrypt hash.
// Each call salts freshly, so equal plaintexts yield distinct hashes.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := CheckStrength(plaintext); err != nil {
		return "", err
	}

	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. The underlying
// comparison is constant-time; a mismatch is a false return, never an error.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// CheckStrength validates the password policy: at least 8 characters with
// one uppercase letter, one lowercase letter and one digit.
func CheckStrength(plaintext string) error {
	if len(plaintext) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters", ErrWeakPassword)
	}
	var upper, lower, digit bool
	for _, r := range plaintext {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrWeakPassword)
	}
	if !lower {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrWeakPassword)
	}
	if !digit {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	}
	return nil
}

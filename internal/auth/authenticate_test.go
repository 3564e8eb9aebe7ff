package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/task-service/internal/domain"
)

func testAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	return NewAuthenticator(testTokenManager(t))
}

func TestAuthenticateMissingHeader(t *testing.T) {
	a := testAuthenticator(t)

	for _, header := range []string{"", "   "} {
		if _, err := a.Authenticate(header); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("header %q: expected ErrMissingCredentials, got %v", header, err)
		}
	}
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	a := testAuthenticator(t)

	cases := []string{
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"Bearer ",
		"Token abc.def.ghi",
	}
	for _, header := range cases {
		if _, err := a.Authenticate(header); !errors.Is(err, ErrMalformedHeader) {
			t.Fatalf("header %q: expected ErrMalformedHeader, got %v", header, err)
		}
	}
}

func TestAuthenticateValidBearer(t *testing.T) {
	tm := testTokenManager(t)
	a := NewAuthenticator(tm)

	token, _, err := tm.Issue(&Identity{SubjectID: "u-1", Email: "user@example.com", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	identity, err := a.Authenticate("Bearer " + token)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if identity.SubjectID != "u-1" || identity.Role != domain.RoleUser {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	// Scheme matching is case-insensitive.
	if _, err := a.Authenticate("bearer " + token); err != nil {
		t.Fatalf("lowercase scheme rejected: %v", err)
	}
}

func TestAuthenticatePropagatesTokenErrors(t *testing.T) {
	a := testAuthenticator(t)

	expired := signClaims(t, testSecret, jwt.SigningMethodHS256,
		claimsWithExpiry("u-1", time.Now().Add(-25*time.Hour), time.Now().Add(-time.Hour)))
	if _, err := a.Authenticate("Bearer " + expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired to propagate, got %v", err)
	}

	if _, err := a.Authenticate("Bearer not-a-token"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed to propagate, got %v", err)
	}
}

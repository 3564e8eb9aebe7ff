package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/spec-kit/task-service/pkg/util"
)

func TestHTTPErrorStatusContract(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrWeakPassword, http.StatusBadRequest},
		{ErrMissingCredentials, http.StatusUnauthorized},
		{ErrMalformedHeader, http.StatusUnauthorized},
		{ErrTokenMalformed, http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{ErrInvalidSignature, http.StatusUnauthorized},
		{ErrNotOwner, http.StatusForbidden},
	}

	for _, tc := range cases {
		var domainErr *apperrors.DomainError
		if !errors.As(HTTPError(tc.err), &domainErr) {
			t.Fatalf("%v: expected DomainError", tc.err)
		}
		if domainErr.HTTPStatus != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, domainErr.HTTPStatus)
		}
	}
}

func TestHTTPErrorHidesAuthenticationSubtype(t *testing.T) {
	for _, err := range []error{ErrTokenExpired, ErrInvalidSignature, ErrMissingCredentials} {
		var domainErr *apperrors.DomainError
		if !errors.As(HTTPError(err), &domainErr) {
			t.Fatalf("%v: expected DomainError", err)
		}
		if domainErr.Message != "unauthorized" {
			t.Fatalf("%v: response body must not reveal the subtype, got %q", err, domainErr.Message)
		}
	}
}

func TestHTTPErrorPassesDomainErrorsThrough(t *testing.T) {
	notFound := apperrors.NewNotFound("task", nil)
	var domainErr *apperrors.DomainError
	if !errors.As(HTTPError(notFound), &domainErr) || domainErr.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND to pass through, got %v", HTTPError(notFound))
	}
}

func TestKindCoversWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", ErrTokenExpired)
	if Kind(wrapped) != "token_expired" {
		t.Fatalf("expected token_expired, got %s", Kind(wrapped))
	}
	if Kind(errors.New("other")) != "unknown" {
		t.Fatal("expected unknown kind for foreign errors")
	}
}

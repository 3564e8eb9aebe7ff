package auth

import (
	"errors"

	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// Sentinel error kinds for the credential and token paths. Every failure in
// this package maps to exactly one of these; callers match with errors.Is.
var (
	ErrWeakPassword       = errors.New("password does not meet strength policy")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMalformedHeader    = errors.New("malformed authorization header")
	ErrTokenMalformed     = errors.New("malformed token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrNotOwner           = errors.New("not resource owner")
)

// Kind returns a stable identifier for an auth error, used for internal
// diagnostics and audit events. Responses never carry it.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	default:
		return "unknown"
	}
}

// HTTPError translates auth error kinds to transport-level DomainErrors.
// All authentication failures surface uniformly as 401 without revealing
// the subtype; authorization denials surface as a bare 403.
func HTTPError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, ErrWeakPassword):
		return apperrors.NewWeakPassword(err.Error())
	case errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrMalformedHeader),
		errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrInvalidSignature):
		return apperrors.NewUnauthorized("unauthorized")
	case errors.Is(err, ErrNotOwner):
		return apperrors.NewForbidden("forbidden")
	default:
		return apperrors.MapError(err)
	}
}

package auth

import "strings"

const bearerScheme = "Bearer"

// Authenticator turns a raw Authorization header value into a verified
// Identity. It consults no store: token verification is self-contained,
// which is what lets instances scale horizontally without shared state.
type Authenticator struct {
	tokens *TokenManager
}

// NewAuthenticator constructs the stage.
func NewAuthenticator(tokens *TokenManager) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate expects the scheme-prefixed bearer form "Bearer <token>".
// Token verification errors propagate unchanged.
func (a *Authenticator) Authenticate(rawHeaderValue string) (*Identity, error) {
	if strings.TrimSpace(rawHeaderValue) == "" {
		return nil, ErrMissingCredentials
	}

	parts := strings.SplitN(rawHeaderValue, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return nil, ErrMalformedHeader
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return nil, ErrMalformedHeader
	}

	return a.tokens.Verify(token)
}

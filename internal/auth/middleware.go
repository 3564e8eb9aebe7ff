package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/task-service/pkg/util"
)

const identityKey = "auth_identity"

// Middleware authenticates bearer tokens for routes that need an identity
// but no per-resource ownership check (profile, admin, password change).
type Middleware struct {
	auth   *Authenticator
	logger *zap.Logger
}

// NewMiddleware constructs middleware.
func NewMiddleware(authenticator *Authenticator, logger *zap.Logger) *Middleware {
	return &Middleware{auth: authenticator, logger: logger}
}

// Handle enforces authentication for protected routes. Rejections surface
// as a uniform 401; the precise kind stays in the logs.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	identity, err := m.auth.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.logger.Debug("authentication rejected",
			zap.String("kind", Kind(err)),
			zap.String("path", c.Path()),
		)
		return HTTPError(err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}

// RequireElevated gates bulk and administrative routes on the elevated role.
// These routes enumerate all owners, so ownership resolution is bypassed
// entirely and only the role is checked.
func RequireElevated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("unauthorized")
		}
		if !identity.Role.Elevated() {
			return apperrors.NewForbidden("forbidden")
		}
		return c.Next()
	}
}

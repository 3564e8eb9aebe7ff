package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/ratelimit"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// AuthService coordinates registration and login flows around the
// credential and token services.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.Hasher
	tokens     *auth.TokenManager
	limiter    *ratelimit.LoginLimiter
	dispatcher events.Dispatcher
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Limiter    *ratelimit.LoginLimiter
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service. The signing secret is validated here:
// a missing secret aborts startup rather than failing requests later.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.MaxConcurrentHashes),
		tokens:     tokens,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
	}, nil
}

// Register creates a new account with the standard role.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewDuplicateEmail()
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokens.Issue(&auth.Identity{SubjectID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{Email: user.Email})
	return user, token, exp, nil
}

// Login authenticates by email and password and issues a token. Failures
// are indistinguishable in the response; the subtype goes to the audit
// stream only.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.User, string, time.Time, error) {
	email = normalizeEmail(email)

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email, ip); err != nil {
			return nil, "", time.Time{}, apperrors.NewRateLimited("too many login attempts")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.recordLoginFailure(ctx, email, ip, "unknown_email")
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordLoginFailure(ctx, email, ip, "wrong_password")
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, email, ip)
	}

	token, exp, err := s.tokens.Issue(&auth.Identity{SubjectID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.EventLoginSucceeded, user.ID, events.LoginSucceededPayload{Email: email, IP: ip})
	return user, token, exp, nil
}

// GetUser loads the account behind an authenticated identity.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// ListUsers enumerates accounts for administrative callers.
func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.users.List(ctx, limit, offset)
}

// ChangePassword verifies the current password before storing a new hash.
// The new password passes through the same strength policy as registration.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// TokenManager exposes the underlying token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) recordLoginFailure(ctx context.Context, email, ip, kind string) {
	if s.limiter != nil {
		s.limiter.RecordFailure(ctx, email, ip)
	}
	s.publish(ctx, events.EventLoginFailed, "", events.LoginFailedPayload{Email: email, Kind: kind, IP: ip})
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

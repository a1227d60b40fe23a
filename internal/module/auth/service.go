package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/simp-lee/smarttenders/internal/domain"
)

const invalidCredentials = "These credentials do not match our records."

// SessionStore persists the login of a browser between requests.
type SessionStore interface {
	Save(ctx context.Context, clientID string, s *domain.Session) error
	Destroy(ctx context.Context, clientID string) error
}

// ClientCache holds per-client data fetched under a login, such as the
// tender listing, that must not outlive it.
type ClientCache interface {
	Drop(clientID string)
}

// Service defines the authentication operations of one browser.
type Service interface {
	Login(ctx context.Context, clientID, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, clientID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req domain.PasswordReset) error
}

// authService implements Service on top of the remote auth resource.
type authService struct {
	remote   domain.AuthService
	sessions SessionStore
	cache    ClientCache
	logger   *slog.Logger
}

// NewService creates a new auth Service. cache may be nil.
func NewService(remote domain.AuthService, sessions SessionStore, cache ClientCache, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{remote: remote, sessions: sessions, cache: cache, logger: logger}
}

// Login exchanges credentials for a session and persists it for clientID.
// A rejection by the API is reported without revealing whether the account
// exists.
func (s *authService) Login(ctx context.Context, clientID, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	session, err := s.remote.Login(ctx, email, password)
	if err != nil {
		if domain.IsUnauthorized(err) || domain.IsNotFound(err) {
			return nil, domain.NewAppError(domain.CodeUnauthorized, invalidCredentials, err)
		}
		return nil, err
	}
	if !session.Authenticated() {
		return nil, domain.NewAppError(domain.CodeInternal, "login returned no token", nil)
	}
	if err := s.sessions.Save(ctx, clientID, session); err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to persist session", err)
	}
	s.forget(clientID)
	return session, nil
}

// Logout revokes the token remotely and forgets the local session together
// with the data cached under it. The local session is dropped even when the
// API call fails.
func (s *authService) Logout(ctx context.Context, clientID string) error {
	if err := s.remote.Logout(ctx); err != nil && !domain.IsUnauthorized(err) {
		s.logger.WarnContext(ctx, "remote logout failed", slog.String("error", err.Error()))
	}
	s.forget(clientID)
	if err := s.sessions.Destroy(ctx, clientID); err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to clear session", err)
	}
	return nil
}

// ForgotPassword requests a reset link. An unknown address is not an error,
// so the form cannot be used to discover which accounts exist.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	err := s.remote.ForgotPassword(ctx, normalizeEmail(email))
	if domain.IsNotFound(err) {
		return nil
	}
	return err
}

// ResetPassword confirms a reset with the emailed token.
func (s *authService) ResetPassword(ctx context.Context, req domain.PasswordReset) error {
	req.Email = normalizeEmail(req.Email)
	return s.remote.ResetPassword(ctx, req)
}

func (s *authService) forget(clientID string) {
	if s.cache != nil {
		s.cache.Drop(clientID)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

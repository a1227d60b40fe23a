package account

import (
	"context"
	"log/slog"
	"strings"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// SessionStore persists the login of a browser between requests.
type SessionStore interface {
	Save(ctx context.Context, clientID string, s *domain.Session) error
	Destroy(ctx context.Context, clientID string) error
}

// Service defines the dashboard operations of the logged-in user.
type Service interface {
	// Profile loads the account and refreshes the stored session stub when
	// the package state or contact details changed remotely.
	Profile(ctx context.Context, clientID string, s *domain.Session) (*domain.Profile, *domain.Session, error)
	UpdateEmail(ctx context.Context, clientID string, s *domain.Session, email string) (*domain.Session, error)
	UpdateCategories(ctx context.Context, categoryIDs []int) error
	// Expire forgets a session the API no longer accepts.
	Expire(ctx context.Context, clientID string)
}

type accountService struct {
	remote   domain.AccountService
	sessions SessionStore
	logger   *slog.Logger
}

// NewService creates a new account Service.
func NewService(remote domain.AccountService, sessions SessionStore, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountService{remote: remote, sessions: sessions, logger: logger}
}

func (s *accountService) Profile(ctx context.Context, clientID string, session *domain.Session) (*domain.Profile, *domain.Session, error) {
	p, err := s.remote.Profile(ctx)
	if err != nil {
		return nil, session, err
	}
	stub := p.Stub()
	if session == nil || stub == session.User {
		return p, session, nil
	}
	refreshed := &domain.Session{Token: session.Token, User: stub}
	if err := s.sessions.Save(ctx, clientID, refreshed); err != nil {
		// The request still sees the fresh stub; the next one refreshes again.
		s.logger.WarnContext(ctx, "refresh session failed", slog.String("error", err.Error()))
	}
	return p, refreshed, nil
}

func (s *accountService) UpdateEmail(ctx context.Context, clientID string, session *domain.Session, email string) (*domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.remote.UpdateEmail(ctx, email); err != nil {
		return session, err
	}
	if session == nil {
		return nil, nil
	}
	updated := &domain.Session{Token: session.Token, User: session.User}
	updated.User.Email = email
	if err := s.sessions.Save(ctx, clientID, updated); err != nil {
		s.logger.WarnContext(ctx, "refresh session failed", slog.String("error", err.Error()))
	}
	return updated, nil
}

func (s *accountService) UpdateCategories(ctx context.Context, categoryIDs []int) error {
	return s.remote.UpdateCategories(ctx, categoryIDs)
}

func (s *accountService) Expire(ctx context.Context, clientID string) {
	if err := s.sessions.Destroy(ctx, clientID); err != nil {
		s.logger.WarnContext(ctx, "destroy expired session failed", slog.String("error", err.Error()))
	}
}

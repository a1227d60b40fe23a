package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// mockRemote implements domain.AuthService.
type mockRemote struct {
	session   *domain.Session
	loginErr  error
	logoutErr error
	forgotErr error
	resetErr  error

	gotEmail string
	gotReset domain.PasswordReset
	logouts  int
}

func (m *mockRemote) Login(_ context.Context, email, _ string) (*domain.Session, error) {
	m.gotEmail = email
	return m.session, m.loginErr
}

func (m *mockRemote) Register(context.Context, domain.RegistrationForm) (*domain.RegistrationTicket, error) {
	return nil, errors.New("not used")
}

func (m *mockRemote) VerifyOTP(context.Context, string, string) (*domain.Session, error) {
	return nil, errors.New("not used")
}

func (m *mockRemote) ResendOTP(context.Context, string) error { return nil }

func (m *mockRemote) ForgotPassword(_ context.Context, email string) error {
	m.gotEmail = email
	return m.forgotErr
}

func (m *mockRemote) ResetPassword(_ context.Context, req domain.PasswordReset) error {
	m.gotReset = req
	return m.resetErr
}

func (m *mockRemote) Logout(context.Context) error {
	m.logouts++
	return m.logoutErr
}

// mockSessions implements SessionStore.
type mockSessions struct {
	saved      map[string]*domain.Session
	saveErr    error
	destroyErr error
}

func newMockSessions() *mockSessions {
	return &mockSessions{saved: make(map[string]*domain.Session)}
}

func (m *mockSessions) Save(_ context.Context, clientID string, s *domain.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[clientID] = s
	return nil
}

func (m *mockSessions) Destroy(_ context.Context, clientID string) error {
	if m.destroyErr != nil {
		return m.destroyErr
	}
	delete(m.saved, clientID)
	return nil
}

// mockCache implements ClientCache.
type mockCache struct{ dropped []string }

func (m *mockCache) Drop(clientID string) { m.dropped = append(m.dropped, clientID) }

var testSession = &domain.Session{Token: "tok-1", User: domain.UserStub{ID: 4, Name: "Sita", Email: "sita@example.com"}}

func TestService_Login(t *testing.T) {
	tests := []struct {
		name     string
		remote   *mockRemote
		saveErr  error
		wantCode int
		wantSave bool
	}{
		{"success", &mockRemote{session: testSession}, nil, 0, true},
		{"rejected credentials", &mockRemote{loginErr: domain.ErrUnauthorized}, nil, domain.CodeUnauthorized, false},
		{"unknown account", &mockRemote{loginErr: domain.ErrNotFound}, nil, domain.CodeUnauthorized, false},
		{"api down", &mockRemote{loginErr: domain.ErrUnavailable}, nil, domain.CodeUnavailable, false},
		{"empty token", &mockRemote{session: &domain.Session{}}, nil, domain.CodeInternal, false},
		{"persist failure", &mockRemote{session: testSession}, errors.New("disk full"), domain.CodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := newMockSessions()
			sessions.saveErr = tt.saveErr
			cache := &mockCache{}
			svc := NewService(tt.remote, sessions, cache, nil)

			s, err := svc.Login(context.Background(), "c1", "  Sita@Example.com ", "secret")
			if tt.wantCode == 0 {
				if err != nil || s != testSession {
					t.Fatalf("Login() = %v, %v", s, err)
				}
			} else {
				var appErr *domain.AppError
				if !errors.As(err, &appErr) || appErr.Code != tt.wantCode {
					t.Fatalf("Login() error = %v; want code %d", err, tt.wantCode)
				}
			}
			if _, saved := sessions.saved["c1"]; saved != tt.wantSave {
				t.Errorf("session saved = %v; want %v", saved, tt.wantSave)
			}
			if dropped := len(cache.dropped) == 1 && cache.dropped[0] == "c1"; dropped != tt.wantSave {
				t.Errorf("cached listing dropped = %v (%v); want %v", dropped, cache.dropped, tt.wantSave)
			}
			if tt.remote.gotEmail != "sita@example.com" {
				t.Errorf("email sent = %q", tt.remote.gotEmail)
			}
		})
	}
}

func TestService_LoginHidesAccountExistence(t *testing.T) {
	svc := NewService(&mockRemote{loginErr: domain.ErrNotFound}, newMockSessions(), nil, nil)
	_, err := svc.Login(context.Background(), "c1", "a@b.example", "x")
	if got := domain.SafeMessage(err, ""); got != invalidCredentials {
		t.Errorf("message = %q", got)
	}
}

func TestService_Logout(t *testing.T) {
	tests := []struct {
		name       string
		logoutErr  error
		destroyErr error
		wantErr    bool
	}{
		{"success", nil, nil, false},
		{"remote failure still clears", domain.ErrUnavailable, nil, false},
		{"expired token", domain.ErrUnauthorized, nil, false},
		{"local failure", nil, errors.New("db gone"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockRemote{logoutErr: tt.logoutErr}
			sessions := newMockSessions()
			sessions.saved["c1"] = testSession
			sessions.destroyErr = tt.destroyErr
			cache := &mockCache{}

			err := NewService(remote, sessions, cache, nil).Logout(context.Background(), "c1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Logout() error = %v; wantErr %v", err, tt.wantErr)
			}
			if remote.logouts != 1 {
				t.Errorf("remote logout calls = %d", remote.logouts)
			}
			if len(cache.dropped) != 1 || cache.dropped[0] != "c1" {
				t.Errorf("dropped = %v; want [c1]", cache.dropped)
			}
			if !tt.wantErr && sessions.saved["c1"] != nil {
				t.Error("session should be destroyed")
			}
		})
	}
}

func TestService_ForgotPassword(t *testing.T) {
	remote := &mockRemote{forgotErr: domain.ErrNotFound}
	svc := NewService(remote, newMockSessions(), nil, nil)
	if err := svc.ForgotPassword(context.Background(), " Who@Example.com"); err != nil {
		t.Errorf("unknown address should not be reported: %v", err)
	}
	if remote.gotEmail != "who@example.com" {
		t.Errorf("email = %q", remote.gotEmail)
	}

	remote.forgotErr = domain.ErrUnavailable
	if err := svc.ForgotPassword(context.Background(), "who@example.com"); !domain.IsUnavailable(err) {
		t.Errorf("error = %v; want unavailable", err)
	}
}

func TestService_ResetPassword(t *testing.T) {
	remote := &mockRemote{}
	svc := NewService(remote, newMockSessions(), nil, nil)
	req := domain.PasswordReset{Email: "A@B.example", Token: "t0k", Password: "newpassword", PasswordConfirmation: "newpassword"}
	if err := svc.ResetPassword(context.Background(), req); err != nil {
		t.Fatalf("ResetPassword() = %v", err)
	}
	if remote.gotReset.Email != "a@b.example" || remote.gotReset.Token != "t0k" {
		t.Errorf("sent = %+v", remote.gotReset)
	}
}

package remote

import (
	"context"
	"strings"

	"github.com/simp-lee/smarttenders/internal/domain"
)

type authService struct {
	api API
}

// NewAuthService returns the remote authentication resource.
func NewAuthService(api API) domain.AuthService {
	return &authService{api: api}
}

// sessionPayload is the body returned by login and OTP confirmation.
type sessionPayload struct {
	Token string          `json:"token"`
	User  domain.UserStub `json:"user"`
}

func (p *sessionPayload) session() (*domain.Session, error) {
	if strings.TrimSpace(p.Token) == "" {
		return nil, domain.NewAppError(domain.CodeInternal, "login response carried no token", nil)
	}
	return &domain.Session{Token: p.Token, User: p.User}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var p sessionPayload
	err := s.api.Post(ctx, "/login", map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	}, &p)
	if err != nil {
		return nil, err
	}
	return p.session()
}

// registerPayload is the flat body expected by POST /register.
type registerPayload struct {
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Password             string   `json:"password"`
	PasswordConfirmation string   `json:"password_confirmation"`
	Company              string   `json:"company,omitempty"`
	Phone                string   `json:"phone"`
	Address              string   `json:"address,omitempty"`
	Categories           []int    `json:"categories"`
	Provinces            []string `json:"provinces,omitempty"`
	PackageID            int      `json:"package_id"`
}

func (s *authService) Register(ctx context.Context, form domain.RegistrationForm) (*domain.RegistrationTicket, error) {
	body := registerPayload{
		Name:                 strings.TrimSpace(form.Contact.Name),
		Email:                strings.TrimSpace(form.Account.Email),
		Password:             form.Account.Password,
		PasswordConfirmation: form.Account.PasswordConfirmation,
		Company:              strings.TrimSpace(form.Contact.Company),
		Phone:                strings.TrimSpace(form.Contact.Phone),
		Address:              strings.TrimSpace(form.Contact.Address),
		Categories:           form.Preferences.Categories,
		Provinces:            form.Preferences.Provinces,
		PackageID:            form.Package.PackageID,
	}

	var ticket domain.RegistrationTicket
	if err := s.api.Post(ctx, "/register", body, &ticket); err != nil {
		return nil, err
	}
	if ticket.Email == "" {
		ticket.Email = body.Email
	}
	return &ticket, nil
}

func (s *authService) VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error) {
	var p sessionPayload
	err := s.api.Post(ctx, "/register/verify-otp", map[string]string{
		"email": strings.TrimSpace(email),
		"otp":   strings.TrimSpace(code),
	}, &p)
	if err != nil {
		return nil, err
	}
	return p.session()
}

func (s *authService) ResendOTP(ctx context.Context, email string) error {
	return s.api.Post(ctx, "/register/resend-otp", map[string]string{"email": strings.TrimSpace(email)}, nil)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	return s.api.Post(ctx, "/password/forgot", map[string]string{"email": strings.TrimSpace(email)}, nil)
}

func (s *authService) ResetPassword(ctx context.Context, req domain.PasswordReset) error {
	req.Email = strings.TrimSpace(req.Email)
	return s.api.Post(ctx, "/password/reset", req, nil)
}

// Logout revokes the bearer token carried by ctx.
func (s *authService) Logout(ctx context.Context) error {
	return s.api.Post(ctx, "/logout", nil, nil)
}

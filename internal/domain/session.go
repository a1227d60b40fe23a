package domain

import "context"

// UserStub is the minimal user record kept alongside the bearer token.
type UserStub struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PackageActive bool   `json:"package_active"`
}

// Session is an authenticated browser session against the remote API.
type Session struct {
	Token string   `json:"token"`
	User  UserStub `json:"user"`
}

// Authenticated reports whether s carries a bearer token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// HasActivePackage reports whether the session user holds an active package.
func (s *Session) HasActivePackage() bool {
	return s.Authenticated() && s.User.PackageActive
}

// RegistrationTicket is returned by a registration submit; the account is
// confirmed by the OTP sent to Email.
type RegistrationTicket struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// AuthService is the remote authentication resource.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, form RegistrationForm) (*RegistrationTicket, error)
	VerifyOTP(ctx context.Context, email, code string) (*Session, error)
	ResendOTP(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req PasswordReset) error
	Logout(ctx context.Context) error
}

// PasswordReset carries the fields of a password reset confirmation.
type PasswordReset struct {
	Email                string `json:"email"`
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

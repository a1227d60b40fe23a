package auth

import "github.com/simp-lee/smarttenders/internal/domain"

// LoginRequest represents the login form and its JSON equivalent.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
	Next     string `json:"-" form:"next"`
}

// ForgotPasswordRequest represents the password reset request form.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=255"`
}

// ResetPasswordRequest represents the password reset confirmation form.
type ResetPasswordRequest struct {
	Email                string `json:"email" form:"email" validate:"required,email,max=255"`
	Token                string `json:"token" form:"token" validate:"required,alphanum,max=255"`
	Password             string `json:"password" form:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password"`
}

func (r ResetPasswordRequest) toDomain() domain.PasswordReset {
	return domain.PasswordReset{
		Email:                r.Email,
		Token:                r.Token,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
	}
}

// SessionResponse is the public view of the logged-in user. The bearer token
// never leaves the server.
type SessionResponse struct {
	User domain.UserStub `json:"user"`
}

package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/wizard"
)

const (
	loginTemplate  = "auth/login.html"
	forgotTemplate = "auth/forgot.html"
	resetTemplate  = "auth/reset.html"

	resetLinkSent = "If that address is registered, a password reset link is on its way."
)

// AuthPageHandler renders the login and password reset pages.
type AuthPageHandler struct {
	svc       Service
	validator *wizard.Validator
}

// NewAuthPageHandler creates a new AuthPageHandler with the given service.
func NewAuthPageHandler(svc Service) *AuthPageHandler {
	return &AuthPageHandler{svc: svc, validator: wizard.NewValidator()}
}

// LoginPage renders the login form.
// GET /login
func (h *AuthPageHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, loginTemplate, middleware.ViewData(c, gin.H{
		"Title": "Log in",
		"Next":  middleware.SafeNext(c.Query("next"), ""),
	}))
}

// Login handles the login form. On success the browser is sent to the page
// it came from, or to the dashboard.
// POST /login
func (h *AuthPageHandler) Login(c *gin.Context) {
	var req LoginRequest
	_ = c.ShouldBind(&req)
	next := middleware.SafeNext(req.Next, "")

	render := func(status int, errs map[string]string, msg string) {
		c.HTML(status, loginTemplate, middleware.ViewData(c, gin.H{
			"Title":  "Log in",
			"Next":   next,
			"Email":  req.Email,
			"Errors": errs,
			"Error":  msg,
		}))
	}

	if res := h.validator.Check(&req); !res.OK {
		render(http.StatusUnprocessableEntity, res.Errors, "")
		return
	}
	clientID, err := middleware.RequireClientID(c)
	if err != nil {
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeInternal, "client identity missing", err))
		return
	}

	s, err := h.svc.Login(c.Request.Context(), clientID, req.Email, req.Password)
	if err != nil {
		render(domain.HTTPStatusCode(err), nil, domain.SafeMessage(err, "Login failed, please try again later."))
		return
	}

	middleware.SetSession(c, s)
	middleware.SetFlash(c, middleware.NoticeSuccess, "Welcome back, "+displayName(s.User)+".")
	middleware.Redirect(c, middleware.SafeNext(next, middleware.DashboardPath))
}

// Logout ends the session of the browser.
// POST /logout
func (h *AuthPageHandler) Logout(c *gin.Context) {
	clientID, err := middleware.RequireClientID(c)
	if err != nil {
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeInternal, "client identity missing", err))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), clientID); err != nil {
		middleware.ErrorPage(c, err)
		return
	}
	middleware.SetSession(c, nil)
	middleware.SetFlash(c, middleware.NoticeInfo, "You have been logged out.")
	middleware.Redirect(c, "/")
}

// ForgotPage renders the password reset request form.
// GET /forgot-password
func (h *AuthPageHandler) ForgotPage(c *gin.Context) {
	c.HTML(http.StatusOK, forgotTemplate, middleware.ViewData(c, gin.H{"Title": "Forgot password"}))
}

// Forgot requests a reset link for the submitted address.
// POST /forgot-password
func (h *AuthPageHandler) Forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	_ = c.ShouldBind(&req)

	render := func(status int, errs map[string]string, msg string) {
		c.HTML(status, forgotTemplate, middleware.ViewData(c, gin.H{
			"Title":  "Forgot password",
			"Email":  req.Email,
			"Errors": errs,
			"Error":  msg,
		}))
	}

	if res := h.validator.Check(&req); !res.OK {
		render(http.StatusUnprocessableEntity, res.Errors, "")
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		render(domain.HTTPStatusCode(err), remoteFields(err), domain.SafeMessage(err, "The reset link could not be sent, please try again later."))
		return
	}
	middleware.SetFlash(c, middleware.NoticeSuccess, resetLinkSent)
	middleware.Redirect(c, middleware.LoginPath)
}

// ResetPage renders the new password form reached from the emailed link.
// GET /reset-password?token=&email=
func (h *AuthPageHandler) ResetPage(c *gin.Context) {
	c.HTML(http.StatusOK, resetTemplate, middleware.ViewData(c, gin.H{
		"Title": "Reset password",
		"Token": c.Query("token"),
		"Email": c.Query("email"),
	}))
}

// Reset sets the new password and sends the user to the login page.
// POST /reset-password
func (h *AuthPageHandler) Reset(c *gin.Context) {
	var req ResetPasswordRequest
	_ = c.ShouldBind(&req)

	render := func(status int, errs map[string]string, msg string) {
		c.HTML(status, resetTemplate, middleware.ViewData(c, gin.H{
			"Title":  "Reset password",
			"Token":  req.Token,
			"Email":  req.Email,
			"Errors": errs,
			"Error":  msg,
		}))
	}

	if res := h.validator.Check(&req); !res.OK {
		render(http.StatusUnprocessableEntity, res.Errors, "")
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.toDomain()); err != nil {
		render(domain.HTTPStatusCode(err), remoteFields(err), domain.SafeMessage(err, "The password could not be reset, please try again later."))
		return
	}
	middleware.SetFlash(c, middleware.NoticeSuccess, "Your password has been reset. You can log in now.")
	middleware.Redirect(c, middleware.LoginPath)
}

// remoteFields returns the field errors reported by the API, if any.
func remoteFields(err error) map[string]string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

func displayName(u domain.UserStub) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

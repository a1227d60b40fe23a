package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/pkg"
	"github.com/simp-lee/smarttenders/internal/wizard"
)

// AuthHandler handles REST API requests for authentication.
type AuthHandler struct {
	svc       Service
	validator *wizard.Validator
}

// NewHandler creates a new AuthHandler with the given service.
func NewHandler(svc Service) *AuthHandler {
	return &AuthHandler{svc: svc, validator: wizard.NewValidator()}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		pkg.ValidationError(c, err)
		return
	}
	if res := h.validator.Check(&req); !res.OK {
		pkg.Error(c, fieldError(res))
		return
	}
	clientID, err := middleware.RequireClientID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, "client identity missing", err))
		return
	}

	s, err := h.svc.Login(c.Request.Context(), clientID, req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	middleware.SetSession(c, s)
	pkg.Success(c, SessionResponse{User: s.User})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	clientID, err := middleware.RequireClientID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, "client identity missing", err))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), clientID); err != nil {
		pkg.Error(c, err)
		return
	}
	middleware.SetSession(c, nil)
	pkg.Success(c, nil)
}

// Me handles GET /api/v1/me. The route requires a session.
func (h *AuthHandler) Me(c *gin.Context) {
	pkg.Success(c, SessionResponse{User: middleware.GetSession(c).User})
}

// fieldError converts a failed form check into a validation error carrying
// the per-field messages.
func fieldError(res wizard.Result) *domain.AppError {
	return &domain.AppError{
		Code:    domain.CodeValidation,
		Message: res.Message(),
		Fields:  res.Errors,
	}
}

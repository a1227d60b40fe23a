package account

import (
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/pkg"
)

// AccountHandler serves the account API of the logged-in user.
type AccountHandler struct {
	svc Service
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// Profile handles GET /api/v1/account. The route requires a session.
func (h *AccountHandler) Profile(c *gin.Context) {
	clientID := middleware.GetClientID(c)
	p, s, err := h.svc.Profile(c.Request.Context(), clientID, middleware.GetSession(c))
	if err != nil {
		if domain.IsUnauthorized(err) {
			h.svc.Expire(c.Request.Context(), clientID)
			middleware.SetSession(c, nil)
		}
		pkg.Error(c, err)
		return
	}
	middleware.SetSession(c, s)
	pkg.Success(c, p)
}

// expireAndLogin forgets a session the API rejected and sends the browser to
// the login page, returning here afterwards.
func expireAndLogin(c *gin.Context, svc Service) {
	if clientID := middleware.GetClientID(c); clientID != "" {
		svc.Expire(c.Request.Context(), clientID)
	}
	middleware.SetSession(c, nil)
	middleware.SetFlash(c, middleware.NoticeWarning, "Your session has expired. Please log in again.")
	middleware.Redirect(c, middleware.LoginPath+"?next="+url.QueryEscape(middleware.DashboardPath))
}

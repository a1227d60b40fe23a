package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/middleware"
)

// AuthModule implements the app.Module interface for login, logout and
// password reset.
type AuthModule struct {
	handler     *AuthHandler
	pageHandler *AuthPageHandler
}

// NewModule creates a new AuthModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *AuthHandler, ph *AuthPageHandler) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("auth.NewModule: pageHandler must not be nil")
	}
	return &AuthModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers auth API and page routes.
func (m *AuthModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	auth := api.Group("/auth")
	auth.POST("/login", m.handler.Login)
	auth.POST("/logout", m.handler.Logout)
	api.GET("/me", middleware.RequireSession(), m.handler.Me)

	guest := pages.Group("", middleware.RedirectIfAuthenticated(middleware.DashboardPath))
	guest.GET("/login", m.pageHandler.LoginPage)
	guest.POST("/login", m.pageHandler.Login)
	guest.GET("/forgot-password", m.pageHandler.ForgotPage)
	guest.POST("/forgot-password", m.pageHandler.Forgot)
	guest.GET("/reset-password", m.pageHandler.ResetPage)
	guest.POST("/reset-password", m.pageHandler.Reset)

	pages.POST("/logout", m.pageHandler.Logout)
}

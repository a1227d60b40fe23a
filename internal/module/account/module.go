package account

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/middleware"
)

// AccountModule implements the app.Module interface for the dashboard.
type AccountModule struct {
	handler     *AccountHandler
	pageHandler *AccountPageHandler
}

// NewModule creates a new AccountModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *AccountHandler, ph *AccountPageHandler) *AccountModule {
	if h == nil {
		panic("account.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("account.NewModule: pageHandler must not be nil")
	}
	return &AccountModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers the dashboard routes, all of which require a
// session.
func (m *AccountModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/account", middleware.RequireSession(), m.handler.Profile)

	dashboard := pages.Group(middleware.DashboardPath, middleware.RequireSession())
	dashboard.GET("", m.pageHandler.Dashboard)
	dashboard.POST("/email", m.pageHandler.UpdateEmail)
	dashboard.POST("/categories", m.pageHandler.UpdateCategories)
}

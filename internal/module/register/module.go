package register

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/middleware"
)

// RegisterModule implements the app.Module interface for sign-up.
type RegisterModule struct {
	pageHandler *RegisterPageHandler
}

// NewModule creates a new RegisterModule.
// Panics if ph is nil.
func NewModule(ph *RegisterPageHandler) *RegisterModule {
	if ph == nil {
		panic("register.NewModule: pageHandler must not be nil")
	}
	return &RegisterModule{pageHandler: ph}
}

// RegisterRoutes registers the wizard and OTP pages. Logged-in users are
// sent to their dashboard instead.
func (m *RegisterModule) RegisterRoutes(_ *gin.RouterGroup, pages *gin.RouterGroup) {
	guest := pages.Group("/register", middleware.RedirectIfAuthenticated(middleware.DashboardPath))
	guest.GET("", m.pageHandler.StepPage)
	guest.POST("", m.pageHandler.Step)
	guest.GET("/otp", m.pageHandler.OTPPage)
	guest.POST("/otp", m.pageHandler.VerifyOTP)
	guest.POST("/otp/resend", m.pageHandler.ResendOTP)
}

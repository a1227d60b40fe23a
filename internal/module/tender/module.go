package tender

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/middleware"
)

// TenderModule implements the app.Module interface for the tender listing.
type TenderModule struct {
	handler     *TenderHandler
	pageHandler *TenderPageHandler
}

// NewModule creates a new TenderModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *TenderHandler, ph *TenderPageHandler) *TenderModule {
	if h == nil {
		panic("tender.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("tender.NewModule: pageHandler must not be nil")
	}
	return &TenderModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers tender API and page routes.
func (m *TenderModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	// API routes
	api.GET("/tenders", m.handler.List)
	api.PUT("/tenders/filters", m.handler.UpdateFilters)
	api.DELETE("/tenders/filters", m.handler.ResetFilters)
	api.GET("/tenders/:id", middleware.RequireActivePackage(), m.handler.Get)
	api.GET("/taxonomy", m.handler.Taxonomy)

	// Page routes
	pages.GET("/tenders", m.pageHandler.ListPage)
	pages.GET("/tenders/more", m.pageHandler.MoreRows)
	pages.POST("/tenders/filters", m.pageHandler.ApplyFilters)
	pages.POST("/tenders/filters/reset", m.pageHandler.ResetFilters)
	pages.GET("/tenders/:id", middleware.RequireActivePackage(), m.pageHandler.DetailPage)
}

package content

import "github.com/gin-gonic/gin"

// ContentModule implements the app.Module interface for public content.
type ContentModule struct {
	handler     *ContentHandler
	pageHandler *ContentPageHandler
}

// NewModule creates a new ContentModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *ContentHandler, ph *ContentPageHandler) *ContentModule {
	if h == nil {
		panic("content.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("content.NewModule: pageHandler must not be nil")
	}
	return &ContentModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers content API and page routes.
func (m *ContentModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/packages", m.handler.Packages)
	api.GET("/footer", m.handler.Footer)

	pages.GET("/", m.pageHandler.Home)
	pages.GET("/pages/:slug", m.pageHandler.Page)
}

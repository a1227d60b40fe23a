package app

import "github.com/gin-gonic/gin"

// Module is a feature area that registers its own API and page routes.
// api is mounted at /api/v1; pages at the site root. Both groups already
// carry client identity, the loaded session and CSRF protection.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}

package content

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/pkg"
)

// ContentHandler serves the public catalogue API.
type ContentHandler struct {
	packages domain.PackageService
	footer   *Footer
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(packages domain.PackageService, footer *Footer) *ContentHandler {
	return &ContentHandler{packages: packages, footer: footer}
}

// Packages handles GET /api/v1/packages.
func (h *ContentHandler) Packages(c *gin.Context) {
	list, err := h.packages.List(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, list)
}

// Footer handles GET /api/v1/footer.
func (h *ContentHandler) Footer(c *gin.Context) {
	fc := h.footer.Get(c.Request.Context())
	if fc == nil {
		pkg.Error(c, domain.ErrUnavailable)
		return
	}
	pkg.Success(c, fc)
}

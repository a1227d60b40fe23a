package content

import (
	"html/template"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ContentPageHandler renders the home page and CMS pages.
type ContentPageHandler struct {
	content  domain.ContentService
	packages domain.PackageService
}

// NewContentPageHandler creates a new ContentPageHandler.
func NewContentPageHandler(content domain.ContentService, packages domain.PackageService) *ContentPageHandler {
	return &ContentPageHandler{content: content, packages: packages}
}

// Home renders the landing page with the package catalogue and
// testimonials. Both are loaded concurrently; a section that fails to load
// is left out rather than failing the page.
// GET /
func (h *ContentPageHandler) Home(c *gin.Context) {
	var (
		packages     = []domain.Package{}
		testimonials = []domain.Testimonial{}
	)
	ctx := c.Request.Context()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := h.packages.List(gctx)
		if err != nil {
			slog.WarnContext(ctx, "load packages failed", slog.String("error", err.Error()))
			return nil
		}
		packages = p
		return nil
	})
	g.Go(func() error {
		t, err := h.content.Testimonials(gctx)
		if err != nil {
			slog.WarnContext(ctx, "load testimonials failed", slog.String("error", err.Error()))
			return nil
		}
		testimonials = t
		return nil
	})
	_ = g.Wait()

	c.HTML(http.StatusOK, "home.html", middleware.ViewData(c, gin.H{
		"Title":        "SmartTenders",
		"Packages":     packages,
		"Testimonials": testimonials,
	}))
}

// Page renders a CMS page such as "about" or "terms".
// GET /pages/:slug
func (h *ContentPageHandler) Page(c *gin.Context) {
	slug := c.Param("slug")
	if !slugPattern.MatchString(slug) {
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeNotFound, "page not found", nil))
		return
	}
	p, err := h.content.Page(c.Request.Context(), slug)
	if err != nil {
		middleware.ErrorPage(c, err)
		return
	}
	c.HTML(http.StatusOK, "content/page.html", middleware.ViewData(c, gin.H{
		"Title": p.Title,
		"Page":  p,
		"Body":  template.HTML(p.Body), // sanitized by the content service
	}))
}

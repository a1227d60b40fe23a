package middleware

import (
	"maps"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// FooterKey is the context key under which the site footer is made
// available to page templates.
const FooterKey = "footer"

var errorTemplates = map[int]string{
	http.StatusBadRequest: "errors/400.html",
	http.StatusNotFound:   "errors/404.html",
}

// ViewData returns the values every page layout reads, overlaid with data.
func ViewData(c *gin.Context, data gin.H) gin.H {
	out := gin.H{
		"CSRFToken": GetCSRFToken(c),
		"Flash":     GetFlash(c),
		"Session":   GetSession(c),
		"RequestID": GetRequestID(c),
		"Path":      c.Request.URL.Path,
	}
	if footer, ok := c.Get(FooterKey); ok {
		out["Footer"] = footer
	}
	maps.Copy(out, data)
	return out
}

// ErrorPage renders the error template matching err. Statuses without a
// dedicated template use errors/500.html; the message shown is always safe
// for end users.
func ErrorPage(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	tmpl, ok := errorTemplates[status]
	if !ok {
		tmpl = "errors/500.html"
	}
	c.HTML(status, tmpl, ViewData(c, gin.H{
		"Title":   http.StatusText(status),
		"Message": domain.SafeMessage(err, "Something went wrong. Please try again later."),
	}))
	c.Abort()
}

package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/pkg"
)

// errorTemplates maps HTTP status codes to their error template paths.
var errorTemplates = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// renderError answers with an error page when the client accepts HTML and a
// JSON envelope otherwise.
func renderError(c *gin.Context, code int, message string) {
	accept := strings.ToLower(c.GetHeader("Accept"))
	// Explicit JSON wins over the */* that acceptsHTML also matches.
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		renderJSONError(c, code, message)
		return
	}
	if acceptsHTML(c) {
		renderHTMLErrorPage(c, code, message)
		return
	}
	renderJSONError(c, code, message)
}

func renderJSONError(c *gin.Context, code int, message string) {
	c.JSON(code, pkg.Response{Code: code, Message: message})
}

// renderHTMLErrorPage renders the error template for code, falling back to
// errors/500.html for unmapped codes and to plain text if rendering panics.
func renderHTMLErrorPage(c *gin.Context, code int, message string) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(code, "text/plain; charset=utf-8",
				[]byte(fmt.Sprintf("%d %s", code, defaultStatusText(code))))
		}
	}()

	tmpl, ok := errorTemplates[code]
	if !ok {
		tmpl = errorTemplates[http.StatusInternalServerError]
	}
	c.HTML(code, tmpl, middleware.ViewData(c, gin.H{
		"Title":   defaultStatusText(code),
		"Message": pageMessage(code, message),
	}))
}

// pageMessage capitalises short status messages for display.
func pageMessage(code int, message string) string {
	if code == http.StatusNotFound {
		return "The page you are looking for does not exist."
	}
	if message == "" {
		return defaultStatusText(code)
	}
	return strings.ToUpper(message[:1]) + message[1:]
}

// acceptsHTML reports whether the client accepts an HTML response: text/html,
// */* or no Accept header at all.
func acceptsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "*/*") ||
		strings.TrimSpace(accept) == ""
}

// defaultStatusText returns a short human-readable label for common error codes.
func defaultStatusText(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Bad Request"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusRequestTimeout:
		return "Request Timeout"
	case http.StatusTooManyRequests:
		return "Too Many Requests"
	case http.StatusInternalServerError:
		return "Internal Server Error"
	case http.StatusBadGateway:
		return "Service Unavailable"
	default:
		return "Error"
	}
}

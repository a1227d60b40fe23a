package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
)

// Recovery recovers from panics, logs the value with its stack trace and
// answers 500. Browsers (Accept: text/html, outside /api/) get the
// errors/500.html page; everything else gets the JSON envelope
//
//	{"code": 500, "message": "internal server error", "data": null}
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)

			c.Abort()
			if !isAPIRequest(c) && acceptsHTML(c) {
				renderErrorPage(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":       http.StatusInternalServerError,
				"message":    "internal server error",
				"data":       nil,
				"request_id": GetRequestID(c),
			})
		}()
		c.Next()
	}
}

// renderErrorPage renders errors/500.html, falling back to plain text when
// no HTML renderer is configured or rendering itself panics.
func renderErrorPage(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{
		"Title":     "Something went wrong",
		"RequestID": GetRequestID(c),
	})
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}

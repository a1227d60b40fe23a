package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	loginNotice   = "Please log in to continue."
	packageNotice = "An active package is required to view tender details."
)

// RequireSession lets only logged-in clients through. Pages redirect to the
// login page with a notice and the original path in "next"; API requests get
// a 401 envelope.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSession(c).Authenticated() {
			c.Next()
			return
		}
		if isAPIRequest(c) {
			abortJSON(c, http.StatusUnauthorized, loginNotice)
			return
		}
		SetFlash(c, NoticeWarning, loginNotice)
		Redirect(c, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	}
}

// RequireActivePackage lets only clients with an active package through.
// Anonymous clients are treated as by RequireSession; logged-in clients
// without a package are sent to the dashboard, or get a 403 on the API.
func RequireActivePackage() gin.HandlerFunc {
	requireSession := RequireSession()
	return func(c *gin.Context) {
		s := GetSession(c)
		if !s.Authenticated() {
			requireSession(c)
			return
		}
		if s.HasActivePackage() {
			c.Next()
			return
		}
		if isAPIRequest(c) {
			abortJSON(c, http.StatusForbidden, packageNotice)
			return
		}
		SetFlash(c, NoticeWarning, packageNotice)
		Redirect(c, DashboardPath)
	}
}

// RedirectIfAuthenticated sends logged-in clients away from guest-only pages
// such as login and registration.
func RedirectIfAuthenticated(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSession(c).Authenticated() {
			Redirect(c, target)
			return
		}
		c.Next()
	}
}

// Redirect aborts with a See Other redirect, or an HX-Redirect header for
// HTMX requests, which follow redirects inside the swapped fragment otherwise.
func Redirect(c *gin.Context, location string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", location)
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    nil,
	})
}

// isAPIRequest reports whether the request targets the JSON API.
func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// SafeNext returns next when it is a local path and fallback otherwise, so a
// login form cannot be used as an open redirect.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "st_flash"
	flashKey        = "flash"
)

// Notice kinds.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a transient message shown once on the next rendered page.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash queues a notice for the next request of this browser.
func SetFlash(c *gin.Context, kind, message string) {
	b, err := json.Marshal(Notice{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Flash moves a queued notice from its cookie into the request and clears the
// cookie, so each notice is shown exactly once.
func Flash() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(flashCookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			var n Notice
			if json.Unmarshal(b, &n) == nil && n.Message != "" {
				c.Set(flashKey, &n)
			}
		}
		c.Next()
	}
}

// GetFlash returns the notice for the current request, or nil.
func GetFlash(c *gin.Context) *Notice {
	v, ok := c.Get(flashKey)
	if !ok {
		return nil
	}
	n, _ := v.(*Notice)
	return n
}

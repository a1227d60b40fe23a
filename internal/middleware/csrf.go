package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"

	csrfNotice = "Your form has expired. Please try again."
)

// CSRF protects state-changing requests with a signed double-submit token.
//
// Token format: hex(nonce) + "." + base64url(HMAC-SHA256(nonce, secret)).
//
// Safe methods receive a token cookie (readable by scripts, SameSite=Strict)
// and the token is exposed to templates through GetCSRFToken. Unsafe methods
// must echo the cookie in the "_csrf_token" form field or the X-CSRF-Token
// header. A rejected page form is sent back to the referring page with a
// notice; a rejected API call gets a 403 envelope.
func CSRF(secret string, secure bool) gin.HandlerFunc {
	key := []byte(strings.TrimSpace(secret))

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			token, err := c.Cookie(csrfCookieName)
			if err != nil || !validToken(token, key) {
				token, err = generateToken(key)
				if err != nil {
					_ = c.Error(err)
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				http.SetCookie(c.Writer, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}
			c.Set(csrfContextKey, token)
			c.Next()
			return
		}

		cookieToken, _ := c.Cookie(csrfCookieName)
		requestToken := c.GetHeader(csrfHeaderName)
		if requestToken == "" {
			requestToken = c.PostForm(csrfFormField)
		}
		if !validToken(cookieToken, key) || subtle.ConstantTimeCompare([]byte(cookieToken), []byte(requestToken)) != 1 {
			rejectCSRF(c)
			return
		}
		c.Set(csrfContextKey, cookieToken)
		c.Next()
	}
}

func rejectCSRF(c *gin.Context) {
	if isAPIRequest(c) {
		abortJSON(c, http.StatusForbidden, csrfNotice)
		return
	}
	SetFlash(c, NoticeError, csrfNotice)
	back := "/"
	if ref, err := url.Parse(c.GetHeader("Referer")); err == nil && ref.Path != "" {
		back = SafeNext(ref.RequestURI(), "/")
	}
	Redirect(c, back)
}

// GetCSRFToken returns the token stored by CSRF, or "".
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}

func generateToken(key []byte) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	n := hex.EncodeToString(nonce)
	return n + "." + signNonce(n, key), nil
}

func signNonce(nonce string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func validToken(token string, key []byte) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(signNonce(nonce, key)))
}

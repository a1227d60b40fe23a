package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/smarttenders/internal/apiclient"
	"github.com/simp-lee/smarttenders/internal/domain"
)

const (
	clientCookieName  = "st_client"
	clientIDKey       = "client_id"
	sessionKey        = "session"
	clientTokenIssuer = "smarttenders"
)

// ClientConfig configures the client identity cookie.
type ClientConfig struct {
	Secret string
	MaxAge time.Duration
	Secure bool
}

// ClientIdentity gives every browser a stable random id carried in a signed
// HS256 cookie. The id keys all server-side client state: filters, the
// persisted login and the registration wizard. A missing, forged or expired
// cookie is replaced by a fresh id; a cookie past half its lifetime is
// re-issued with the same id.
func ClientIdentity(cfg ClientConfig) gin.HandlerFunc {
	secret := []byte(strings.TrimSpace(cfg.Secret))
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 30 * 24 * time.Hour
	}

	return func(c *gin.Context) {
		id, expiresAt := "", time.Time{}
		if raw, err := c.Cookie(clientCookieName); err == nil && raw != "" {
			id, expiresAt = parseClientToken(raw, secret)
		}

		now := time.Now()
		if id == "" || expiresAt.Sub(now) < cfg.MaxAge/2 {
			if id == "" {
				id = uuid.NewString()
			}
			token, err := signClientToken(id, secret, now, cfg.MaxAge)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     clientCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge / time.Second),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		SetClientID(c, id)
		c.Next()
	}
}

func signClientToken(id string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    clientTokenIssuer,
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseClientToken returns the client id and expiry of a valid token, or ""
// when the token does not verify.
func parseClientToken(raw string, secret []byte) (string, time.Time) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(clientTokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", time.Time{}
	}
	if _, err := uuid.Parse(claims.Subject); err != nil || claims.ExpiresAt == nil {
		return "", time.Time{}
	}
	return claims.Subject, claims.ExpiresAt.Time
}

// SetClientID binds id to the request and to its log attributes.
func SetClientID(c *gin.Context, id string) {
	c.Set(clientIDKey, id)
	ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("client_id", id))
	c.Request = c.Request.WithContext(ctx)
}

// GetClientID returns the id set by ClientIdentity, or "".
func GetClientID(c *gin.Context) string {
	return c.GetString(clientIDKey)
}

// SessionLoader restores the persisted login of a client.
type SessionLoader interface {
	Load(ctx context.Context, clientID string) (*domain.Session, error)
}

// LoadSession attaches the persisted login of the client to the request. Its
// bearer token is placed in the request context for the API client. Load
// failures are logged and the request continues anonymously.
func LoadSession(loader SessionLoader, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		clientID := GetClientID(c)
		if clientID == "" {
			c.Next()
			return
		}
		s, err := loader.Load(c.Request.Context(), clientID)
		if err != nil {
			log.WarnContext(c.Request.Context(), "load session failed", slog.String("error", err.Error()))
		}
		if s.Authenticated() {
			SetSession(c, s)
		}
		c.Next()
	}
}

// SetSession makes s the session of the current request. A nil s clears it.
func SetSession(c *gin.Context, s *domain.Session) {
	if !s.Authenticated() {
		c.Set(sessionKey, (*domain.Session)(nil))
		c.Request = c.Request.WithContext(apiclient.WithToken(c.Request.Context(), ""))
		return
	}
	c.Set(sessionKey, s)
	c.Request = c.Request.WithContext(apiclient.WithToken(c.Request.Context(), s.Token))
}

// GetSession returns the session of the current request, or nil.
func GetSession(c *gin.Context) *domain.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*domain.Session)
	return s
}

// errNoClient is returned when a handler needs a client id that the
// ClientIdentity middleware did not set.
var errNoClient = errors.New("middleware: no client id on request")

// RequireClientID returns the client id of the request or an error when the
// identity middleware is missing from the chain.
func RequireClientID(c *gin.Context) (string, error) {
	if id := GetClientID(c); id != "" {
		return id, nil
	}
	return "", errNoClient
}

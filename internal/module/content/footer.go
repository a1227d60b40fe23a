package content

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	shardedcache "github.com/simp-lee/cache"
	"golang.org/x/sync/singleflight"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
)

const (
	footerKey        = "footer"
	lastFooterKey    = "footer:last"
	defaultFooterTTL = 10 * time.Minute
	footerTimeout    = 3 * time.Second
)

// Footer caches the CMS footer for all pages. Expired values are refreshed
// by one shared call; when the refresh fails the last good value keeps being
// served.
type Footer struct {
	svc    domain.ContentService
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
	cache  shardedcache.CacheInterface
}

// NewFooter returns a footer cache over svc.
func NewFooter(svc domain.ContentService, ttl time.Duration, logger *slog.Logger) *Footer {
	if ttl <= 0 {
		ttl = defaultFooterTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Footer{
		svc:    svc,
		ttl:    ttl,
		logger: logger,
		// Two keys; expired entries are dropped on read, no cleaner needed.
		cache: shardedcache.NewCache(shardedcache.Options{ShardCount: 1}),
	}
}

// Get returns the footer, or nil when it has never been loaded successfully.
func (f *Footer) Get(ctx context.Context) *domain.FooterContent {
	if fc, ok := shardedcache.GetTyped[*domain.FooterContent](f.cache, footerKey); ok {
		return fc
	}

	v, err, _ := f.group.Do(footerKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), footerTimeout)
		defer cancel()
		fc, err := f.svc.Footer(fctx)
		if err != nil {
			return nil, err
		}
		f.cache.SetWithExpiration(footerKey, fc, f.ttl)
		f.cache.SetWithExpiration(lastFooterKey, fc, shardedcache.NoExpiration)
		return fc, nil
	})
	if err != nil {
		f.logger.WarnContext(ctx, "load footer failed", slog.String("error", err.Error()))
		last, _ := shardedcache.GetTyped[*domain.FooterContent](f.cache, lastFooterKey)
		return last
	}
	return v.(*domain.FooterContent)
}

// Middleware exposes the footer to page templates. API requests skip it.
func (f *Footer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			if fc := f.Get(c.Request.Context()); fc != nil {
				c.Set(middleware.FooterKey, fc)
			}
		}
		c.Next()
	}
}

package tender

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/simp-lee/smarttenders/internal/domain"
)

const taxonomyKey = "taxonomy"

// TaxonomyLoader fetches province, category and newspaper facets once and
// serves the cached value afterwards. Concurrent first callers share a single remote
// call; failures are not cached. The returned value must not be modified.
type TaxonomyLoader struct {
	svc    domain.CategoryService
	logger *slog.Logger
	group  singleflight.Group

	mu     sync.RWMutex
	cached *domain.Taxonomy
}

// NewTaxonomyLoader returns a loader over svc.
func NewTaxonomyLoader(svc domain.CategoryService, logger *slog.Logger) *TaxonomyLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxonomyLoader{svc: svc, logger: logger}
}

// Get returns the cached taxonomy, loading it on first use.
func (l *TaxonomyLoader) Get(ctx context.Context) (*domain.Taxonomy, error) {
	l.mu.RLock()
	t := l.cached
	l.mu.RUnlock()
	if t != nil {
		return t, nil
	}
	return l.load(ctx)
}

// Reload fetches the taxonomy again, bypassing the cache. On success the new
// value replaces the cached one; on failure the previous value keeps being
// served by Get and the error is returned.
func (l *TaxonomyLoader) Reload(ctx context.Context) (*domain.Taxonomy, error) {
	l.group.Forget(taxonomyKey)
	return l.load(ctx)
}

func (l *TaxonomyLoader) load(ctx context.Context) (*domain.Taxonomy, error) {
	// The shared call must outlive the first caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(taxonomyKey, func() (any, error) {
		t, err := l.svc.Taxonomy(shared)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cached = t
		l.mu.Unlock()
		l.logger.InfoContext(shared, "taxonomy loaded",
			slog.Int("provinces", len(t.Provinces)),
			slog.Int("categories", len(t.Categories)),
			slog.Int("newspapers", len(t.Newspapers)),
		)
		return t, nil
	})
	if err != nil {
		l.logger.WarnContext(ctx, "load taxonomy failed", slog.String("error", err.Error()))
		return nil, err
	}
	return v.(*domain.Taxonomy), nil
}

package tender

import (
	"context"
	"log/slog"
	"sync"
	"time"

	shardedcache "github.com/simp-lee/cache"

	"github.com/simp-lee/smarttenders/internal/clientstate"
	"github.com/simp-lee/smarttenders/internal/domain"
)

const defaultIdleTTL = 30 * time.Minute

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Tenders       domain.TenderService
	State         clientstate.Store
	CacheTTL      time.Duration // TTL of each persisted filter mirror
	IdleTTL       time.Duration // stores unused for longer are evicted
	SweepInterval time.Duration // how often evicted stores are reclaimed; defaults to IdleTTL/2
	Logger        *slog.Logger
}

// Registry keeps one Store per client id in an expiring in-memory cache.
// Every Get pushes the store's expiry IdleTTL into the future; evicted
// stores are rebuilt from their persisted filter mirror on next use.
type Registry struct {
	opts   RegistryOptions
	stores shardedcache.CacheInterface

	// mu makes lookup-or-create and Drop atomic, so a client never ends up
	// with two stores and a dropped store is never written back.
	mu sync.Mutex
}

// NewRegistry returns an empty registry. Close stops its cleanup goroutines.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = opts.IdleTTL / 2
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		opts: opts,
		stores: shardedcache.NewCache(shardedcache.Options{
			DefaultExpiration: opts.IdleTTL,
			CleanupInterval:   opts.SweepInterval,
		}),
	}
}

// Get returns the store of clientID, creating and restoring it on first use.
func (r *Registry) Get(ctx context.Context, clientID string) *Store {
	st := r.touch(clientID)
	st.Restore(ctx)
	return st
}

func (r *Registry) touch(clientID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := shardedcache.GetTyped[*Store](r.stores, clientID)
	if !ok {
		st = NewStore(StoreOptions{
			ClientID: clientID,
			Tenders:  r.opts.Tenders,
			State:    r.opts.State,
			CacheTTL: r.opts.CacheTTL,
			Logger:   r.opts.Logger,
		})
		r.opts.Logger.Debug("tender store created", slog.String("client_id", clientID))
	}
	// Re-setting slides the idle expiry.
	r.stores.Set(clientID, st)
	return st
}

// Drop forgets the store of clientID. The next Get builds a fresh store from
// the persisted filter mirror, so a listing fetched under a previous login
// is never served again.
func (r *Registry) Drop(clientID string) {
	r.mu.Lock()
	r.stores.Delete(clientID)
	r.mu.Unlock()
}

// Close stops the background cleanup. The registry must not be used afterwards.
func (r *Registry) Close() {
	r.stores.Close()
}

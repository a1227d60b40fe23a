package wizard

import (
	"sync"
	"time"

	shardedcache "github.com/simp-lee/cache"
)

const defaultSessionTTL = time.Hour

type sessionEntry struct {
	mu     sync.Mutex
	wizard *Wizard
}

// Sessions keeps one in-progress wizard per client id in process memory.
// Nothing is persisted: a restart or an idle expiry loses the progress.
type Sessions struct {
	entries shardedcache.CacheInterface
	mu      sync.Mutex
}

// NewSessions returns an empty store whose wizards expire after ttl idle.
// Expired wizards are reclaimed every cleanup interval; a zero interval
// defaults to ttl/2. Close stops the cleanup.
func NewSessions(ttl, cleanup time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if cleanup <= 0 {
		cleanup = ttl / 2
	}
	return &Sessions{entries: shardedcache.NewCache(shardedcache.Options{
		DefaultExpiration: ttl,
		CleanupInterval:   cleanup,
	})}
}

func (s *Sessions) entry(clientID string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := shardedcache.GetTyped[*sessionEntry](s.entries, clientID)
	if !ok {
		e = &sessionEntry{wizard: New()}
	}
	// Re-setting slides the idle expiry.
	s.entries.Set(clientID, e)
	return e
}

// With runs fn on the wizard of clientID. Calls for the same client are
// serialised, so a double submit cannot race.
func (s *Sessions) With(clientID string, fn func(w *Wizard) error) error {
	e := s.entry(clientID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.wizard)
}

// Reset discards the wizard of clientID.
func (s *Sessions) Reset(clientID string) {
	s.mu.Lock()
	s.entries.Delete(clientID)
	s.mu.Unlock()
}

// Close stops the background cleanup.
func (s *Sessions) Close() {
	s.entries.Close()
}

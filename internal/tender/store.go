// Package tender holds the per-browser tender listing state, the taxonomy
// loader used to render filter facets, and URL query synchronisation.
package tender

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/simp-lee/smarttenders/internal/clientstate"
	"github.com/simp-lee/smarttenders/internal/domain"
)

const fetchFailedMessage = "tenders could not be loaded, please try again"

// Snapshot is an immutable copy of a Store's state.
type Snapshot struct {
	Items   []domain.Tender `json:"items"`
	Filters domain.Filters  `json:"filters"`
	Page    int             `json:"page"`
	Cursor  domain.Cursor   `json:"cursor"`
	Counts  map[string]int  `json:"counts"`
	Error   string          `json:"error,omitempty"`
	Loading bool            `json:"loading"`
	Loaded  bool            `json:"loaded"`
}

// persisted is the write-through mirror kept under clientstate.KeyFilters.
type persisted struct {
	Filters domain.Filters `json:"filters"`
	Page    int            `json:"page"`
}

// StoreOptions configures a Store.
type StoreOptions struct {
	ClientID string
	Tenders  domain.TenderService
	State    clientstate.Store // optional; nil disables persistence
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Store is the single source of truth for the tender listing displayed to one
// browser. Every fetch is numbered; a response that arrives after a newer
// fetch was dispatched is discarded. The mutex is never held across a remote
// call.
type Store struct {
	clientID string
	tenders  domain.TenderService
	state    clientstate.Store
	ttl      time.Duration
	logger   *slog.Logger

	restoreOnce sync.Once

	mu       sync.Mutex
	items    []domain.Tender
	filters  domain.Filters
	page     int
	cursor   domain.Cursor
	counts   map[string]int
	errMsg   string
	seq      uint64
	inflight int
	loaded   bool
}

// NewStore returns an empty store on page 1 with no filters.
func NewStore(opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		clientID: opts.ClientID,
		tenders:  opts.Tenders,
		state:    opts.State,
		ttl:      opts.CacheTTL,
		logger:   logger,
		items:    []domain.Tender{},
		filters:  domain.Filters{},
		page:     1,
	}
}

// Restore loads the persisted filters and page once per store. A missing,
// expired or unreadable mirror leaves the defaults in place.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		if s.state == nil || s.clientID == "" {
			return
		}
		var p persisted
		err := clientstate.GetJSON(ctx, s.state, s.clientID, clientstate.KeyFilters, &p)
		if err != nil {
			if !domain.IsNotFound(err) {
				s.logger.WarnContext(ctx, "restore tender filters failed", slog.String("error", err.Error()))
			}
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.filters = domain.Filters{}.Merge(withSearch(p.Filters))
		if p.Page > 0 {
			s.page = p.Page
		}
	})
}

// withSearch makes Merge keep the search term of a restored filter set.
func withSearch(f domain.Filters) domain.Filters {
	out := f.Clone()
	if _, ok := out[domain.FilterSearch]; !ok {
		out[domain.FilterSearch] = ""
	}
	return out
}

// FetchPage requests page n with the current filters. On success the list is
// replaced (reset) or extended; on failure the list is kept and the error
// message recorded. It never fails.
func (s *Store) FetchPage(ctx context.Context, page int, reset bool) Snapshot {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	filters := s.filters.Clone()
	s.inflight++
	s.mu.Unlock()

	res, err := s.tenders.List(ctx, filters, page)

	s.mu.Lock()
	s.inflight--
	if seq != s.seq {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "discarding stale tender page",
			slog.Uint64("seq", seq),
			slog.Int("page", page),
		)
		return snap
	}

	switch {
	case err == nil:
		s.apply(res, page, reset)
	case domain.IsNotFound(err):
		// An empty result is an empty state, not an error.
		s.apply(&domain.TenderPage{Cursor: domain.Cursor{CurrentPage: page, LastPage: page}}, page, reset)
	default:
		s.errMsg = domain.SafeMessage(err, fetchFailedMessage)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil && !domain.IsNotFound(err) {
		s.logger.WarnContext(ctx, "fetch tender page failed",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return snap
	}
	s.persist(ctx, snap.Filters, snap.Page)
	return snap
}

// apply installs a successful response. The caller holds s.mu.
func (s *Store) apply(res *domain.TenderPage, page int, reset bool) {
	if reset {
		s.items = slices.Clone(res.Items)
	} else {
		s.items = append(slices.Clone(s.items), res.Items...)
	}
	if s.items == nil {
		s.items = []domain.Tender{}
	}
	s.page = page
	s.cursor = res.Cursor
	s.counts = res.Counts
	s.errMsg = ""
	s.loaded = true
}

// SetFilters merges partial into the active filters, resets pagination to
// page 1 and fetches it. The search term is dropped unless partial carries it.
func (s *Store) SetFilters(ctx context.Context, partial domain.Filters) Snapshot {
	s.mu.Lock()
	s.filters = s.filters.Merge(partial)
	s.page = 1
	filters := s.filters.Clone()
	s.mu.Unlock()

	s.persist(ctx, filters, 1)
	return s.FetchPage(ctx, 1, true)
}

// ResetFilters clears every filter and the persisted mirror, then fetches an
// unfiltered page 1.
func (s *Store) ResetFilters(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.filters = domain.Filters{}
	s.page = 1
	s.mu.Unlock()

	if s.state != nil && s.clientID != "" {
		if err := s.state.Delete(ctx, s.clientID, clientstate.KeyFilters); err != nil && !domain.IsNotFound(err) {
			s.logger.WarnContext(ctx, "clear tender filters failed", slog.String("error", err.Error()))
		}
	}
	return s.FetchPage(ctx, 1, true)
}

// Ensure fetches the current page when nothing has been loaded yet and
// otherwise returns the current state.
func (s *Store) Ensure(ctx context.Context) Snapshot {
	s.mu.Lock()
	loaded, page := s.loaded, s.page
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if loaded {
		return snap
	}
	return s.FetchPage(ctx, page, true)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	counts := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	return Snapshot{
		Items:   slices.Clone(s.items),
		Filters: s.filters.Clone(),
		Page:    s.page,
		Cursor:  s.cursor,
		Counts:  counts,
		Error:   s.errMsg,
		Loading: s.inflight > 0,
		Loaded:  s.loaded,
	}
}

// persist writes the filter mirror. Failures are logged; the mirror is best
// effort.
func (s *Store) persist(ctx context.Context, filters domain.Filters, page int) {
	if s.state == nil || s.clientID == "" {
		return
	}
	err := clientstate.SetJSON(ctx, s.state, s.clientID, clientstate.KeyFilters,
		persisted{Filters: filters, Page: page}, s.ttl)
	if err != nil {
		s.logger.WarnContext(ctx, "persist tender filters failed", slog.String("error", err.Error()))
	}
}

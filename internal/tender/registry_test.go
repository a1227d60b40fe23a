package tender

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simp-lee/smarttenders/internal/domain"
)

func TestRegistry_GetReusesStorePerClient(t *testing.T) {
	r := NewRegistry(RegistryOptions{Tenders: pagedTenders(1)})
	t.Cleanup(r.Close)
	ctx := context.Background()

	a := r.Get(ctx, "c1")
	if r.Get(ctx, "c1") != a {
		t.Error("same client should get the same store")
	}
	if r.Get(ctx, "c2") == a {
		t.Error("different clients must not share a store")
	}
	if n := r.stores.Count(); n != 2 {
		t.Errorf("live stores = %d; want 2", n)
	}

	r.Drop("c1")
	if r.stores.Has("c1") {
		t.Error("Drop left the store behind")
	}
	if r.Get(ctx, "c1") == a {
		t.Error("dropped store was returned again")
	}
}

func TestRegistry_IdleExpiry(t *testing.T) {
	r := NewRegistry(RegistryOptions{
		Tenders:       pagedTenders(1),
		IdleTTL:       200 * time.Millisecond,
		SweepInterval: 20 * time.Millisecond,
	})
	t.Cleanup(r.Close)
	ctx := context.Background()

	busy := r.Get(ctx, "busy")
	r.Get(ctx, "idle")
	time.Sleep(120 * time.Millisecond)
	if r.Get(ctx, "busy") != busy {
		t.Fatal("store replaced before its idle ttl")
	}
	time.Sleep(120 * time.Millisecond)

	// 240ms after creation: idle is past its ttl, busy was used 120ms ago.
	if !r.stores.Has("busy") {
		t.Error("a used store must not expire")
	}
	if r.stores.Has("idle") {
		t.Error("idle store outlived its ttl")
	}

	time.Sleep(300 * time.Millisecond)
	if n := r.stores.Count(); n != 0 {
		t.Errorf("cleanup left %d stores", n)
	}
	if r.Get(ctx, "busy") == busy {
		t.Error("expired store was returned again")
	}
}

func TestRegistry_ConcurrentGetSharesStore(t *testing.T) {
	r := NewRegistry(RegistryOptions{Tenders: pagedTenders(1)})
	t.Cleanup(r.Close)
	ctx := context.Background()

	const callers = 16
	got := make([]*Store, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Go(func() {
			got[i] = r.Get(ctx, "c1")
		})
	}
	wg.Wait()
	for i, st := range got {
		if st != got[0] {
			t.Fatalf("caller %d got a different store", i)
		}
	}
}

func TestRegistry_RestoresFromState(t *testing.T) {
	state := setupStateStore(t)
	svc := pagedTenders(1)
	r := NewRegistry(RegistryOptions{Tenders: svc, State: state})
	t.Cleanup(r.Close)
	ctx := context.Background()

	r.Get(ctx, "c1").SetFilters(ctx, domain.Filters{domain.FilterDistrict: "Kaski"})
	r.Drop("c1")

	got := r.Get(ctx, "c1").Snapshot().Filters
	if got[domain.FilterDistrict] != "Kaski" {
		t.Errorf("restored filters = %v", got)
	}
}

type countingCategories struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (c *countingCategories) Taxonomy(context.Context) (*domain.Taxonomy, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	if c.err != nil {
		return nil, c.err
	}
	return &domain.Taxonomy{
		Provinces:  []domain.Province{{Name: "Lumbini", Count: int(c.calls.Load())}},
		Categories: []domain.CategoryCount{{ID: 1, Name: "Health", Count: 3}},
	}, nil
}

func TestTaxonomyLoader_SharesConcurrentLoads(t *testing.T) {
	svc := &countingCategories{gate: make(chan struct{})}
	l := NewTaxonomyLoader(svc, nil)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*domain.Taxonomy, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := l.Get(ctx)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			results[i] = tx
		}()
	}
	// Let every goroutine reach the shared call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(svc.gate)
	wg.Wait()

	if n := svc.calls.Load(); n != 1 {
		t.Errorf("remote calls = %d; want 1", n)
	}
	for i, r := range results {
		if r != results[0] {
			t.Errorf("caller %d got a different taxonomy", i)
		}
	}

	if _, err := l.Get(ctx); err != nil || svc.calls.Load() != 1 {
		t.Errorf("cached Get made a remote call (calls=%d, err=%v)", svc.calls.Load(), err)
	}
}

func TestTaxonomyLoader_Reload(t *testing.T) {
	svc := &countingCategories{}
	l := NewTaxonomyLoader(svc, nil)
	ctx := context.Background()

	first, _ := l.Get(ctx)
	second, err := l.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if svc.calls.Load() != 2 || first == second {
		t.Errorf("Reload did not refetch (calls=%d)", svc.calls.Load())
	}
	if got, _ := l.Get(ctx); got != second {
		t.Error("Get should serve the reloaded taxonomy")
	}
}

func TestTaxonomyLoader_ReloadFailureKeepsCached(t *testing.T) {
	svc := &countingCategories{}
	l := NewTaxonomyLoader(svc, nil)
	ctx := context.Background()

	first, err := l.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	svc.err = domain.ErrUnavailable
	if _, err := l.Reload(ctx); !domain.IsUnavailable(err) {
		t.Fatalf("Reload error = %v; want unavailable", err)
	}
	if got, err := l.Get(ctx); err != nil || got != first {
		t.Errorf("Get after failed reload = %v, %v; want the previous taxonomy", got, err)
	}
}

func TestTaxonomyLoader_FailureNotCached(t *testing.T) {
	svc := &countingCategories{err: domain.ErrUnavailable}
	l := NewTaxonomyLoader(svc, nil)
	ctx := context.Background()

	if _, err := l.Get(ctx); !domain.IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	svc.err = nil
	if _, err := l.Get(ctx); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if n := svc.calls.Load(); n != 2 {
		t.Errorf("calls = %d; want 2", n)
	}
}

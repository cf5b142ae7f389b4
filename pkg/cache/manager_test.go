package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
	"github.com/rs/zerolog"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// failingStore fails every operation with err.
type failingStore struct {
	err error
}

func (s failingStore) Load(context.Context, string) (*CacheEntry, error) { return nil, s.err }
func (s failingStore) Save(context.Context, string, *CacheEntry) error  { return s.err }

func setupTestManager(t *testing.T, ttl time.Duration) (*Manager, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	manager := NewManager(NewMemoryStore(4), Config{
		TTL:    ttl,
		Now:    clock.Now,
		Logger: zerolog.Nop(),
	})
	return manager, clock
}

func testOffers() []offer.Offer {
	return []offer.Offer{
		{Property: "abc", Price: 100, SupplierID: "supplier1"},
		{Property: "def", Price: 200, SupplierID: "supplier1"},
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil store")
		}
	}()
	NewManager(nil, DefaultConfig())
}

func TestNewManager_Defaults(t *testing.T) {
	manager := NewManager(NewMemoryStore(0), Config{})

	if manager.TTL() != DefaultTTL {
		t.Errorf("Expected TTL %v, got %v", DefaultTTL, manager.TTL())
	}
	if manager.layer != "memory" {
		t.Errorf("Expected layer memory, got %s", manager.layer)
	}
	if manager.now == nil {
		t.Error("Expected default clock to be set")
	}
}

func TestManager_SetAndGet(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	ctx := context.Background()
	key := DeriveKey(testStayRequest(), "supplier1")

	if err := manager.Set(ctx, key, testOffers()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := testOffers()
	if len(retrieved) != len(want) {
		t.Fatalf("Expected %d offers, got %d", len(want), len(retrieved))
	}
	for i := range want {
		if retrieved[i] != want[i] {
			t.Errorf("Offer %d mismatch: got %+v, want %+v", i, retrieved[i], want[i])
		}
	}
}

func TestManager_Set_EmptyOffers(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	ctx := context.Background()
	key := DeriveKey(testStayRequest(), "supplier1")

	if err := manager.Set(ctx, key, nil); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Expected an empty result to be cached, got %v", err)
	}
	if len(retrieved) != 0 {
		t.Errorf("Expected 0 offers, got %d", len(retrieved))
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)

	_, err := manager.Get(context.Background(), DeriveKey(testStayRequest(), "nonexistent"))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Get_ExpiredEntry(t *testing.T) {
	tests := []struct {
		name      string
		advance   time.Duration
		wantFresh bool
	}{
		{"just stored", 0, true},
		{"just before expiry", time.Minute - time.Nanosecond, true},
		{"exactly at expiry", time.Minute, false},
		{"after expiry", 2 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, clock := setupTestManager(t, time.Minute)
			ctx := context.Background()
			key := DeriveKey(testStayRequest(), "supplier1")

			if err := manager.Set(ctx, key, testOffers()); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			clock.Advance(tt.advance)

			_, err := manager.Get(ctx, key)
			if tt.wantFresh && err != nil {
				t.Errorf("Expected fresh entry, got %v", err)
			}
			if !tt.wantFresh && !errors.Is(err, ErrCacheMiss) {
				t.Errorf("Expected ErrCacheMiss for stale entry, got %v", err)
			}
		})
	}
}

func TestManager_Set_Overwrite(t *testing.T) {
	manager, clock := setupTestManager(t, time.Minute)
	ctx := context.Background()
	key := DeriveKey(testStayRequest(), "supplier1")

	if err := manager.Set(ctx, key, testOffers()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	clock.Advance(30 * time.Second)
	replacement := []offer.Offer{{Property: "xyz", Price: 1, SupplierID: "supplier1"}}
	if err := manager.Set(ctx, key, replacement); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// The second Set restarts the TTL window.
	clock.Advance(45 * time.Second)
	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(retrieved) != 1 || retrieved[0].Property != "xyz" {
		t.Errorf("Expected replacement offers, got %+v", retrieved)
	}
}

func TestManager_Set_StoreError(t *testing.T) {
	storeErr := errors.New("store unavailable")
	manager := NewManager(failingStore{err: storeErr}, Config{Logger: zerolog.Nop()})

	err := manager.Set(context.Background(), DeriveKey(testStayRequest(), "supplier1"), testOffers())
	if !errors.Is(err, storeErr) {
		t.Errorf("Expected store error, got %v", err)
	}
}

func TestManager_GetOrFetch_Hit(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	ctx := context.Background()
	key := DeriveKey(testStayRequest(), "supplier1")

	if err := manager.Set(ctx, key, testOffers()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	offers, outcome, err := manager.GetOrFetch(ctx, key, func(context.Context) ([]offer.Offer, error) {
		t.Error("fetch should not be called on a fresh entry")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if outcome != OutcomeHit {
		t.Errorf("Expected outcome %s, got %s", OutcomeHit, outcome)
	}
	if len(offers) != 2 {
		t.Errorf("Expected 2 offers, got %d", len(offers))
	}
}

func TestManager_GetOrFetch_MissStoresResult(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	ctx := context.Background()
	key := DeriveKey(testStayRequest(), "supplier1")

	var calls int
	fetch := func(context.Context) ([]offer.Offer, error) {
		calls++
		return testOffers(), nil
	}

	_, outcome, err := manager.GetOrFetch(ctx, key, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if outcome != OutcomeMiss {
		t.Errorf("Expected outcome %s, got %s", OutcomeMiss, outcome)
	}

	_, outcome, err = manager.GetOrFetch(ctx, key, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if outcome != OutcomeHit {
		t.Errorf("Expected outcome %s on second call, got %s", OutcomeHit, outcome)
	}
	if calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", calls)
	}
}

func TestManager_GetOrFetch_StaleRefetch(t *testing.T) {
	manager, clock := setupTestManager(t, time.Minute)
	ctx := context.Background()
	key := DeriveKey(testStayRequest(), "supplier1")

	if err := manager.Set(ctx, key, testOffers()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	clock.Advance(time.Minute)

	fresh := []offer.Offer{{Property: "abc", Price: 90, SupplierID: "supplier1"}}
	offers, outcome, err := manager.GetOrFetch(ctx, key, func(context.Context) ([]offer.Offer, error) {
		return fresh, nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if outcome != OutcomeMiss {
		t.Errorf("Expected outcome %s, got %s", OutcomeMiss, outcome)
	}
	if len(offers) != 1 || offers[0].Price != 90 {
		t.Errorf("Expected refetched offers, got %+v", offers)
	}
}

func TestManager_GetOrFetch_ConcurrentFetchOnce(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	key := DeriveKey(testStayRequest(), "supplier1")

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]offer.Offer, error) {
		calls.Add(1)
		<-release
		return testOffers(), nil
	}

	const callers = 50
	var wg sync.WaitGroup
	results := make([][]offer.Offer, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = manager.GetOrFetch(context.Background(), key, fetch)
		}(i)
	}

	// Give callers time to join the in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 upstream fetch, got %d", got)
	}
	for i := range results {
		if errs[i] != nil {
			t.Errorf("Caller %d: unexpected error %v", i, errs[i])
			continue
		}
		if len(results[i]) != 2 || results[i][0] != testOffers()[0] {
			t.Errorf("Caller %d: unexpected offers %+v", i, results[i])
		}
	}
}

func TestManager_GetOrFetch_ErrorNotCached(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	ctx := context.Background()
	key := DeriveKey(testStayRequest(), "supplier1")
	upstreamErr := errors.New("upstream down")

	_, _, err := manager.GetOrFetch(ctx, key, func(context.Context) ([]offer.Offer, error) {
		return nil, upstreamErr
	})
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("Expected upstream error, got %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected failed fetch to leave no entry, got %v", err)
	}

	var called bool
	offers, outcome, err := manager.GetOrFetch(ctx, key, func(context.Context) ([]offer.Offer, error) {
		called = true
		return testOffers(), nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch retry failed: %v", err)
	}
	if !called {
		t.Error("Expected retry to call fetch again")
	}
	if outcome != OutcomeMiss || len(offers) != 2 {
		t.Errorf("Unexpected retry result: outcome=%s offers=%+v", outcome, offers)
	}
}

func TestManager_GetOrFetch_WaiterCancelled(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	key := DeriveKey(testStayRequest(), "supplier1")

	started := make(chan struct{})
	release := make(chan struct{})
	leaderDone := make(chan error, 1)

	go func() {
		_, _, err := manager.GetOrFetch(context.Background(), key, func(context.Context) ([]offer.Offer, error) {
			close(started)
			<-release
			return testOffers(), nil
		})
		leaderDone <- err
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := manager.GetOrFetch(ctx, key, func(context.Context) ([]offer.Offer, error) {
		t.Error("waiter should not start its own fetch")
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled for waiter, got %v", err)
	}

	close(release)
	if err := <-leaderDone; err != nil {
		t.Errorf("Leader should not be affected by waiter cancellation, got %v", err)
	}
	if _, err := manager.Get(context.Background(), key); err != nil {
		t.Errorf("Expected leader result to be cached, got %v", err)
	}
}

func TestManager_GetOrFetch_LeaderCancelKeepsFetching(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	key := DeriveKey(testStayRequest(), "supplier1")

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	fetchCtxErr := make(chan error, 1)
	leaderDone := make(chan error, 1)

	go func() {
		_, _, err := manager.GetOrFetch(ctx, key, func(fctx context.Context) ([]offer.Offer, error) {
			close(started)
			<-release
			fetchCtxErr <- fctx.Err()
			return testOffers(), nil
		})
		leaderDone <- err
	}()

	<-started
	cancel()
	if err := <-leaderDone; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled for cancelled leader, got %v", err)
	}

	close(release)
	if err := <-fetchCtxErr; err != nil {
		t.Errorf("Fetch context should not be cancelled with the caller, got %v", err)
	}

	// Either joins the still-running flight or hits the stored result.
	offers, _, err := manager.GetOrFetch(context.Background(), key, func(context.Context) ([]offer.Offer, error) {
		t.Error("fetch should not run again")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if len(offers) != 2 {
		t.Errorf("Expected 2 offers, got %d", len(offers))
	}
}

func TestManager_GetOrFetch_StoreErrors(t *testing.T) {
	storeErr := errors.New("store unavailable")
	manager := NewManager(failingStore{err: storeErr}, Config{Logger: zerolog.Nop()})

	offers, outcome, err := manager.GetOrFetch(context.Background(), DeriveKey(testStayRequest(), "supplier1"),
		func(context.Context) ([]offer.Offer, error) {
			return testOffers(), nil
		})
	if err != nil {
		t.Fatalf("Store errors should not fail GetOrFetch, got %v", err)
	}
	if outcome != OutcomeMiss {
		t.Errorf("Expected outcome %s, got %s", OutcomeMiss, outcome)
	}
	if len(offers) != 2 {
		t.Errorf("Expected 2 offers, got %d", len(offers))
	}
}

func TestManager_GetOrFetch_IndependentKeys(t *testing.T) {
	manager, _ := setupTestManager(t, time.Minute)
	ctx := context.Background()
	req := testStayRequest()

	var calls atomic.Int32
	fetch := func(context.Context) ([]offer.Offer, error) {
		calls.Add(1)
		return testOffers(), nil
	}

	for _, id := range []string{"supplier1", "supplier2", "supplier3"} {
		if _, _, err := manager.GetOrFetch(ctx, DeriveKey(req, id), fetch); err != nil {
			t.Fatalf("GetOrFetch %s failed: %v", id, err)
		}
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 fetches for 3 keys, got %d", got)
	}
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long supplier offers stay fresh unless configured otherwise.
const DefaultTTL = 5 * time.Minute

var (
	// ErrCacheMiss indicates the requested key was not found in cache or is stale
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Outcome describes how GetOrFetch satisfied a call.
type Outcome string

const (
	// OutcomeHit means a fresh entry was found without calling upstream.
	OutcomeHit Outcome = "hit"

	// OutcomeMiss means this caller ran the upstream fetch.
	OutcomeMiss Outcome = "miss"

	// OutcomeShared means this caller waited on a fetch started by another caller.
	OutcomeShared Outcome = "shared"
)

// FetchFunc loads offers from upstream after a cache miss.
type FetchFunc func(ctx context.Context) ([]offer.Offer, error)

// Config holds the cache manager configuration.
type Config struct {
	// TTL is the freshness window of a stored entry.
	TTL time.Duration

	// Layer labels hit metrics ("memory", "redis").
	Layer string

	// Now returns the current time. Tests replace it to move time forward.
	Now func() time.Time

	Logger zerolog.Logger
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		TTL:    DefaultTTL,
		Layer:  "memory",
		Now:    time.Now,
		Logger: log.With().Str("component", "offer-cache").Logger(),
	}
}

// Manager is a TTL cache of supplier offers over a Store.
//
// Freshness is checked lazily on read: a stale entry behaves exactly like an
// absent one and is only replaced by the next Set for its key.
type Manager struct {
	store   Store
	ttl     time.Duration
	layer   string
	now     func() time.Time
	logger  zerolog.Logger
	flights singleflight.Group
}

// NewManager creates a cache manager over store.
func NewManager(store Store, cfg Config) *Manager {
	if store == nil {
		panic("cache store cannot be nil")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Layer == "" {
		cfg.Layer = "memory"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{
		store:  store,
		ttl:    cfg.TTL,
		layer:  cfg.Layer,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
}

// TTL returns the configured freshness window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the offers cached under key if the entry expires strictly
// after the call time. Returns ErrCacheMiss for absent and stale entries.
// The returned slice must be treated as read-only.
func (m *Manager) Get(ctx context.Context, key CacheKey) ([]offer.Offer, error) {
	offers, err := m.lookup(ctx, key.String())
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			CacheMisses.Inc()
		}
		return nil, err
	}

	CacheHits.WithLabelValues(m.layer).Inc()
	return offers, nil
}

// Set stores offers under key, expiring TTL after the call time.
// Any previous entry for key is overwritten.
func (m *Manager) Set(ctx context.Context, key CacheKey, offers []offer.Offer) error {
	now := m.now()
	entry := &CacheEntry{
		Offers:   offers,
		Expires:  now.Add(m.ttl),
		CachedAt: now,
	}

	if err := m.store.Save(ctx, key.String(), entry); err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("save %s: %w", key, err)
	}

	m.logger.Debug().
		Str("cache_key", key.String()).
		Int("offers", len(offers)).
		Dur("ttl", m.ttl).
		Msg("Cached offers")

	return nil
}

// GetOrFetch returns the fresh offers for key, calling fetch on a miss.
//
// At most one fetch per key runs at a time. Callers arriving while a fetch is
// in flight wait for it and receive the same offers, which are stored before
// any waiter is released. A failed fetch is reported to every waiter of that
// attempt and is not remembered, so the next call fetches again.
//
// fetch runs on a context that is not cancelled with ctx; bound it with its
// own timeout. ctx only limits how long this caller waits.
func (m *Manager) GetOrFetch(ctx context.Context, key CacheKey, fetch FetchFunc) ([]offer.Offer, Outcome, error) {
	k := key.String()

	offers, err := m.Get(ctx, key)
	if err == nil {
		m.logger.Debug().Str("cache_key", k).Msg("Cache hit")
		return offers, OutcomeHit, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		m.logger.Warn().Err(err).Str("cache_key", k).Msg("Cache load error, fetching upstream")
	}

	var led bool
	fetchCtx := context.WithoutCancel(ctx)

	ch := m.flights.DoChan(k, func() (any, error) {
		led = true

		// Another flight may have stored the key after our read above.
		if offers, err := m.lookup(fetchCtx, k); err == nil {
			return flightResult{offers: offers, cached: true}, nil
		}

		offers, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		if err := m.Set(fetchCtx, key, offers); err != nil {
			m.logger.Warn().Err(err).Str("cache_key", k).Msg("Failed to cache offers")
		}
		return flightResult{offers: offers}, nil
	})

	select {
	case res := <-ch:
		outcome := OutcomeShared
		if led {
			outcome = OutcomeMiss
		} else {
			CacheCoalesced.Inc()
		}

		if res.Err != nil {
			return nil, outcome, res.Err
		}

		fr := res.Val.(flightResult)
		if led && fr.cached {
			outcome = OutcomeHit
		}
		return fr.offers, outcome, nil

	case <-ctx.Done():
		return nil, OutcomeShared, ctx.Err()
	}
}

type flightResult struct {
	offers []offer.Offer
	cached bool
}

// lookup reads key from the store and applies the freshness check without
// recording metrics.
func (m *Manager) lookup(ctx context.Context, key string) ([]offer.Offer, error) {
	entry, err := m.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	if !entry.IsFresh(m.now()) {
		return nil, ErrCacheMiss
	}

	return entry.Offers, nil
}

// Package aggregator orchestrates one stay search across all requested
// suppliers: cache-or-fetch per supplier, concurrent fan-out, failure
// isolation and a single reduce to the cheapest offer per property.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/cache"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/supplier"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrAllSuppliersFailed is returned when every requested supplier failed.
var ErrAllSuppliersFailed = errors.New("all suppliers failed")

// Outcome describes how one supplier contributed to a result.
type Outcome string

const (
	OutcomeHit    Outcome = "hit"
	OutcomeMiss   Outcome = "miss"
	OutcomeShared Outcome = "shared"
	OutcomeFailed Outcome = "failed"
)

// Config holds aggregator configuration.
type Config struct {
	// MaxConcurrency is the maximum number of suppliers queried in parallel per request.
	MaxConcurrency int

	// Timeout bounds each supplier fetch. A supplier exceeding it is
	// excluded from the result.
	Timeout time.Duration
}

// DefaultConfig returns the default aggregator configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        3 * time.Second,
	}
}

// Report is the per-supplier record of one Handle call.
type Report struct {
	SupplierID string
	Outcome    Outcome
	Offers     int
	Err        error
}

// Result is the outcome of one Handle call.
type Result struct {
	// Offers holds one offer per property at its minimum price, in
	// first-seen property order over suppliers sorted by id.
	Offers []offer.Offer

	// Reports has one entry per requested supplier, sorted by supplier id.
	Reports []Report
}

// Failed returns the reports of suppliers that were excluded.
func (r *Result) Failed() []Report {
	var failed []Report
	for _, rep := range r.Reports {
		if rep.Outcome == OutcomeFailed {
			failed = append(failed, rep)
		}
	}
	return failed
}

// Aggregator is the request orchestrator.
type Aggregator struct {
	cache   *cache.Manager
	gateway supplier.Gateway
	config  Config
	logger  zerolog.Logger
}

// New creates an aggregator.
func New(cacheManager *cache.Manager, gateway supplier.Gateway, cfg Config) *Aggregator {
	if cacheManager == nil {
		panic("cache manager cannot be nil")
	}
	if gateway == nil {
		panic("supplier gateway cannot be nil")
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}

	return &Aggregator{
		cache:   cacheManager,
		gateway: gateway,
		config:  cfg,
		logger:  log.With().Str("component", "aggregator").Logger(),
	}
}

// Handle queries every supplier in req, using cached offers where fresh, and
// reduces the combined offers to the cheapest one per property.
//
// A failing supplier is reported and left out; it never fails the whole
// request unless every supplier failed, in which case the partial Result is
// returned together with ErrAllSuppliersFailed. An empty supplier set
// yields an empty Result.
func (a *Aggregator) Handle(ctx context.Context, req offer.StayRequest) (*Result, error) {
	start := time.Now()
	logger := a.loggerFrom(ctx)

	ids := req.SupplierIDs()
	if len(ids) == 0 {
		requestsTotal.WithLabelValues("empty").Inc()
		return &Result{Offers: []offer.Offer{}}, nil
	}

	// Indexed by position in ids so concatenation order is fixed regardless
	// of completion order.
	perSupplier := make([][]offer.Offer, len(ids))
	reports := make([]Report, len(ids))

	var g errgroup.Group
	g.SetLimit(a.config.MaxConcurrency)

	for i, id := range ids {
		supplierURL := req.Suppliers[id]
		g.Go(func() error {
			offers, outcome, err := a.fetchSupplier(ctx, req, id, supplierURL)
			if err != nil {
				reports[i] = Report{SupplierID: id, Outcome: OutcomeFailed, Err: err}
				return nil
			}
			perSupplier[i] = offers
			reports[i] = Report{SupplierID: id, Outcome: Outcome(outcome), Offers: len(offers)}
			return nil
		})
	}
	_ = g.Wait()

	var combined []offer.Offer
	failures := 0
	for i, rep := range reports {
		if rep.Outcome == OutcomeFailed {
			failures++
			supplierFailures.WithLabelValues(rep.SupplierID).Inc()
			logger.Warn().
				Err(rep.Err).
				Str("supplier", rep.SupplierID).
				Str("error_class", string(supplier.ClassOf(rep.Err))).
				Msg("Supplier excluded from result")
			continue
		}
		logger.Debug().
			Str("supplier", rep.SupplierID).
			Str("outcome", string(rep.Outcome)).
			Int("offers", rep.Offers).
			Msg("Supplier offers collected")
		combined = append(combined, perSupplier[i]...)
	}

	result := &Result{
		Offers:  offer.Reduce(combined),
		Reports: reports,
	}

	switch {
	case failures == len(ids):
		requestsTotal.WithLabelValues("failed").Inc()
		logger.Error().
			Int("suppliers", len(ids)).
			Dur("duration", time.Since(start)).
			Msg("All suppliers failed")
		return result, fmt.Errorf("%w (%d suppliers)", ErrAllSuppliersFailed, len(ids))
	case failures > 0:
		requestsTotal.WithLabelValues("partial").Inc()
	default:
		requestsTotal.WithLabelValues("ok").Inc()
	}

	logger.Info().
		Int("suppliers", len(ids)).
		Int("failed", failures).
		Int("offers", len(result.Offers)).
		Dur("duration", time.Since(start)).
		Msg("Aggregation complete")

	return result, nil
}

// fetchSupplier returns the offers of one supplier, tagged with its id.
func (a *Aggregator) fetchSupplier(ctx context.Context, req offer.StayRequest, id, supplierURL string) ([]offer.Offer, cache.Outcome, error) {
	key := cache.DeriveKey(req, id)

	return a.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]offer.Offer, error) {
		ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()

		body, err := a.gateway.Fetch(ctx, supplierURL)
		if err != nil {
			return nil, err
		}

		offers, err := supplier.ParseOffers(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s response: %w", id, err)
		}

		return offer.Tag(offers, id), nil
	})
}

// loggerFrom prefers a request-scoped logger attached to ctx.
func (a *Aggregator) loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		scoped := l.With().Str("component", "aggregator").Logger()
		return &scoped
	}
	return &a.logger
}

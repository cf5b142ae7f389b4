// Package api exposes the gateway over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/aggregator"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
	"github.com/rs/zerolog"
)

// Searcher runs one stay search across suppliers.
type Searcher interface {
	Handle(ctx context.Context, req offer.StayRequest) (*aggregator.Result, error)
}

// Handler serves the gateway endpoints.
type Handler struct {
	searcher  Searcher
	suppliers SupplierSelector
	ready     func(ctx context.Context) error
}

// NewHandler creates a Handler.
func NewHandler(searcher Searcher, suppliers SupplierSelector) *Handler {
	return &Handler{searcher: searcher, suppliers: suppliers}
}

// Hotels handles GET /api/hotels.
func (h *Handler) Hotels(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	req, err := parseStayRequest(r.URL.Query(), h.suppliers)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejected stay request")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.searcher.Handle(r.Context(), req)
	switch {
	case errors.Is(err, aggregator.ErrAllSuppliersFailed):
		writeError(w, http.StatusBadGateway, aggregator.ErrAllSuppliersFailed.Error())
		return
	case err != nil:
		logger.Error().Err(err).Msg("Stay search failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: result.Offers})
}

// SetReadyCheck sets the dependency check behind GET /ready, such as a Redis ping.
func (h *Handler) SetReadyCheck(check func(ctx context.Context) error) {
	h.ready = check
}

// Ready handles GET /ready. It answers 503 while the ready check fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.ready(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

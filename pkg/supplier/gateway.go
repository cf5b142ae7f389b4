// Package supplier provides the gateway to upstream hotel suppliers and the
// parser for their offer responses.
package supplier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for supplier calls. The supplier label is the upstream host.
var (
	supplierRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_requests_total",
		Help: "Total supplier requests by supplier host and status",
	}, []string{"supplier", "status"})

	supplierRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supplier_request_duration_seconds",
		Help:    "Supplier request duration in seconds by supplier host",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"supplier"})

	supplierErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_errors_total",
		Help: "Total supplier errors by class",
	}, []string{"class"})
)

// Gateway fetches the raw offers body from a supplier endpoint.
//
// Implementations do not retry. Any error is final for that supplier and request.
type Gateway interface {
	Fetch(ctx context.Context, supplierURL string) ([]byte, error)
}

// GatewayFunc adapts an ordinary function to the Gateway interface.
type GatewayFunc func(ctx context.Context, supplierURL string) ([]byte, error)

// Fetch calls f(ctx, supplierURL).
func (f GatewayFunc) Fetch(ctx context.Context, supplierURL string) ([]byte, error) {
	return f(ctx, supplierURL)
}

// Config holds the HTTP gateway configuration.
type Config struct {
	// Timeout bounds one supplier call, including reading the body.
	Timeout time.Duration

	// MaxBodyBytes caps the accepted response size.
	MaxBodyBytes int64

	// UserAgent is sent with every supplier request.
	UserAgent string
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:      3 * time.Second,
		MaxBodyBytes: 1 << 20,
		UserAgent:    "hotel-offer-gateway/1.0",
	}
}

// HTTPGateway is a Gateway over net/http.
type HTTPGateway struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// NewHTTPGateway creates a new HTTP supplier gateway.
func NewHTTPGateway(cfg Config) (*HTTPGateway, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("max_body_bytes must be positive (got %d)", cfg.MaxBodyBytes)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	return &HTTPGateway{
		httpClient: &http.Client{},
		config:     cfg,
		logger:     log.With().Str("component", "supplier-gateway").Logger(),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (g *HTTPGateway) SetHTTPClient(client *http.Client) {
	g.httpClient = client
}

// Fetch performs a GET against supplierURL and returns the response body.
// Non-2xx statuses, transport failures, deadline expiry and oversized bodies
// are returned as *FetchError.
func (g *HTTPGateway) Fetch(ctx context.Context, supplierURL string) ([]byte, error) {
	host := hostLabel(supplierURL)

	startTime := time.Now()
	defer func() {
		supplierRequestDuration.WithLabelValues(host).Observe(time.Since(startTime).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, supplierURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	g.logger.Debug().Str("supplier_url", supplierURL).Msg("Calling supplier")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, g.fail(host, "network_error", &FetchError{
			SupplierURL: supplierURL,
			Class:       classifyTransportError(err),
			Err:         err,
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, g.fail(host, strconv.Itoa(resp.StatusCode), &FetchError{
			SupplierURL: supplierURL,
			StatusCode:  resp.StatusCode,
			Class:       classifyStatus(resp.StatusCode),
		})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.config.MaxBodyBytes+1))
	if err != nil {
		return nil, g.fail(host, "network_error", &FetchError{
			SupplierURL: supplierURL,
			StatusCode:  resp.StatusCode,
			Class:       classifyTransportError(err),
			Err:         err,
		})
	}
	if int64(len(body)) > g.config.MaxBodyBytes {
		return nil, g.fail(host, "too_large", &FetchError{
			SupplierURL: supplierURL,
			StatusCode:  resp.StatusCode,
			Class:       ErrorClassServer,
			Err:         ErrResponseTooLarge,
		})
	}

	supplierRequestsTotal.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()
	g.logger.Debug().
		Str("supplier_url", supplierURL).
		Int("status_code", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(startTime)).
		Msg("Supplier responded")

	return body, nil
}

// fail records metrics and logs for a failed call and returns err unchanged.
func (g *HTTPGateway) fail(host, status string, err *FetchError) error {
	supplierRequestsTotal.WithLabelValues(host, status).Inc()
	supplierErrorsTotal.WithLabelValues(string(err.Class)).Inc()

	g.logger.Warn().
		Err(err.Err).
		Str("supplier_url", err.SupplierURL).
		Str("error_class", string(err.Class)).
		Int("status_code", err.StatusCode).
		Msg("Supplier request failed")

	return err
}

func hostLabel(supplierURL string) string {
	u, err := url.Parse(supplierURL)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}

// Package testutil provides testing utilities for the hotel offer gateway.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Canned supplier bodies used across package tests.
const (
	Supplier1Offers = `[{"property":"One","price":304.2},{"property":"Two","price":400.22},{"property":"Three","price":299.3}]`
	Supplier2Offers = `[{"property":"One","price":289.2},{"property":"Two","price":405.22},{"property":"Three","price":288.3}]`
)

// MockSupplierResponse defines the behavior for a mock supplier endpoint response.
type MockSupplierResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSupplier is a configurable mock supplier server for testing.
// Each path acts as one supplier endpoint.
type MockSupplier struct {
	server     *httptest.Server
	mu         sync.RWMutex
	handlers   map[string]func(w http.ResponseWriter, r *http.Request)
	pathCounts map[string]int

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockSupplier creates a new mock supplier server.
func NewMockSupplier() *MockSupplier {
	mock := &MockSupplier{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.pathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSupplier) URL() string {
	return m.server.URL
}

// URLFor returns the full URL of a supplier endpoint path.
func (m *MockSupplier) URLFor(path string) string {
	return m.server.URL + path
}

// Close shuts down the mock server.
func (m *MockSupplier) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSupplier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.pathCounts = make(map[string]int)
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSupplier) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockSupplier) SetResponse(path string, resp MockSupplierResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetOffers configures path to answer 200 with the given JSON offers body.
func (m *MockSupplier) SetOffers(path, body string) {
	m.SetResponse(path, NewOffersResponse(body))
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSupplier) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockSupplier) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// defaultHandler answers unknown supplier paths.
func (m *MockSupplier) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error": "unknown supplier"}`))
}

// NewOffersResponse creates a standard 200 OK response carrying body.
func NewOffersResponse(body string) MockSupplierResponse {
	return MockSupplierResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewSlowResponse creates a 200 OK response that is sent only after delay.
func NewSlowResponse(body string, delay time.Duration) MockSupplierResponse {
	resp := NewOffersResponse(body)
	resp.Delay = delay
	return resp
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockSupplierResponse {
	return MockSupplierResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 OK response whose body is not an offers array.
func NewMalformedResponse() MockSupplierResponse {
	return NewOffersResponse(`{"offers": "not an array"}`)
}

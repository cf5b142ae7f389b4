package supplier

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Common errors returned by the supplier gateway.
var (
	// ErrMalformedResponse is returned when a supplier body is not a JSON array of offers.
	ErrMalformedResponse = errors.New("malformed supplier response")

	// ErrResponseTooLarge is returned when a supplier body exceeds the configured limit.
	ErrResponseTooLarge = errors.New("supplier response too large")
)

// ErrorClass represents a classification of upstream errors.
type ErrorClass string

const (
	// ErrorClassNetwork represents connection-level failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents requests that hit the per-supplier deadline.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx and other non-success responses.
	ErrorClassServer ErrorClass = "server"
)

// FetchError is a failed supplier call with additional context.
type FetchError struct {
	SupplierURL string
	StatusCode  int
	Class       ErrorClass
	Err         error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("supplier %s error (status %d) from %s: %v",
				e.Class, e.StatusCode, e.SupplierURL, e.Err)
		}
		return fmt.Sprintf("supplier %s error (status %d) from %s",
			e.Class, e.StatusCode, e.SupplierURL)
	}
	return fmt.Sprintf("supplier %s error from %s: %v", e.Class, e.SupplierURL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ClassOf returns the error class of err, or "" if err is not a FetchError.
func ClassOf(err error) ErrorClass {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ""
}

// classifyTransportError categorizes an error returned by the HTTP client.
func classifyTransportError(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}

	return ErrorClassNetwork
}

// classifyStatus categorizes a non-success HTTP status code.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= 400 && statusCode < 500 {
		return ErrorClassClient
	}
	return ErrorClassServer
}

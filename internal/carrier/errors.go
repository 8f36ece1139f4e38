package carrier

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIConfig means a carrier is registered but has no connection
	// settings; the call path fails fast rather than proceeding with empty
	// credentials.
	ErrNoAPIConfig = errors.New("no API config for carrier")
	// ErrBindingUnsupported means the carrier cannot bind policies through
	// the partner API.
	ErrBindingUnsupported = errors.New("carrier does not support binding")
	// ErrClaimsUnsupported means the carrier cannot accept claims through
	// the partner API.
	ErrClaimsUnsupported = errors.New("carrier does not support claims")
)

// APIError wraps a failed carrier call attempt: either a transport error
// (Status 0, Err set) or a non-2xx response (Status set, Body trimmed).
type APIError struct {
	CarrierID string
	Endpoint  string
	Status    int
	Body      string
	Err       error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("carrier %s %s: %v", e.CarrierID, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("carrier %s %s: status %d: %s", e.CarrierID, e.Endpoint, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the attempt hit a transient failure worth one
// retry: transport errors (connection failure, timeout) and 5xx responses.
// 4xx, including auth errors, are not retried.
func (e *APIError) Retryable() bool {
	if e.Status == 0 {
		return true
	}
	return e.Status >= 500
}

func retryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	return false
}

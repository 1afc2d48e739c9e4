package steam

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrorKind classifies failures of a Steam Web API call.
type ErrorKind int

const (
	// Network covers connection failures, timeouts and cancellations.
	Network ErrorKind = iota + 1
	// Unauthorized means Steam rejected the API key or the profile is not accessible.
	Unauthorized
	// Deserialize means the response did not have the expected JSON shape.
	Deserialize
	// Status is any other non-success HTTP status.
	Status
)

func (k ErrorKind) String() string {
	switch k {
	case Network:
		return "network"
	case Unauthorized:
		return "unauthorized"
	case Deserialize:
		return "deserialize"
	case Status:
		return "status"
	default:
		return "unknown"
	}
}

// APIError is returned by every Client method that fails.
type APIError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("steam %s (%s)", e.Kind, e.Endpoint)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// redact drops the request URL from transport errors; it carries the API key.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

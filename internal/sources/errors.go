package sources

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when the authenticated strategy cannot be built
// from the configured credentials. Callers fall back to the public strategy.
var ErrMissingCredentials = errors.New("reddit credentials missing or placeholder")

// TransportError is a network failure, timeout or non-2xx response
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPayloadError is a response body that did not have the expected shape
type MalformedPayloadError struct {
	URL string
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload from %s: %v", e.URL, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// ChannelError attaches channel and strategy context to a fetch failure
type ChannelError struct {
	Channel  string
	Strategy string
	Err      error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s fetch of r/%s: %v", e.Strategy, e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// Package errors collects the sentinel error values shared across the
// server's components, adapted from the small taxonomy the original
// implementation kept in its own errors module: protocol, config, store,
// and forward failures. There is no separate I/O sentinel.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol indicates a malformed or unencodable DNS message.
	ErrProtocol = errors.New("dns: protocol error")

	// ErrConfig indicates invalid server configuration.
	ErrConfig = errors.New("dns: configuration error")

	// ErrStore indicates a record store backend failure.
	ErrStore = errors.New("dns: store error")

	// ErrForward indicates every upstream forwarder failed.
	ErrForward = errors.New("dns: forward error")
)

// Wrap attaches context to a sentinel error so callers can still
// errors.Is against it.
func Wrap(sentinel error, context string) error {
	return fmt.Errorf("%s: %w", context, sentinel)
}

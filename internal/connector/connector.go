// Package connector defines the Connector contract consumed by the
// workflow driver and provides a minimal CSV/JSON/URL reference
// implementation sufficient to drive end-to-end tests. A full connector
// ecosystem is out of scope; this package exists to exercise the
// in-scope core (codec, mapper, batch, executor, logmanager) against
// real external resources.
package connector

import (
	"context"

	"github.com/cqlio/dsbulk/internal/record"
)

// Settings is the connector-specific configuration sub-tree (the
// `connector.*` dotted-key namespace); concrete connectors type-assert
// or re-parse it for their own fields.
type Settings map[string]interface{}

// Connector is the contract every external-resource adapter implements:
// configure/init/close lifecycle plus a read or write stream, matching
// §6's Connector interface.
type Connector interface {
	// Configure applies settings ahead of Init. isRead selects which half
	// of the contract (read or write) the operation will use.
	Configure(settings Settings, isRead bool) error
	// Init acquires resources (opens files, resolves globs, establishes
	// connections) after Configure.
	Init(ctx context.Context) error
	// Close releases every resource acquired by Init. Must be safe to
	// call more than once.
	Close() error
	// Read streams every record from every resource this connector was
	// configured against. The returned channel is closed when every
	// resource has been fully read or ctx is done.
	Read(ctx context.Context) (<-chan *record.Record, error)
	// Write returns a channel the caller sends records to; the connector
	// consumes and persists them. Closing the channel signals end of
	// input; the returned error channel receives at most one error and
	// is closed once the connector has finished draining and flushing.
	Write(ctx context.Context) (chan<- *record.Record, <-chan error, error)
}

// ResourceOpener resolves a scheme (file, http, https, ...) to a byte
// stream opener, the translation of the source's global URL-stream-
// handler installation into an explicit, constructed-at-startup
// dependency (per the Design Notes).
type ResourceOpener interface {
	Open(ctx context.Context, uri string) (ReadCloser, error)
	Create(ctx context.Context, uri string) (WriteCloser, error)
}

// ReadCloser and WriteCloser mirror io.ReadCloser/io.WriteCloser; named
// locally so this package does not force callers to import io just to
// reference the Connector contract.
type ReadCloser interface {
	Read(p []byte) (int, error)
	Close() error
}

type WriteCloser interface {
	Write(p []byte) (int, error)
	Close() error
}

// Package store defines the key/value slot a ledger is persisted into.
package store

import "context"

// Ports for outbound adapters.
type (
	// Store holds serialized values under string keys. A missing key
	// reports ok == false and no error.
	Store interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
	}

	// Closer is implemented by stores that hold connections.
	Closer interface {
		Close() error
	}
)

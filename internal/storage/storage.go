// Package storage abstracts the blob store that holds run artifacts.
//
// The pipeline only depends on the Store interface; the production system
// backs it with an object store, while tests and local runs use the
// filesystem implementation in this package. References returned by Save are
// opaque and must only be handed back to Read on the same store.
package storage

import "context"

// Store reads and writes run artifacts by key.
type Store interface {
	// Save writes data under key and returns an opaque reference to it.
	Save(ctx context.Context, key string, data []byte) (string, error)

	// Read loads the artifact a reference points to.
	Read(ctx context.Context, ref string) ([]byte, error)
}

// Package storage archives raw scan batches and reports as JSON blobs.
package storage

import "context"

// Store is a flat blob namespace. Names use "/" separators.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

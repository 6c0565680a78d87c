package providers

import (
	"context"
)

// CacheProvider defines the interface for caching operations. The corpus
// snapshot cache and the resolver interpretation cache both sit behind it.
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}

// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import "context"

// StateStore persists whole collections under string keys. Each value is
// the JSON snapshot of one collection; a save replaces the previous one.
//
// Load returns (nil, nil) when the key has never been saved.
type StateStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	// GetOrCompute returns the cached value for key, or stores and returns
	// the result of compute. Errors are not cached.
	GetOrCompute(key string, compute func() (T, error)) (value T, hit bool, err error)
}

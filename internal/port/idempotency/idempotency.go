package idempotency

import "context"

// Store remembers the outcome of a processed request keyed by its idempotency key.
type Store interface {
	// Check returns the stored result and whether the key has been seen.
	Check(ctx context.Context, key string) ([]byte, bool, error)
	// Store records result under key. An existing key is left untouched.
	Store(ctx context.Context, key, operation string, result []byte) error
}

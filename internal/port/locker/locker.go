package locker

import "context"

//go:generate mockgen -destination=../../mocks/locker.go -package=mocks . Locker

// Locker serialises critical sections per key. Two WithLock calls with the same
// key never run fn concurrently; different keys do not block each other.
type Locker interface {
	WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error
}

package memory

import (
	"context"
	"sync"

	portlocker "github.com/alanyang/project-registry/internal/port/locker"
)

var _ portlocker.Locker = (*Locker)(nil)

// Locker implements port/locker.Locker inside one process. Each key gets a
// one-slot semaphore that is dropped again once nobody holds or waits for it.
type Locker struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func NewLocker() *Locker {
	return &Locker{slots: make(map[int64]*slot)}
}

func (l *Locker) WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error {
	s := l.acquireSlot(key)
	defer l.releaseSlot(key, s)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	return fn(ctx)
}

func (l *Locker) acquireSlot(key int64) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Locker) releaseSlot(key int64, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held reports how many keys currently have holders or waiters.
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

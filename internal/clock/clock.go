// Package clock abstracts wall time and one-shot timers so that the
// registry's timestamps and countdown activations can be driven
// deterministically in tests.
package clock

import "time"

// Clock is injected wherever code would otherwise call time.Now or
// time.AfterFunc directly. Production code uses Real(); tests use Fake().
type Clock interface {
	Now() time.Time

	// AfterFunc calls f once, no earlier than d from now, and returns a
	// Timer that can cancel the call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stop func() bool
}

// Stop prevents the call from happening. It returns false when the call
// already ran, is running, or was stopped before.
func (t *Timer) Stop() bool { return t.stop() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}

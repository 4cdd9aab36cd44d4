package timer

import (
	"time"

	"github.com/alanyang/project-registry/internal/domain/activation"
)

//go:generate mockgen -destination=../../mocks/scheduler.go -package=mocks . Scheduler

// Scheduler runs one-shot callbacks after a delay.
type Scheduler interface {
	// Schedule arranges for fn to run once, no earlier than delay from now.
	Schedule(delay time.Duration, fn func()) activation.Handle
	// Cancel stops a pending callback. It reports whether the call prevented
	// fn from running; unknown, fired and cancelled handles return false.
	Cancel(h activation.Handle) bool
	// Pending returns the number of callbacks still waiting to fire.
	Pending() int
}

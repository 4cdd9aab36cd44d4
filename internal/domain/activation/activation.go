package activation

import (
	"time"

	"github.com/google/uuid"
)

// Handle identifies one pending countdown. It is the only way to cancel it.
type Handle = uuid.UUID

// Activation describes a scheduled flip of a project's is_active flag.
type Activation struct {
	Handle      Handle        `json:"handle"`
	ProjectID   uuid.UUID     `json:"project_id"`
	Delay       time.Duration `json:"delay_ns"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	FiresAt     time.Time     `json:"fires_at"`
}

func New(handle Handle, projectID uuid.UUID, delay time.Duration, now time.Time) Activation {
	return Activation{
		Handle:      handle,
		ProjectID:   projectID,
		Delay:       delay,
		ScheduledAt: now,
		FiresAt:     now.Add(delay),
	}
}

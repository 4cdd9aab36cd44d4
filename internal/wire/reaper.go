package wire

import (
	"context"
	"log/slog"

	"github.com/alanyang/project-registry/internal/domain/event"
	porteventbus "github.com/alanyang/project-registry/internal/port/eventbus"
	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
)

// startReaper subscribes to the project event channel and drops every pending
// countdown of a project as soon as it is suspended.
//
// Events from other registry instances sharing the bus arrive here too; the
// cancellation is a no-op for projects this process holds no timers for.
func startReaper(ctx context.Context, bus porteventbus.EventBus, activations *activationsvc.Service) (porteventbus.Subscription, error) {
	return bus.Subscribe(ctx, event.ChannelProject, func(ctx context.Context, e event.Event) {
		if e.Type != event.TypeProjectSuspended {
			return
		}
		if n := activations.CancelForProject(ctx, e.EntityID); n > 0 {
			slog.InfoContext(ctx, "reaper: cancelled countdowns for suspended project", "project_id", e.EntityID, "count", n)
		}
	})
}

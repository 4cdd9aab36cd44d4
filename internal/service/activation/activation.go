package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/project-registry/internal/clock"
	domainactivation "github.com/alanyang/project-registry/internal/domain/activation"
	"github.com/alanyang/project-registry/internal/domain/event"
	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	portbus "github.com/alanyang/project-registry/internal/port/eventbus"
	porttimer "github.com/alanyang/project-registry/internal/port/timer"
)

// Registry is the slice of the project service the scheduler needs.
// [ISP] Countdown activation never updates or suspends.
type Registry interface {
	Get(ctx context.Context, id uuid.UUID) (domainproject.Project, bool, error)
	Activate(ctx context.Context, id uuid.UUID) (domainproject.Project, error)
}

// Service binds the registry to a timer. A scheduled callback captures only
// the project id and re-reads the record when it fires.
type Service struct {
	registry Registry
	timers   porttimer.Scheduler
	bus      portbus.EventBus
	clock    clock.Clock

	mu       sync.Mutex
	byHandle map[domainactivation.Handle]*pending
}

// pending links a timer handle back to its project. fired is set by the
// callback so a handle learned after an immediate fire is never recorded.
type pending struct {
	handle    domainactivation.Handle
	projectID uuid.UUID
	fired     bool
}

func NewService(registry Registry, timers porttimer.Scheduler, bus portbus.EventBus, clk clock.Clock) *Service {
	return &Service{
		registry: registry,
		timers:   timers,
		bus:      bus,
		clock:    clk,
		byHandle: make(map[domainactivation.Handle]*pending),
	}
}

// CountdownActivate schedules id to become active after delay and returns
// without waiting. Absent and suspended projects are rejected up front.
func (s *Service) CountdownActivate(ctx context.Context, id uuid.UUID, delay time.Duration) (domainactivation.Activation, error) {
	if delay < 0 {
		return domainactivation.Activation{}, fmt.Errorf("countdown activate: %w: delay must not be negative", domainproject.ErrInvalidPayload)
	}

	p, ok, err := s.registry.Get(ctx, id)
	if err != nil {
		return domainactivation.Activation{}, fmt.Errorf("countdown activate: %w", err)
	}
	if !ok {
		return domainactivation.Activation{}, fmt.Errorf("countdown activate: %w: %s", domainproject.ErrNotFound, id)
	}
	if p.IsSuspended {
		return domainactivation.Activation{}, fmt.Errorf("countdown activate: %w: %s", domainproject.ErrSuspended, id)
	}

	now := s.clock.Now().UTC()
	entry := &pending{projectID: id}
	handle := s.timers.Schedule(delay, func() {
		s.untrack(entry)
		s.fire(id)
	})
	s.track(entry, handle)
	a := domainactivation.New(handle, id, delay, now)

	slog.InfoContext(ctx, "activation scheduled", "project_id", id, "handle", handle, "fires_at", a.FiresAt)
	if err := s.bus.Publish(ctx, event.New(event.TypeActivationScheduled, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish ActivationScheduled event", "project_id", id, "error", err)
	}
	return a, nil
}

// Cancel stops a pending activation. Unknown, fired and already cancelled
// handles are accepted silently. It reports whether an activation was stopped.
func (s *Service) Cancel(ctx context.Context, h domainactivation.Handle) bool {
	s.mu.Lock()
	delete(s.byHandle, h)
	s.mu.Unlock()

	stopped := s.timers.Cancel(h)
	if stopped {
		slog.InfoContext(ctx, "activation cancelled", "handle", h)
	}
	return stopped
}

// CancelForProject stops every pending activation of id and returns how many
// were stopped. A suspended project can never be activated, so its timers
// are dead weight.
func (s *Service) CancelForProject(ctx context.Context, id uuid.UUID) int {
	s.mu.Lock()
	var handles []domainactivation.Handle
	for h, e := range s.byHandle {
		if e.projectID == id {
			handles = append(handles, h)
			delete(s.byHandle, h)
		}
	}
	s.mu.Unlock()

	stopped := 0
	for _, h := range handles {
		if s.timers.Cancel(h) {
			stopped++
		}
	}
	if stopped > 0 {
		slog.InfoContext(ctx, "pending activations cancelled", "project_id", id, "count", stopped)
	}
	return stopped
}

// Pending returns how many activations are still waiting to fire.
func (s *Service) Pending() int {
	return s.timers.Pending()
}

func (s *Service) track(e *pending, h domainactivation.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.handle = h
	if !e.fired {
		s.byHandle[h] = e
	}
}

func (s *Service) untrack(e *pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.fired = true
	if e.handle != uuid.Nil {
		delete(s.byHandle, e.handle)
	}
}

func (s *Service) fire(id uuid.UUID) {
	ctx := context.Background()

	_, err := s.registry.Activate(ctx, id)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "project activated by countdown", "project_id", id)
	case errors.Is(err, domainproject.ErrNotFound), errors.Is(err, domainproject.ErrSuspended):
		slog.InfoContext(ctx, "countdown activation skipped", "project_id", id, "reason", err)
	default:
		slog.ErrorContext(ctx, "countdown activation failed", "project_id", id, "error", err)
	}
}

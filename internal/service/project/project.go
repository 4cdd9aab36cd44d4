package project

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alanyang/project-registry/internal/clock"
	"github.com/alanyang/project-registry/internal/domain/event"
	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	portbus "github.com/alanyang/project-registry/internal/port/eventbus"
	portlocker "github.com/alanyang/project-registry/internal/port/locker"
	portproject "github.com/alanyang/project-registry/internal/port/project"
)

// InterestConfirmation is returned by RegisterInterest on success.
const InterestConfirmation = "Interest registered successfully"

// Service owns the project lifecycle and the interest ledger.
// Every mutation of an existing record runs under the per-id lock, so a
// read-modify-write never interleaves with another one on the same project.
// [DIP] Depends on ports, never on adapters or transport.
type Service struct {
	repo   portproject.Repository
	locker portlocker.Locker
	bus    portbus.EventBus
	clock  clock.Clock
}

func NewService(repo portproject.Repository, locker portlocker.Locker, bus portbus.EventBus, clk clock.Clock) *Service {
	return &Service{repo: repo, locker: locker, bus: bus, clock: clk}
}

func (s *Service) Create(ctx context.Context, in domainproject.Payload) (domainproject.Project, error) {
	if err := in.Validate(); err != nil {
		return domainproject.Project{}, fmt.Errorf("create project: %w", err)
	}

	p := domainproject.New(in, s.clock.Now().UTC())
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("create project: %w", err)
	}

	s.publish(ctx, event.TypeProjectCreated, created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in domainproject.Payload) (domainproject.Project, error) {
	if err := in.Validate(); err != nil {
		return domainproject.Project{}, fmt.Errorf("update project: %w", err)
	}

	p, err := s.mutate(ctx, id, event.TypeProjectUpdated, func(p *domainproject.Project) (bool, error) {
		return true, p.Apply(in)
	})
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

func (s *Service) Suspend(ctx context.Context, id uuid.UUID) (domainproject.Project, error) {
	p, err := s.mutate(ctx, id, event.TypeProjectSuspended, func(p *domainproject.Project) (bool, error) {
		return true, p.Suspend()
	})
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("suspend project: %w", err)
	}
	return p, nil
}

// Activate sets IsActive and nothing else. It is what a countdown fires.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (domainproject.Project, error) {
	p, err := s.mutate(ctx, id, event.TypeProjectActivated, func(p *domainproject.Project) (bool, error) {
		if p.IsActive && !p.IsSuspended {
			return false, nil
		}
		return true, p.Activate()
	})
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("activate project: %w", err)
	}
	return p, nil
}

// RegisterInterest records email against an active project. Repeat emails
// are appended again; the ledger does not deduplicate.
func (s *Service) RegisterInterest(ctx context.Context, id uuid.UUID, email string) (string, error) {
	if err := domainproject.ValidateEmail(email); err != nil {
		return "", fmt.Errorf("register interest: %w", err)
	}

	_, err := s.mutate(ctx, id, event.TypeInterestRegistered, func(p *domainproject.Project) (bool, error) {
		return true, p.RegisterInterest(email)
	})
	if err != nil {
		return "", fmt.Errorf("register interest: %w", err)
	}
	return InterestConfirmation, nil
}

// Get reports absence as ok=false rather than an error.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domainproject.Project, bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domainproject.ErrNotFound) {
		return domainproject.Project{}, false, nil
	}
	if err != nil {
		return domainproject.Project{}, false, fmt.Errorf("get project: %w", err)
	}
	return p, true, nil
}

// List enumerates every project in id order. The store is read when
// iteration starts, so each range sees the current contents.
func (s *Service) List(ctx context.Context) iter.Seq2[domainproject.Project, error] {
	return func(yield func(domainproject.Project, error) bool) {
		projects, err := s.repo.List(ctx)
		if err != nil {
			yield(domainproject.Project{}, fmt.Errorf("list projects: %w", err))
			return
		}
		for _, p := range projects {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// mutate is the read-modify-write cycle shared by every transition. apply
// returns false when the record already satisfies the request, in which case
// nothing is written and no event is published.
func (s *Service) mutate(
	ctx context.Context,
	id uuid.UUID,
	evt event.Type,
	apply func(p *domainproject.Project) (bool, error),
) (domainproject.Project, error) {
	var out domainproject.Project
	changed := false

	err := s.locker.WithLock(ctx, lockKey(id), func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		ok, err := apply(&p)
		if err != nil {
			return err
		}
		if !ok {
			out = p
			return nil
		}

		now := s.clock.Now().UTC()
		p.UpdatedAt = &now
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out, changed = p, true
		return nil
	})
	if err != nil {
		return domainproject.Project{}, err
	}

	if changed {
		s.publish(ctx, evt, id)
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, t event.Type, id uuid.UUID) {
	if err := s.bus.Publish(ctx, event.New(t, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "type", t, "project_id", id, "error", err)
	}
}

// lockKey hashes the project id to a stable int64 for the per-id lock.
func lockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(id[:])
	return int64(h.Sum64())
}

package activation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/project-registry/internal/adapter/memory"
	timeradapter "github.com/alanyang/project-registry/internal/adapter/timer"
	"github.com/alanyang/project-registry/internal/clock"
	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	"github.com/alanyang/project-registry/internal/mocks"
	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	clock      *clock.FakeClock
	registry   *projectsvc.Service
	timers     *timeradapter.Scheduler
	activation *activationsvc.Service
}

func newHarness() harness {
	clk := clock.Fake(epoch)
	bus := memory.NewEventBus()
	reg := projectsvc.NewService(memory.NewStore(), memory.NewLocker(), bus, clk)
	timers := timeradapter.New(clk)
	return harness{
		clock:      clk,
		registry:   reg,
		timers:     timers,
		activation: activationsvc.NewService(reg, timers, bus, clk),
	}
}

func boolPtr(b bool) *bool { return &b }

func (h harness) create(t *testing.T, active bool) domainproject.Project {
	t.Helper()
	p, err := h.registry.Create(context.Background(), domainproject.Payload{
		Title: "A", Description: "d", LogoURL: "logo", IsActive: boolPtr(active),
	})
	require.NoError(t, err)
	return p
}

func (h harness) get(t *testing.T, id uuid.UUID) domainproject.Project {
	t.Helper()
	p, ok, err := h.registry.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	return p
}

func TestCountdownActivate_FiresAfterDelay(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)

	a, err := h.activation.CountdownActivate(context.Background(), p.ID, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, p.ID, a.ProjectID)
	assert.Equal(t, epoch.Add(10*time.Second), a.FiresAt)
	assert.Equal(t, 1, h.activation.Pending())

	h.clock.Advance(9 * time.Second)
	assert.False(t, h.get(t, p.ID).IsActive)

	h.clock.Advance(time.Second)
	got := h.get(t, p.ID)
	assert.True(t, got.IsActive)
	assert.Zero(t, h.activation.Pending())
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, epoch.Add(10*time.Second), *got.UpdatedAt)
}

func TestCountdownActivate_ZeroDelay(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)

	_, err := h.activation.CountdownActivate(context.Background(), p.ID, 0)
	require.NoError(t, err)

	h.clock.Advance(0)
	assert.True(t, h.get(t, p.ID).IsActive)
}

func TestCountdownActivate_NegativeDelay(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)

	_, err := h.activation.CountdownActivate(context.Background(), p.ID, -time.Second)
	assert.ErrorIs(t, err, domainproject.ErrInvalidPayload)
	assert.Zero(t, h.activation.Pending())
}

func TestCountdownActivate_UnknownProject(t *testing.T) {
	h := newHarness()

	_, err := h.activation.CountdownActivate(context.Background(), uuid.New(), time.Second)
	assert.ErrorIs(t, err, domainproject.ErrNotFound)
	assert.Zero(t, h.activation.Pending())
}

func TestCountdownActivate_SuspendedProject(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)
	_, err := h.registry.Suspend(context.Background(), p.ID)
	require.NoError(t, err)

	_, err = h.activation.CountdownActivate(context.Background(), p.ID, time.Second)
	assert.ErrorIs(t, err, domainproject.ErrSuspended)
}

func TestCountdownActivate_SuspendedBeforeFire(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)

	_, err := h.activation.CountdownActivate(context.Background(), p.ID, time.Second)
	require.NoError(t, err)
	suspended, err := h.registry.Suspend(context.Background(), p.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Second)
	got := h.get(t, p.ID)
	assert.False(t, got.IsActive)
	assert.Equal(t, suspended, got)
}

func TestCountdownActivate_KeepsConcurrentEdits(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)

	_, err := h.activation.CountdownActivate(context.Background(), p.ID, time.Minute)
	require.NoError(t, err)

	_, err = h.registry.Update(context.Background(), p.ID, domainproject.Payload{
		Title: "Renamed", Description: "new", LogoURL: "logo2", IsActive: boolPtr(false),
	})
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	got := h.get(t, p.ID)
	assert.True(t, got.IsActive)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, "logo2", got.LogoURL)
}

func TestCountdownActivate_KeepsInterestRegisteredMeanwhile(t *testing.T) {
	h := newHarness()
	p := h.create(t, true)

	_, err := h.activation.CountdownActivate(context.Background(), p.ID, time.Minute)
	require.NoError(t, err)
	_, err = h.registry.RegisterInterest(context.Background(), p.ID, "x@y.com")
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	got := h.get(t, p.ID)
	assert.Equal(t, int64(1), got.InterestCount)
	assert.Equal(t, []string{"x@y.com"}, got.InterestEmails)
}

func TestCancel_PreventsActivation(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)

	a, err := h.activation.CountdownActivate(context.Background(), p.ID, time.Second)
	require.NoError(t, err)

	assert.True(t, h.activation.Cancel(context.Background(), a.Handle))
	h.clock.Advance(time.Hour)
	assert.False(t, h.get(t, p.ID).IsActive)
	assert.Zero(t, h.activation.Pending())
}

func TestCancel_IsIdempotent(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)

	a, err := h.activation.CountdownActivate(context.Background(), p.ID, time.Second)
	require.NoError(t, err)

	h.clock.Advance(time.Second)
	assert.True(t, h.get(t, p.ID).IsActive)

	assert.False(t, h.activation.Cancel(context.Background(), a.Handle))
	assert.False(t, h.activation.Cancel(context.Background(), a.Handle))
	assert.False(t, h.activation.Cancel(context.Background(), uuid.New()))
}

func TestCountdownActivate_ProjectAlreadyActive(t *testing.T) {
	h := newHarness()
	p := h.create(t, true)

	_, err := h.activation.CountdownActivate(context.Background(), p.ID, time.Second)
	require.NoError(t, err)
	h.clock.Advance(time.Second)

	assert.Equal(t, p, h.get(t, p.ID))
}

func TestCountdownActivate_RealClock(t *testing.T) {
	bus := memory.NewEventBus()
	reg := projectsvc.NewService(memory.NewStore(), memory.NewLocker(), bus, clock.Real())
	svc := activationsvc.NewService(reg, timeradapter.New(clock.Real()), bus, clock.Real())

	p, err := reg.Create(context.Background(), domainproject.Payload{
		Title: "A", Description: "d", LogoURL: "logo", IsActive: boolPtr(false),
	})
	require.NoError(t, err)

	_, err = svc.CountdownActivate(context.Background(), p.ID, 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, _, err := reg.Get(context.Background(), p.ID)
		return err == nil && got.IsActive
	}, 2*time.Second, 5*time.Millisecond)
}

// ── with mocks ────────────────────────────────────────────────────────────────

type fakeRegistry struct {
	mu        sync.Mutex
	project   domainproject.Project
	found     bool
	getErr    error
	activated []uuid.UUID
	activate  error
}

func (r *fakeRegistry) Get(context.Context, uuid.UUID) (domainproject.Project, bool, error) {
	return r.project, r.found, r.getErr
}

func (r *fakeRegistry) Activate(_ context.Context, id uuid.UUID) (domainproject.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activated = append(r.activated, id)
	return r.project, r.activate
}

func TestCountdownActivate_SchedulesCallbackForProjectID(t *testing.T) {
	ctrl := gomock.NewController(t)
	timers := mocks.NewMockScheduler(ctrl)
	bus := mocks.NewMockEventBus(ctrl)
	id := uuid.New()
	reg := &fakeRegistry{project: domainproject.Project{ID: id}, found: true}
	svc := activationsvc.NewService(reg, timers, bus, clock.Fake(epoch))

	handle := uuid.New()
	var callback func()
	timers.EXPECT().Schedule(5*time.Second, gomock.Any()).
		DoAndReturn(func(_ time.Duration, fn func()) uuid.UUID {
			callback = fn
			return handle
		})
	bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("bus down"))

	a, err := svc.CountdownActivate(context.Background(), id, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, handle, a.Handle)

	require.NotNil(t, callback)
	callback()
	assert.Equal(t, []uuid.UUID{id}, reg.activated)
}

func TestFire_SwallowsActivationErrors(t *testing.T) {
	for _, activateErr := range []error{domainproject.ErrNotFound, domainproject.ErrSuspended, errors.New("db error")} {
		t.Run(activateErr.Error(), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			timers := mocks.NewMockScheduler(ctrl)
			bus := mocks.NewMockEventBus(ctrl)
			reg := &fakeRegistry{found: true, activate: activateErr}
			svc := activationsvc.NewService(reg, timers, bus, clock.Fake(epoch))

			var callback func()
			timers.EXPECT().Schedule(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ time.Duration, fn func()) uuid.UUID {
					callback = fn
					return uuid.New()
				})
			bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

			_, err := svc.CountdownActivate(context.Background(), uuid.New(), time.Second)
			require.NoError(t, err)
			assert.NotPanics(t, callback)
			assert.Len(t, reg.activated, 1)
		})
	}
}

func TestCountdownActivate_RegistryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := &fakeRegistry{getErr: errors.New("db error")}
	svc := activationsvc.NewService(reg, mocks.NewMockScheduler(ctrl), mocks.NewMockEventBus(ctrl), clock.Fake(epoch))

	_, err := svc.CountdownActivate(context.Background(), uuid.New(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "countdown activate")
}

func TestPending_DelegatesToScheduler(t *testing.T) {
	ctrl := gomock.NewController(t)
	timers := mocks.NewMockScheduler(ctrl)
	timers.EXPECT().Pending().Return(3)
	svc := activationsvc.NewService(&fakeRegistry{}, timers, mocks.NewMockEventBus(ctrl), clock.Fake(epoch))

	assert.Equal(t, 3, svc.Pending())
}

func TestCancelForProject(t *testing.T) {
	h := newHarness()
	target := h.create(t, false)
	other := h.create(t, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.activation.CountdownActivate(ctx, target.ID, time.Duration(i+1)*time.Second)
		require.NoError(t, err)
	}
	_, err := h.activation.CountdownActivate(ctx, other.ID, time.Second)
	require.NoError(t, err)
	require.Equal(t, 4, h.activation.Pending())

	assert.Equal(t, 3, h.activation.CancelForProject(ctx, target.ID))
	assert.Equal(t, 1, h.activation.Pending())
	assert.Zero(t, h.activation.CancelForProject(ctx, target.ID))

	h.clock.Advance(time.Minute)
	assert.False(t, h.get(t, target.ID).IsActive)
	assert.True(t, h.get(t, other.ID).IsActive)
}

func TestCancelForProject_IgnoresFiredActivations(t *testing.T) {
	h := newHarness()
	p := h.create(t, false)
	ctx := context.Background()

	_, err := h.activation.CountdownActivate(ctx, p.ID, time.Second)
	require.NoError(t, err)
	h.clock.Advance(time.Second)

	assert.Zero(t, h.activation.CancelForProject(ctx, p.ID))
}

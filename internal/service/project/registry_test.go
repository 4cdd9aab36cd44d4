package project_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/project-registry/internal/adapter/memory"
	"github.com/alanyang/project-registry/internal/clock"
	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"
)

// These tests run the service against the in-process adapters.

func newRegistry() *projectsvc.Service {
	return projectsvc.NewService(memory.NewStore(), memory.NewLocker(), memory.NewEventBus(), clock.Fake(epoch))
}

func mustGet(t *testing.T, svc *projectsvc.Service, id uuid.UUID) domainproject.Project {
	t.Helper()
	p, ok, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	return p
}

func TestScenario_InterestRequiresActivation(t *testing.T) {
	ctx := context.Background()
	svc := newRegistry()

	p, err := svc.Create(ctx, payload(false))
	require.NoError(t, err)

	_, err = svc.RegisterInterest(ctx, p.ID, "x@y.com")
	require.ErrorIs(t, err, domainproject.ErrInactive)

	_, err = svc.Update(ctx, p.ID, payload(true))
	require.NoError(t, err)

	_, err = svc.RegisterInterest(ctx, p.ID, "x@y.com")
	require.NoError(t, err)

	got := mustGet(t, svc, p.ID)
	assert.Equal(t, int64(1), got.InterestCount)
	assert.Equal(t, []string{"x@y.com"}, got.InterestEmails)
	assert.NotNil(t, got.UpdatedAt)
}

func TestScenario_SuspensionIsMonotonic(t *testing.T) {
	ctx := context.Background()
	svc := newRegistry()

	p, err := svc.Create(ctx, payload(true))
	require.NoError(t, err)
	_, err = svc.RegisterInterest(ctx, p.ID, "x@y.com")
	require.NoError(t, err)

	_, err = svc.Suspend(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Suspend(ctx, p.ID)
	assert.ErrorIs(t, err, domainproject.ErrAlreadySuspended)
	_, err = svc.Update(ctx, p.ID, payload(false))
	assert.ErrorIs(t, err, domainproject.ErrSuspended)
	_, err = svc.RegisterInterest(ctx, p.ID, "z@y.com")
	assert.ErrorIs(t, err, domainproject.ErrSuspended)
	_, err = svc.Activate(ctx, p.ID)
	assert.ErrorIs(t, err, domainproject.ErrSuspended)

	got := mustGet(t, svc, p.ID)
	assert.True(t, got.IsSuspended)
	assert.True(t, got.IsActive)
	assert.Equal(t, int64(1), got.InterestCount)
}

func TestScenario_InvalidEmailLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newRegistry()

	p, err := svc.Create(ctx, payload(true))
	require.NoError(t, err)

	_, err = svc.RegisterInterest(ctx, p.ID, "not-an-email")
	require.ErrorIs(t, err, domainproject.ErrInvalidEmail)
	assert.Equal(t, p, mustGet(t, svc, p.ID))
}

func TestRegisterInterest_ConcurrentCallsAreNotLost(t *testing.T) {
	ctx := context.Background()
	svc := newRegistry()

	p, err := svc.Create(ctx, payload(true))
	require.NoError(t, err)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RegisterInterest(ctx, p.ID, fmt.Sprintf("user%d@example.com", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got := mustGet(t, svc, p.ID)
	assert.Equal(t, int64(n), got.InterestCount)
	assert.Len(t, got.InterestEmails, n)
}

func TestConcurrentUpdatesAndInterestKeepInvariant(t *testing.T) {
	ctx := context.Background()
	svc := newRegistry()

	p, err := svc.Create(ctx, payload(true))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Update(ctx, p.ID, payload(i%2 == 0))
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.RegisterInterest(ctx, p.ID, "x@y.com"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got := mustGet(t, svc, p.ID)
	assert.Equal(t, int64(succeeded), got.InterestCount)
	assert.Len(t, got.InterestEmails, succeeded)
}

func TestList_KeyOrderAndFreshness(t *testing.T) {
	ctx := context.Background()
	svc := newRegistry()

	seq := svc.List(ctx)
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, payload(i%2 == 0))
		require.NoError(t, err)
	}

	var ids []string
	for p, err := range seq {
		require.NoError(t, err)
		ids = append(ids, p.ID.String())
	}
	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]))
	}
}

func TestGet_UnknownID(t *testing.T) {
	_, ok, err := newRegistry().Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

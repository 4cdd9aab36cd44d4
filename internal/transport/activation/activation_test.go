package activation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/project-registry/internal/adapter/memory"
	timeradapter "github.com/alanyang/project-registry/internal/adapter/timer"
	"github.com/alanyang/project-registry/internal/clock"
	domainactivation "github.com/alanyang/project-registry/internal/domain/activation"
	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"
	transportactivation "github.com/alanyang/project-registry/internal/transport/activation"
)

func init() { gin.SetMode(gin.TestMode) }

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	router   *gin.Engine
	clock    *clock.FakeClock
	registry *projectsvc.Service
	svc      *activationsvc.Service
}

func newFixture() fixture {
	clk := clock.Fake(epoch)
	bus := memory.NewEventBus()
	reg := projectsvc.NewService(memory.NewStore(), memory.NewLocker(), bus, clk)
	svc := activationsvc.NewService(reg, timeradapter.New(clk), bus, clk)

	r := gin.New()
	transportactivation.Register(r.Group("/api"), svc)
	return fixture{router: r, clock: clk, registry: reg, svc: svc}
}

func (f fixture) create(t *testing.T, active bool) domainproject.Project {
	t.Helper()
	p, err := f.registry.Create(context.Background(), domainproject.Payload{
		Title: "A", Description: "d", LogoURL: "l", IsActive: &active,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestCountdownActivate_Accepted(t *testing.T) {
	f := newFixture()
	p := f.create(t, false)

	w := f.do(http.MethodPost, "/api/projects/"+p.ID.String()+"/activation", `{"delay_seconds": 1.5}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var a domainactivation.Activation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, p.ID, a.ProjectID)
	assert.Equal(t, 1500*time.Millisecond, a.Delay)
	assert.NotEqual(t, uuid.Nil, a.Handle)

	f.clock.Advance(2 * time.Second)
	got, _, err := f.registry.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestCountdownActivate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       func(f fixture, t *testing.T) string
		body       string
		wantStatus int
	}{
		{
			name:       "bad id",
			path:       func(fixture, *testing.T) string { return "/api/projects/nope/activation" },
			body:       `{"delay_seconds": 1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing delay",
			path: func(f fixture, t *testing.T) string {
				return "/api/projects/" + f.create(t, false).ID.String() + "/activation"
			},
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "negative delay",
			path: func(f fixture, t *testing.T) string {
				return "/api/projects/" + f.create(t, false).ID.String() + "/activation"
			},
			body:       `{"delay_seconds": -1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "huge delay",
			path: func(f fixture, t *testing.T) string {
				return "/api/projects/" + f.create(t, false).ID.String() + "/activation"
			},
			body:       `{"delay_seconds": 1e300}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown project",
			path:       func(fixture, *testing.T) string { return "/api/projects/" + uuid.New().String() + "/activation" },
			body:       `{"delay_seconds": 1}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "suspended project",
			path: func(f fixture, t *testing.T) string {
				p := f.create(t, false)
				_, err := f.registry.Suspend(context.Background(), p.ID)
				require.NoError(t, err)
				return "/api/projects/" + p.ID.String() + "/activation"
			},
			body:       `{"delay_seconds": 1}`,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			w := f.do(http.MethodPost, tt.path(f, t), tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Zero(t, f.svc.Pending())
		})
	}
}

func TestCancelActivation(t *testing.T) {
	f := newFixture()
	p := f.create(t, false)

	a, err := f.svc.CountdownActivate(context.Background(), p.ID, time.Second)
	require.NoError(t, err)

	w := f.do(http.MethodDelete, "/api/activations/"+a.Handle.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.clock.Advance(time.Minute)
	got, _, err := f.registry.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	w = f.do(http.MethodDelete, "/api/activations/"+a.Handle.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodDelete, "/api/activations/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCancelActivation_BadHandle(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodDelete, "/api/activations/not-a-handle", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

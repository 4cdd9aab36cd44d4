package transport

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/project-registry/internal/domain/event"
	porteventbus "github.com/alanyang/project-registry/internal/port/eventbus"
	portidempotency "github.com/alanyang/project-registry/internal/port/idempotency"
	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"

	activationhandler "github.com/alanyang/project-registry/internal/transport/activation"
	mcphandler "github.com/alanyang/project-registry/internal/transport/mcp"
	projecthandler "github.com/alanyang/project-registry/internal/transport/project"
	wshandler "github.com/alanyang/project-registry/internal/transport/ws"
)

// Deps is everything the router mounts.
type Deps struct {
	ProjectSvc    *projectsvc.Service
	ActivationSvc *activationsvc.Service
	EventBus      porteventbus.EventBus
	Idempotency   portidempotency.Store

	Version   string
	StoreName string
	StorePing Pinger
	RateRPS   float64
	RateBurst int
}

func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())
	r.Use(RateLimit(d.RateRPS, d.RateBurst))
	r.Use(IdempotencyMiddleware(d.Idempotency))

	api := r.Group("/api")

	projecthandler.Register(api.Group("/projects"), d.ProjectSvc)
	activationhandler.Register(api, d.ActivationSvc)

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	mcpSrv := mcphandler.New(d.Version, d.ProjectSvc, d.ActivationSvc)
	r.Any("/mcp", gin.WrapH(mcpSrv.Handler()))

	NewHealthHandler("project-registry", d.Version, d.StoreName, d.StorePing, d.ActivationSvc.Pending).RegisterRoutes(r)

	// Bridge: every registry event is forwarded to WS clients; event.Type in
	// the payload lets the client filter.
	if _, err := d.EventBus.Subscribe(ctx, event.ChannelProject, func(_ context.Context, e event.Event) {
		hub.Broadcast(e)
	}); err != nil {
		slog.Error("failed to subscribe channel to WS hub", "channel", event.ChannelProject, "error", err)
	}

	return r
}

package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyang/project-registry/internal/adapter/memory"
	pgdb "github.com/alanyang/project-registry/internal/adapter/postgres"
	pgeventbus "github.com/alanyang/project-registry/internal/adapter/postgres/eventbus"
	pgidempotency "github.com/alanyang/project-registry/internal/adapter/postgres/idempotency"
	pglocker "github.com/alanyang/project-registry/internal/adapter/postgres/locker"
	pgproject "github.com/alanyang/project-registry/internal/adapter/postgres/project"
	redisdb "github.com/alanyang/project-registry/internal/adapter/redis"
	rediseventbus "github.com/alanyang/project-registry/internal/adapter/redis/eventbus"
	redisproject "github.com/alanyang/project-registry/internal/adapter/redis/project"
	timeradapter "github.com/alanyang/project-registry/internal/adapter/timer"
	"github.com/alanyang/project-registry/internal/clock"
	"github.com/alanyang/project-registry/internal/config"

	porteventbus "github.com/alanyang/project-registry/internal/port/eventbus"
	portidempotency "github.com/alanyang/project-registry/internal/port/idempotency"
	portlocker "github.com/alanyang/project-registry/internal/port/locker"
	portproject "github.com/alanyang/project-registry/internal/port/project"

	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"

	"github.com/alanyang/project-registry/internal/transport"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Server        *http.Server
	Scheduler     *timeradapter.Scheduler
	ProjectSvc    *projectsvc.Service
	ActivationSvc *activationsvc.Service

	closers []func()
}

// Close releases backend resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// backend is the storage-dependent half of the graph.
type backend struct {
	repo        portproject.Repository
	locker      portlocker.Locker
	bus         porteventbus.EventBus
	idempotency portidempotency.Store
	ping        transport.Pinger
	close       func()
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	return build(ctx, cfg, clock.Real())
}

func build(ctx context.Context, cfg *config.Config, clk clock.Clock) (*App, error) {
	// ── Adapters ─────────────────────────────────────────────────────────────
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{closers: []func(){be.close}}

	// ── Services ─────────────────────────────────────────────────────────────
	scheduler := timeradapter.New(clk)
	projectSvcInstance := projectsvc.NewService(be.repo, be.locker, be.bus, clk)
	activationSvcInstance := activationsvc.NewService(projectSvcInstance, scheduler, be.bus, clk)

	app.Scheduler = scheduler
	app.ProjectSvc = projectSvcInstance
	app.ActivationSvc = activationSvcInstance

	// ── Transport ─────────────────────────────────────────────────────────────
	router := transport.NewRouter(ctx, transport.Deps{
		ProjectSvc:    projectSvcInstance,
		ActivationSvc: activationSvcInstance,
		EventBus:      be.bus,
		Idempotency:   be.idempotency,
		Version:       cfg.App.Version,
		StoreName:     cfg.Store.Backend,
		StorePing:     be.ping,
		RateRPS:       cfg.RateLimit.RPS,
		RateBurst:     cfg.RateLimit.Burst,
	})

	app.Server = &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// ── Suspension reaper ─────────────────────────────────────────────────────
	sub, err := startReaper(ctx, be.bus, activationSvcInstance)
	if err != nil {
		slog.Error("reaper: failed to subscribe to project channel", "error", err)
	} else {
		app.closers = append(app.closers, sub.Unsubscribe)
	}

	slog.Info("application wired", "port", cfg.Server.Port, "store", cfg.Store.Backend)
	return app, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := pgdb.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return backend{}, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pgdb.Migrate(ctx, pool); err != nil {
			pool.Close()
			return backend{}, fmt.Errorf("migrating database: %w", err)
		}
		return backend{
			repo:        pgproject.New(pool),
			locker:      pglocker.New(pool),
			bus:         pgeventbus.New(pool),
			idempotency: pgidempotency.New(pool, cfg.Server.IdempotencyTTL),
			ping:        pool,
			close:       pool.Close,
		}, nil

	case config.BackendRedis:
		client, err := redisdb.Connect(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
		if err != nil {
			return backend{}, fmt.Errorf("connecting to redis: %w", err)
		}
		// Redis has no advisory locks; the in-process locker serialises a
		// single registry instance.
		return backend{
			repo:        redisproject.New(client),
			locker:      memory.NewLocker(),
			bus:         rediseventbus.New(client),
			idempotency: memory.NewIdempotencyCache(cfg.Server.IdempotencyTTL),
			ping: transport.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}),
			close: func() {
				if err := client.Close(); err != nil {
					slog.Error("closing redis client", "error", err)
				}
			},
		}, nil

	case config.BackendMemory:
		return backend{
			repo:        memory.NewStore(),
			locker:      memory.NewLocker(),
			bus:         memory.NewEventBus(),
			idempotency: memory.NewIdempotencyCache(cfg.Server.IdempotencyTTL),
			close:       func() {},
		}, nil

	default:
		return backend{}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

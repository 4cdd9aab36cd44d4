package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by the pgx pool. Other clients are adapted with PingFunc.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthResponse struct {
	Status             string    `json:"status"`
	Timestamp          time.Time `json:"timestamp"`
	Service            string    `json:"service"`
	Version            string    `json:"version"`
	Store              string    `json:"store"`
	StoreStatus        string    `json:"store_status"`
	PendingActivations int       `json:"pending_activations"`
}

type HealthHandler struct {
	serviceName string
	version     string
	store       string
	pinger      Pinger
	pending     func() int
}

// NewHealthHandler reports on the named store backend. pinger may be nil
// for the in-memory backend.
func NewHealthHandler(serviceName, version, store string, pinger Pinger, pending func() int) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
		pinger:      pinger,
		pending:     pending,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storeStatus := "up"
	if h.pinger != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := h.pinger.Ping(pingCtx); err != nil {
			storeStatus = "down"
		}
	}

	status := "healthy"
	code := http.StatusOK
	if storeStatus == "down" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	pending := 0
	if h.pending != nil {
		pending = h.pending()
	}

	c.JSON(code, HealthResponse{
		Status:             status,
		Timestamp:          time.Now().UTC(),
		Service:            h.serviceName,
		Version:            h.version,
		Store:              h.store,
		StoreStatus:        storeStatus,
		PendingActivations: pending,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}

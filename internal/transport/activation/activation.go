package activation

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
	"github.com/alanyang/project-registry/internal/transport/respond"
)

// maxDelaySeconds keeps the delay inside time.Duration.
var maxDelaySeconds = float64(math.MaxInt64 / int64(time.Second))

// Register mounts the countdown routes on the /api group. Scheduling hangs
// off the project path; cancellation only needs the handle.
func Register(api *gin.RouterGroup, svc *activationsvc.Service) {
	api.POST("/projects/:id/activation", countdownActivate(svc))
	api.DELETE("/activations/:handle", cancelActivation(svc))
}

type countdownReq struct {
	DelaySeconds *float64 `json:"delay_seconds"`
}

func countdownActivate(svc *activationsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			respond.BadRequest(c, "invalid id")
			return
		}
		var req countdownReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err.Error())
			return
		}
		if req.DelaySeconds == nil {
			respond.Error(c, fmt.Errorf("%w: delay_seconds is required", domainproject.ErrInvalidPayload))
			return
		}
		if *req.DelaySeconds > maxDelaySeconds {
			respond.Error(c, fmt.Errorf("%w: delay_seconds is too large", domainproject.ErrInvalidPayload))
			return
		}

		delay := time.Duration(*req.DelaySeconds * float64(time.Second))
		a, err := svc.CountdownActivate(c.Request.Context(), id, delay)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusAccepted, a)
	}
}

// cancelActivation always answers 204 for a well-formed handle: unknown,
// fired and already cancelled handles are not errors.
func cancelActivation(svc *activationsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h, err := uuid.Parse(c.Param("handle"))
		if err != nil {
			respond.BadRequest(c, "invalid handle")
			return
		}
		svc.Cancel(c.Request.Context(), h)
		c.Status(http.StatusNoContent)
	}
}

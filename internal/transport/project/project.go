package project

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"
	"github.com/alanyang/project-registry/internal/transport/respond"
)

func Register(rg *gin.RouterGroup, svc *projectsvc.Service) {
	rg.POST("", createProject(svc))
	rg.GET("", listProjects(svc))
	rg.GET("/:id", getProject(svc))
	rg.PUT("/:id", updateProject(svc))
	rg.POST("/:id/suspend", suspendProject(svc))
	rg.POST("/:id/interest", registerInterest(svc))
}

// Response is a project as the API returns it, with its derived status.
type Response struct {
	domainproject.Project
	Status domainproject.Status `json:"status"`
}

func NewResponse(p domainproject.Project) Response {
	return Response{Project: p, Status: p.Status()}
}

// payloadReq leaves validation to the domain so every surface reports the
// same invalid_payload error. A non-boolean is_active fails binding instead.
type payloadReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
	IsActive    *bool  `json:"is_active"`
}

func (r payloadReq) toPayload() domainproject.Payload {
	return domainproject.Payload{
		Title:       r.Title,
		Description: r.Description,
		LogoURL:     r.LogoURL,
		IsActive:    r.IsActive,
	}
}

type interestReq struct {
	Email string `json:"email"`
}

func createProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payloadReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err.Error())
			return
		}

		p, err := svc.Create(c.Request.Context(), req.toPayload())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, NewResponse(p))
	}
}

func listProjects(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := []Response{}
		for p, err := range svc.List(c.Request.Context()) {
			if err != nil {
				respond.Error(c, err)
				return
			}
			out = append(out, NewResponse(p))
		}
		c.JSON(http.StatusOK, out)
	}
}

func getProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		p, found, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if !found {
			respond.Error(c, domainproject.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, NewResponse(p))
	}
}

func updateProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req payloadReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err.Error())
			return
		}

		p, err := svc.Update(c.Request.Context(), id, req.toPayload())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, NewResponse(p))
	}
}

func suspendProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		p, err := svc.Suspend(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, NewResponse(p))
	}
}

func registerInterest(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req interestReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err.Error())
			return
		}

		msg, err := svc.RegisterInterest(c.Request.Context(), id, req.Email)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

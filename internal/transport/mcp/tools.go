package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"
	transportproject "github.com/alanyang/project-registry/internal/transport/project"
)

// RegisterTools registers all MCP tools on the server.
// [OCP] Add a new tool by adding a new AddTool call; server.go never changes.
func RegisterTools(s *mcpserver.MCPServer, projectSvc *projectsvc.Service, activationSvc *activationsvc.Service) {
	s.AddTool(mcpmcp.NewTool("create_project",
		mcpmcp.WithDescription("Create a project. Returns the stored record with its generated id."),
		mcpmcp.WithString("title", mcpmcp.Required(), mcpmcp.Description("Project title")),
		mcpmcp.WithString("description", mcpmcp.Required(), mcpmcp.Description("Project description")),
		mcpmcp.WithString("logo_url", mcpmcp.Required(), mcpmcp.Description("Logo URL")),
		mcpmcp.WithBoolean("is_active", mcpmcp.Required(), mcpmcp.Description("Whether the project accepts interest immediately")),
	), createProjectHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("update_project",
		mcpmcp.WithDescription("Overwrite title, description, logo_url and is_active. Suspended projects cannot be updated."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Project UUID")),
		mcpmcp.WithString("title", mcpmcp.Required(), mcpmcp.Description("Project title")),
		mcpmcp.WithString("description", mcpmcp.Required(), mcpmcp.Description("Project description")),
		mcpmcp.WithString("logo_url", mcpmcp.Required(), mcpmcp.Description("Logo URL")),
		mcpmcp.WithBoolean("is_active", mcpmcp.Required(), mcpmcp.Description("Activation flag")),
	), updateProjectHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("suspend_project",
		mcpmcp.WithDescription("Suspend a project. Suspension is permanent."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Project UUID")),
	), suspendProjectHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("register_interest",
		mcpmcp.WithDescription("Record an email address as interested in an active project."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Project UUID")),
		mcpmcp.WithString("email", mcpmcp.Required(), mcpmcp.Description("Email address")),
	), registerInterestHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("get_project",
		mcpmcp.WithDescription("Fetch one project by id."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Project UUID")),
	), getProjectHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("list_projects",
		mcpmcp.WithDescription("List every project ordered by id."),
	), listProjectsHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("countdown_activate",
		mcpmcp.WithDescription("Schedule a project to become active after delay_seconds. Returns a handle that cancel_activation accepts."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Project UUID")),
		mcpmcp.WithNumber("delay_seconds", mcpmcp.Required(), mcpmcp.Description("Non-negative delay in seconds")),
	), countdownActivateHandler(activationSvc))

	s.AddTool(mcpmcp.NewTool("cancel_activation",
		mcpmcp.WithDescription("Cancel a pending countdown. Unknown or fired handles are ignored."),
		mcpmcp.WithString("handle", mcpmcp.Required(), mcpmcp.Description("Handle returned by countdown_activate")),
	), cancelActivationHandler(activationSvc))
}

func errorResult(err error) *mcpmcp.CallToolResult {
	return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err))
}

func jsonResult(v any) *mcpmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return mcpmcp.NewToolResultText(string(data))
}

func parseID(req mcpmcp.CallToolRequest, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mcpmcp.ParseString(req, key, ""))
	return id, err == nil
}

// parsePayload reads the project fields. is_active must be a real boolean,
// not a string or number that happens to convert.
func parsePayload(req mcpmcp.CallToolRequest) domainproject.Payload {
	p := domainproject.Payload{
		Title:       mcpmcp.ParseString(req, "title", ""),
		Description: mcpmcp.ParseString(req, "description", ""),
		LogoURL:     mcpmcp.ParseString(req, "logo_url", ""),
	}
	if v, ok := req.GetArguments()["is_active"].(bool); ok {
		p.IsActive = &v
	}
	return p
}

func createProjectHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		p, err := svc.Create(ctx, parsePayload(req))
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(transportproject.NewResponse(p)), nil
	}
}

func updateProjectHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id, ok := parseID(req, "id")
		if !ok {
			return mcpmcp.NewToolResultText("error: invalid id"), nil
		}
		p, err := svc.Update(ctx, id, parsePayload(req))
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(transportproject.NewResponse(p)), nil
	}
}

func suspendProjectHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id, ok := parseID(req, "id")
		if !ok {
			return mcpmcp.NewToolResultText("error: invalid id"), nil
		}
		p, err := svc.Suspend(ctx, id)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(transportproject.NewResponse(p)), nil
	}
}

func registerInterestHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id, ok := parseID(req, "id")
		if !ok {
			return mcpmcp.NewToolResultText("error: invalid id"), nil
		}
		msg, err := svc.RegisterInterest(ctx, id, mcpmcp.ParseString(req, "email", ""))
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(map[string]string{"message": msg}), nil
	}
}

func getProjectHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id, ok := parseID(req, "id")
		if !ok {
			return mcpmcp.NewToolResultText("error: invalid id"), nil
		}
		p, found, err := svc.Get(ctx, id)
		if err != nil {
			return errorResult(err), nil
		}
		if !found {
			return errorResult(domainproject.ErrNotFound), nil
		}
		return jsonResult(transportproject.NewResponse(p)), nil
	}
}

func listProjectsHandler(svc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, _ mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		out := []transportproject.Response{}
		for p, err := range svc.List(ctx) {
			if err != nil {
				return errorResult(err), nil
			}
			out = append(out, transportproject.NewResponse(p))
		}
		return jsonResult(out), nil
	}
}

func countdownActivateHandler(svc *activationsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id, ok := parseID(req, "id")
		if !ok {
			return mcpmcp.NewToolResultText("error: invalid id"), nil
		}
		secs, ok := req.GetArguments()["delay_seconds"].(float64)
		if !ok {
			return mcpmcp.NewToolResultText("error: delay_seconds must be a number"), nil
		}
		if secs > float64(math.MaxInt64/int64(time.Second)) {
			return mcpmcp.NewToolResultText("error: delay_seconds is too large"), nil
		}

		a, err := svc.CountdownActivate(ctx, id, time.Duration(secs*float64(time.Second)))
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(a), nil
	}
}

func cancelActivationHandler(svc *activationsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		h, ok := parseID(req, "handle")
		if !ok {
			return mcpmcp.NewToolResultText("error: invalid handle"), nil
		}
		return jsonResult(map[string]bool{"cancelled": svc.Cancel(ctx, h)}), nil
	}
}

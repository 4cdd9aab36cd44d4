package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	activationsvc "github.com/alanyang/project-registry/internal/service/activation"
	projectsvc "github.com/alanyang/project-registry/internal/service/project"
)

// Server wraps the mark3labs/mcp-go MCPServer and its StreamableHTTPServer.
// [SRP] HTTP server lifecycle only. Tools are registered in tools.go.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
}

func New(version string, projectSvc *projectsvc.Service, activationSvc *activationsvc.Service) *Server {
	mcpSrv := mcpserver.NewMCPServer(
		"project-registry",
		version,
		mcpserver.WithToolCapabilities(true),
	)

	RegisterTools(mcpSrv, projectSvc, activationSvc)

	return &Server{httpSrv: mcpserver.NewStreamableHTTPServer(mcpSrv)}
}

// Handler returns an http.Handler that serves the MCP endpoint.
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}

package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sweeps-casino/internal/app/lobby"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const stateURIPrefix = "tournament://"

// Server exposes the tournament lobby as MCP tools over streamable HTTP.
type Server struct {
	svc *lobby.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(svc *lobby.Service, version string) *Server {
	if version == "" {
		version = "0.1.0"
	}
	mcpSrv := server.NewMCPServer(
		"sweeps-casino",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		svc:        svc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerPublicTools()
	s.registerPlayerTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			stateURIPrefix+"{tournament_id}/state",
			"tournament_state",
			mcp.WithTemplateDescription("Tournament state, standings and payouts by tournament id"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.readTournamentState,
	)
}

func (s *Server) readTournamentState(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw := request.Params.URI
	id, ok := parseStateURI(raw)
	if !ok {
		return nil, errors.New("invalid tournament state uri")
	}
	view, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]any{
		"tournament_id": id,
		"state":         view,
	})
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      raw,
			MIMEType: "application/json",
			Text:     string(payload),
		},
	}, nil
}

func parseStateURI(raw string) (string, bool) {
	if !strings.HasPrefix(raw, stateURIPrefix) || !strings.HasSuffix(raw, "/state") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(raw, stateURIPrefix), "/state")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

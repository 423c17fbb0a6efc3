package mcpserver

import (
	"context"
	"strings"

	"sweeps-casino/internal/app/lobby"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPlayerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"register_player",
			mcp.WithDescription("Register a player and debit the buy-in"),
			mcp.WithString("tournament_id", mcp.Required(), mcp.Description("Tournament id")),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
			mcp.WithString("name", mcp.Description("Display name, defaults to the player id")),
			mcp.WithNumber("level", mcp.Description("Player level")),
		),
		s.handleRegister,
	)

	for _, def := range []struct {
		name string
		desc string
		fn   func(ctx context.Context, id string, req lobby.PlayerRequest) *lobby.ActionResponse
	}{
		{name: "unregister_player", desc: "Unregister a player and refund the buy-in", fn: s.svc.Unregister},
		{name: "rebuy", desc: "Buy back to the starting stack during the rebuy period", fn: s.svc.Rebuy},
		{name: "addon", desc: "Take the one-time add-on stack", fn: s.svc.Addon},
	} {
		s.mcpServer.AddTool(
			mcp.NewTool(
				def.name,
				mcp.WithDescription(def.desc),
				mcp.WithString("tournament_id", mcp.Required(), mcp.Description("Tournament id")),
				mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
			),
			s.playerAction(def.fn),
		)
	}

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_balance",
			mcp.WithDescription("Get a player's GC and SC balances"),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
		),
		s.handleGetBalance,
	)
}

func (s *Server) handleRegister(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, playerID, errResp := requireTournamentPlayer(request)
	if errResp != nil {
		return errResp, nil
	}
	name := strings.TrimSpace(request.GetString("name", ""))
	if name == "" {
		name = playerID
	}
	resp := s.svc.Register(ctx, id, lobby.RegisterRequest{
		PlayerID: playerID,
		Name:     name,
		Level:    request.GetInt("level", 0),
	})
	return actionResult(resp), nil
}

func (s *Server) playerAction(fn func(ctx context.Context, id string, req lobby.PlayerRequest) *lobby.ActionResponse) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, playerID, errResp := requireTournamentPlayer(request)
		if errResp != nil {
			return errResp, nil
		}
		return actionResult(fn(ctx, id, lobby.PlayerRequest{PlayerID: playerID})), nil
	}
}

func (s *Server) handleGetBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := request.RequireString("player_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, err := s.svc.Balance(ctx, playerID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func requireTournamentPlayer(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	id, err := request.RequireString("tournament_id")
	if err != nil {
		return "", "", toolError("invalid_request", err.Error())
	}
	playerID, err := request.RequireString("player_id")
	if err != nil {
		return "", "", toolError("invalid_request", err.Error())
	}
	playerID = strings.TrimSpace(playerID)
	if strings.TrimSpace(id) == "" || playerID == "" {
		return "", "", toolError("invalid_request", "tournament_id and player_id are required")
	}
	return id, playerID, nil
}

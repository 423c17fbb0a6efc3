package mcpserver

import (
	"context"

	"sweeps-casino/internal/app/lobby"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublicTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_tournaments",
			mcp.WithDescription("List tournaments with optional filters and pagination"),
			mcp.WithString("game_type", mcp.Description("poker|bingo|slots")),
			mcp.WithString("status", mcp.Description("registering|starting|playing|finished|cancelled")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 50, max 500")),
			mcp.WithNumber("offset", mcp.Description("Page offset, default 0")),
		),
		s.handleListTournaments,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_tournament",
			mcp.WithDescription("Get one tournament with structure, payouts and registered players"),
			mcp.WithString("tournament_id", mcp.Required(), mcp.Description("Tournament id")),
		),
		s.handleGetTournament,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_leaderboard",
			mcp.WithDescription("Get the live chip leaderboard of a tournament"),
			mcp.WithString("tournament_id", mcp.Required(), mcp.Description("Tournament id")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 50, max 500")),
		),
		s.handleGetLeaderboard,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"verify_fairness",
			mcp.WithDescription("Recompute a provably fair outcome from a revealed server seed"),
			mcp.WithString("server_seed", mcp.Required(), mcp.Description("Revealed server seed, hex")),
			mcp.WithString("commitment", mcp.Required(), mcp.Description("Commitment published before play")),
			mcp.WithString("client_seed", mcp.Description("Client seed used for the outcome")),
			mcp.WithNumber("nonce", mcp.Description("Outcome nonce")),
			mcp.WithNumber("max", mcp.Required(), mcp.Description("Outcome range upper bound, exclusive")),
			mcp.WithNumber("value", mcp.Required(), mcp.Description("Claimed outcome")),
		),
		s.handleVerifyFairness,
	)
}

func (s *Server) handleListTournaments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.svc.List(ctx, request.GetString("game_type", ""), request.GetString("status", ""))
	if err != nil {
		return mapDomainError(err), nil
	}
	limit, offset := clampPagination(request.GetInt("limit", defaultPageLimit), request.GetInt("offset", 0), maxPageLimit)
	return toolResult(map[string]any{
		"items":  page(resp.Items, limit, offset),
		"total":  len(resp.Items),
		"limit":  limit,
		"offset": offset,
	}), nil
}

func (s *Server) handleGetTournament(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("tournament_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	view, err := s.svc.Get(ctx, id)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(view), nil
}

func (s *Server) handleGetLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("tournament_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, err := s.svc.Leaderboard(ctx, id)
	if err != nil {
		return mapDomainError(err), nil
	}
	limit, _ := clampPagination(request.GetInt("limit", defaultPageLimit), 0, maxPageLimit)
	resp.Items = page(resp.Items, limit, 0)
	return toolResult(resp), nil
}

func (s *Server) handleVerifyFairness(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nonce := request.GetInt("nonce", 0)
	maxValue := request.GetInt("max", 0)
	value := request.GetInt("value", -1)
	if nonce < 0 || maxValue <= 0 || value < 0 {
		return toolError("invalid_request", "nonce, max and value must be non-negative and max positive"), nil
	}
	resp, err := s.svc.VerifyFairness(ctx, lobby.VerifyRequest{
		ServerSeed: request.GetString("server_seed", ""),
		Commitment: request.GetString("commitment", ""),
		ClientSeed: request.GetString("client_seed", ""),
		Nonce:      uint64(nonce),
		Max:        uint64(maxValue),
		Value:      uint64(value),
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

package mcpserver

import (
	"errors"
	"fmt"

	"sweeps-casino/internal/app/lobby"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

// actionResult turns a lobby action into a tool result. Rejections carry the
// scheduler's reason as the message.
func actionResult(resp *lobby.ActionResponse) *mcp.CallToolResult {
	switch {
	case resp == nil:
		return toolError("internal_error", "empty action response")
	case resp.NotFound:
		return toolError("not_found", resp.Error)
	case !resp.Success:
		return toolError("rejected", resp.Error)
	}
	return toolResult(resp)
}

func mapDomainError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return toolError("internal_error", "unknown error")
	case errors.Is(err, lobby.ErrInvalidRequest):
		return toolError("invalid_request", err.Error())
	case errors.Is(err, lobby.ErrTournamentNotFound), errors.Is(err, lobby.ErrAccountNotFound):
		return toolError("not_found", err.Error())
	default:
		return toolError("internal_error", err.Error())
	}
}

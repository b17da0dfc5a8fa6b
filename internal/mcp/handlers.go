package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/errors"
	"github.com/hpungsan/mindprint/internal/syncer"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	syncer *syncer.Syncer
	userID string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sync *syncer.Syncer, userID string) *Handlers {
	return &Handlers{syncer: sync, userID: userID}
}

// DistillRequest represents the arguments for mindprint_distill.
type DistillRequest struct {
	Workspace string `json:"workspace"`
}

// ListRequest represents the arguments for mindprint_list.
type ListRequest struct {
	Workspace string `json:"workspace"`
}

// HandleDistill handles the mindprint_distill tool call.
func (h *Handlers) HandleDistill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DistillRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Workspace == "" {
		return errorResult(errors.NewInvalidRequest("workspace is required")), nil
	}

	result, err := h.syncer.Sync(ctx, h.userID, input.Workspace)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the mindprint_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Workspace == "" {
		return errorResult(errors.NewInvalidRequest("workspace is required")), nil
	}

	infos, err := cognition.Inventory(input.Workspace)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"documents": infos})
}

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed to avoid leaking file paths or SQL
// errors to the client.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if e, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    e.ExternalCode(),
			"message": e.ExternalMessage(),
			"status":  e.Status,
		}
		if e.Code != errors.ErrInternal && e.Details != nil {
			errorObj["details"] = e.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

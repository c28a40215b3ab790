package server

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spetersoncode/probe"
)

// fromMCPTool converts an MCP tool descriptor to a probe Tool.
// It extracts the JSON schema from either RawInputSchema or InputSchema.
func fromMCPTool(t mcp.Tool) probe.Tool {
	var schema json.RawMessage

	// Prefer raw schema if available
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else {
		data, err := json.Marshal(t.InputSchema)
		if err == nil {
			schema = data
		}
	}

	return probe.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

// toCallRequest converts a probe ToolCall to an MCP CallToolRequest.
func toCallRequest(call probe.ToolCall) mcp.CallToolRequest {
	var args any
	if call.Arguments != "" {
		// Try to parse as JSON
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			// If not valid JSON, use the string directly
			args = call.Arguments
		}
	}

	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      call.Name,
			Arguments: args,
		},
	}
}

// fromCallResult converts an MCP CallToolResult to a probe ToolResult.
// The result content is extracted and concatenated as text.
func fromCallResult(callID string, result *mcp.CallToolResult) probe.ToolResult {
	if result == nil {
		return probe.ToolResult{
			ToolCallID: callID,
			Content:    "",
			IsError:    true,
		}
	}

	// Extract text content from result
	var textParts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			textParts = append(textParts, content.Text)
		case *mcp.TextContent:
			textParts = append(textParts, content.Text)
		default:
			// For non-text content, try to marshal as JSON
			if data, err := json.Marshal(content); err == nil {
				textParts = append(textParts, string(data))
			}
		}
	}

	// If there's structured content, include it
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			textParts = append(textParts, string(data))
		}
	}

	return probe.ToolResult{
		ToolCallID: callID,
		Content:    strings.Join(textParts, "\n"),
		IsError:    result.IsError,
	}
}

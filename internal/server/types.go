package server

import "gusto-mcp/internal/tools"

// Tool is the wire form of one catalog entry.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type ListToolsResponse struct {
	Tools []Tool `json:"tools"`
}

type CallRequest struct {
	Name string          `json:"name"`
	Args tools.Arguments `json:"arguments"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type CallResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

func toolFromDescriptor(d tools.ToolDescriptor) Tool {
	return Tool{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema()}
}

func callResponse(r tools.Result) CallResponse {
	return CallResponse{
		Content: []Content{{Type: "text", Text: r.Text()}},
		IsError: r.IsError(),
	}
}

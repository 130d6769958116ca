package server

import (
	"context"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gusto-mcp/internal/tools"
)

// NewMCPServer registers every catalog tool on a new MCP server. Handlers never
// return a protocol error: failures come back as isError results.
func NewMCPServer(d *tools.Dispatcher, name, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	srv.AddReceivingMiddleware(catalogOrder(d.Tools()))
	for _, desc := range d.Tools() {
		srv.AddTool(&mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: desc.InputSchema(),
		}, toolHandler(d, desc.Name))
	}
	return srv
}

// catalogOrder rewrites tools/list results into catalog order. The SDK keeps
// its tools sorted by name.
func catalogOrder(catalog []tools.ToolDescriptor) mcp.Middleware {
	rank := make(map[string]int, len(catalog))
	for i, d := range catalog {
		rank[d.Name] = i
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			res, err := next(ctx, method, req)
			if err != nil || method != "tools/list" {
				return res, err
			}
			if list, ok := res.(*mcp.ListToolsResult); ok {
				slices.SortStableFunc(list.Tools, func(a, b *mcp.Tool) int {
					return rank[a.Name] - rank[b.Name]
				})
			}
			return res, err
		}
	}
}

func toolHandler(d *tools.Dispatcher, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var res tools.Result
		args, err := tools.ParseArguments(req.Params.Arguments)
		if err != nil {
			res = tools.Failure("invalid arguments: " + err.Error())
		} else {
			res = d.Invoke(ctx, name, args)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Text()}},
			IsError: res.IsError(),
		}, nil
	}
}

// RunStdio serves MCP over stdin/stdout until ctx is done or the peer hangs up.
func RunStdio(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, &mcp.StdioTransport{})
}

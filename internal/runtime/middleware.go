package runtime

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/itemsort/pkg/boterr"
)

// Middleware runs every MCP tool call through a Controller.
type Middleware struct {
	ctrl *Controller
}

func NewMiddleware(ctrl *Controller) *Middleware {
	return &Middleware{ctrl: ctrl}
}

// ToolMiddleware wraps next for server.WithToolHandlerMiddleware. Busy and
// timeout failures are reported as tool errors carrying their code.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var res *mcp.CallToolResult
		err := m.ctrl.Run(ctx, func(ctx context.Context) (err error) {
			res, err = next(ctx, req)
			return err
		})
		if err == nil {
			return res, nil
		}
		if code := boterr.CodeOf(err); code == boterr.BusyResource || code == boterr.Timeout {
			return mcp.NewToolResultError(string(code) + ": " + boterr.UserMessage(err)), nil
		}
		return nil, err
	}
}

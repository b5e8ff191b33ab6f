// Package telemetry logs request lifecycles for both front ends.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Hooks logs server, session and request events. Metrics backends can be
// added here later.
type Hooks struct {
	logger zerolog.Logger
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// OnServerStart is called when a front end begins accepting requests.
func (h *Hooks) OnServerStart(frontEnd string) {
	h.logger.Info().Str("front_end", frontEnd).Msg("itemsort starting")
}

// OnServerStop is called during shutdown.
func (h *Hooks) OnServerStop(frontEnd string) {
	h.logger.Info().Str("front_end", frontEnd).Msg("itemsort stopping")
}

// OnSessionStart records the start of an MCP client session.
func (h *Hooks) OnSessionStart(sessionID string) {
	h.logger.Info().Str("session_id", sessionID).Msg("session started")
}

// OnSessionEnd records the end of an MCP client session.
func (h *Hooks) OnSessionEnd(sessionID string) {
	h.logger.Info().Str("session_id", sessionID).Msg("session ended")
}

// OnToolCall logs MCP tool invocations and their outcomes.
func (h *Hooks) OnToolCall(sessionID, toolName string, duration time.Duration, err error) {
	h.request(err).Str("session_id", sessionID).Str("tool", toolName).Dur("duration", duration).Msg("tool call")
}

// OnInteraction logs one chat interaction: a command, page button, tag menu or
// type picker click.
func (h *Hooks) OnInteraction(requestID, kind string, duration time.Duration, err error) {
	h.request(err).Str("request_id", requestID).Str("kind", kind).Dur("duration", duration).Msg("interaction")
}

// ToolMiddleware times each tool call and reports it through OnToolCall. Tool
// results flagged as errors are logged as failures too.
func (h *Hooks) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := next(ctx, req)

		var sessionID string
		if s := server.ClientSessionFromContext(ctx); s != nil {
			sessionID = s.SessionID()
		}
		logged := err
		if logged == nil && res != nil && res.IsError {
			logged = errors.New(resultText(res))
		}
		h.OnToolCall(sessionID, req.Params.Name, time.Since(start), logged)
		return res, err
	}
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return "tool error"
}

func (h *Hooks) request(err error) *zerolog.Event {
	if err != nil {
		return h.logger.Warn().Err(err)
	}
	return h.logger.Info()
}

// Package tool implements the tool registry and executor: the mapping from a
// tool name to an executable capability, with uniform failure shaping. The
// executor never lets an error or panic escape its boundary - unknown tools,
// malformed arguments, tool errors and recovered panics all become
// failure-shaped results so a single misbehaving tool can never abort a turn.
package tool

import (
	"context"

	"github.com/djdjm-value-shore/smoothoperatormini/logging"
	"github.com/djdjm-value-shore/smoothoperatormini/model"
)

// Tool is a named capability callable by an agent.
//
// Implementations should provide a JSON-schema Parameters description for the
// model, handle their own argument extraction from the parsed map, and be
// safe for concurrent use.
type Tool interface {
	// Name returns the unique tool identifier (snake_case).
	Name() string

	// Description is shown to the model to guide tool selection.
	Description() string

	// Parameters returns a minimal JSON schema describing the arguments.
	Parameters() map[string]any

	// Call executes the tool. Returned fields are merged flat into the
	// success result; a returned error becomes a failure-shaped result.
	Call(tctx *Context, args map[string]any) (map[string]any, error)
}

// Context carries per-call data into a tool implementation: the request
// context, the owning session, the originating call identifier and a logger.
type Context struct {
	ctx       context.Context
	sessionID string
	callID    string
	logger    logging.Logger
}

// NewContext builds a tool context for one call.
func NewContext(ctx context.Context, sessionID, callID string, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{ctx: ctx, sessionID: sessionID, callID: callID, logger: logger}
}

// Context returns the request context of the call.
func (c *Context) Context() context.Context { return c.ctx }

// SessionID returns the session the call executes on behalf of.
func (c *Context) SessionID() string { return c.sessionID }

// CallID returns the tool call identifier assigned by the model.
func (c *Context) CallID() string { return c.callID }

// Logger returns the logger for the call.
func (c *Context) Logger() logging.Logger { return c.logger }

// Definitions builds model-facing tool definitions from tool implementations.
func Definitions(tools ...Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.NewToolDefinition(t.Name(), t.Description(), t.Parameters())
	}
	return defs
}

package tool

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/djdjm-value-shore/smoothoperatormini/core"
)

// Registry maps tool names to implementations and executes calls with
// uniform failure shaping.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry constructs a registry holding the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs the named tool against the raw JSON argument payload and
// always returns a result object. It never panics and never returns an
// error: every failure path produces a failure-shaped ToolResult.
func (r *Registry) Execute(tctx *Context, name, rawArgs string) core.ToolResult {
	logger := tctx.Logger()

	impl, ok := r.tools[name]
	if !ok {
		logger.Warn("tool.call.unknown", "tool", name, "fc_id", tctx.CallID())
		return core.FailResult("unknown tool: %s", name)
	}

	args, err := parseArgs(rawArgs)
	if err != nil {
		logger.Warn("tool.call.bad_args", "tool", name, "error", err.Error())
		return core.FailResult("invalid tool arguments: %v", err)
	}

	logger.Debug("tool.call.start", "tool", name, "fc_id", tctx.CallID())
	start := time.Now()

	var fields map[string]any
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		fields, err = impl.Call(tctx, args)
	}()

	if err != nil {
		logger.Error("tool.call.error", "tool", name, "error", err.Error())
		return core.FailResult("%v", err)
	}

	logger.Info("tool.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return core.OkResult(fields)
}

// parseArgs decodes the reassembled argument payload. An empty payload means
// a tool that takes no arguments.
func parseArgs(rawArgs string) (map[string]any, error) {
	if rawArgs == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return nil, err
	}
	return args, nil
}

package core

import (
	"encoding/json"
	"fmt"
)

// ToolResult is the uniform outcome of a tool execution. Every result carries
// a success flag; failures additionally carry an error string. Fields holds
// tool-specific payload keys that marshal flat alongside the flag, so a
// listing result serializes as {"success":true,"titles":[],"count":0}.
type ToolResult struct {
	Success bool
	Error   string
	Fields  map[string]any
}

// OkResult builds a successful result with the given payload fields.
func OkResult(fields map[string]any) ToolResult {
	return ToolResult{Success: true, Fields: fields}
}

// FailResult builds a failure-shaped result from a formatted message.
func FailResult(format string, args ...any) ToolResult {
	return ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// MarshalJSON flattens Fields into the top-level object next to the success
// flag and optional error. The "success" and "error" keys win over any
// colliding payload key.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["success"] = r.Success
	if r.Error != "" {
		m["error"] = r.Error
	}
	return json.Marshal(m)
}

// UnmarshalJSON restores the flat wire shape produced by MarshalJSON.
func (r *ToolResult) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if v, ok := m["success"].(bool); ok {
		r.Success = v
	}
	delete(m, "success")
	if v, ok := m["error"].(string); ok {
		r.Error = v
	}
	delete(m, "error")
	if len(m) > 0 {
		r.Fields = m
	} else {
		r.Fields = nil
	}
	return nil
}

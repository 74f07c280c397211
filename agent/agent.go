// Package agent holds the static agent definitions: display name, system
// instructions and the tool schemas each agent exposes, including the
// handoff pseudo-tools that move control between agents mid-turn.
// Definitions are immutable; the registry resolves agent identities and
// handoff tool names.
package agent

import (
	"strings"

	"github.com/djdjm-value-shore/smoothoperatormini/model"
)

// Name identifies an agent variant.
type Name string

// The built-in agent variants.
const (
	// Concierge is the front-facing default agent.
	Concierge Name = "concierge"
	// Archivist is the note management specialist.
	Archivist Name = "archivist"
)

// handoffPrefix is the naming convention for handoff pseudo-tools. A tool
// call named handoff_to_<agent> is a control-plane instruction, never routed
// to the tool executor.
const handoffPrefix = "handoff_to_"

// HandoffToolName returns the pseudo-tool name that hands control to target.
func HandoffToolName(target Name) string {
	return handoffPrefix + string(target)
}

// Definition is the static, immutable description of one agent variant.
type Definition struct {
	ID           Name
	DisplayName  string
	Instructions string
	Tools        []model.ToolDefinition
}

// Registry resolves agent identities and handoff pseudo-tool names.
type Registry struct {
	defs map[Name]Definition
}

// NewRegistry constructs a registry from agent definitions.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[Name]Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.ID] = d
	}
	return r
}

// Get returns the definition registered under name.
func (r *Registry) Get(name Name) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// HandoffTarget resolves a tool name to a handoff target. It returns false
// for ordinary tools and for handoff names pointing at unregistered agents.
func (r *Registry) HandoffTarget(toolName string) (Name, bool) {
	if !strings.HasPrefix(toolName, handoffPrefix) {
		return "", false
	}
	target := Name(strings.TrimPrefix(toolName, handoffPrefix))
	if _, ok := r.defs[target]; !ok {
		return "", false
	}
	return target, true
}

// NewHandoffToolDefinition builds the schema of a handoff pseudo-tool. The
// single required parameter carries the model's stated reason or summary; it
// is informational only and never interpreted.
func NewHandoffToolDefinition(target Name, description, paramName, paramDescription string) model.ToolDefinition {
	return model.NewToolDefinition(
		HandoffToolName(target),
		description,
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				paramName: map[string]any{"type": "string", "description": paramDescription},
			},
			"required": []string{paramName},
		},
	)
}

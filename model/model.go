package model

import (
	"context"

	"github.com/djdjm-value-shore/smoothoperatormini/core"
)

// Fragment is one incremental piece of a streamed completion response.
// Concrete fragment types implement the unexported isFragment marker.
type Fragment interface{ isFragment() }

// TextFragment carries a chunk of assistant text.
type TextFragment struct {
	Text string
}

func (TextFragment) isFragment() {}

// ToolCallFragment carries a partial tool call. Index groups the fragments of
// one logical call; ID and Name are typically present only on the first
// fragment for an index, while Arguments chunks may split the JSON payload
// anywhere, including mid-token. Reassembly is the engine's job.
type ToolCallFragment struct {
	Index     int64
	ID        string
	Name      string
	Arguments string
}

func (ToolCallFragment) isFragment() {}

// FunctionDefinition describes an individual function exposed to the model.
// Parameters is a minimal JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// NewToolDefinition builds a function-typed tool definition.
func NewToolDefinition(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Request captures one completion invocation: the active agent's system
// instructions, the full accumulated conversation history in chronological
// order, and the tool schemas the agent exposes.
type Request struct {
	Instructions string
	History      []core.Message
	Tools        []ToolDefinition
}

// Client is the streaming completion source. Stream returns a fragment
// channel and a one-shot error channel; both are closed when the invocation
// finishes. A value on the error channel aborts the current turn iteration.
type Client interface {
	Stream(ctx context.Context, req Request) (<-chan Fragment, <-chan error)
}

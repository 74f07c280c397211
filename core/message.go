package core

import "github.com/google/uuid"

// Role identifies the conversational role of a message.
type Role string

// Conversation roles understood by the completion providers.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// ToolCall describes a tool invocation requested by the model. Arguments is
// the raw JSON argument payload exactly as produced by the provider stream;
// it is parsed only when the call is executed, never while fragments are
// still being reassembled.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a thread's conversation history. Assistant messages
// may carry tool call descriptors; tool-role messages must carry the
// ToolCallID of the assistant call they answer — the providers reject a tool
// message that cannot be threaded back to its originating call.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewUserMessage builds a user-authored history entry.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant history entry with optional tool
// call descriptors. Content may be empty when the model emitted only calls.
func NewAssistantMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolMessage builds a tool-role history entry answering callID.
func NewToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// NewID generates a unique identifier for events and synthetic tool call IDs.
func NewID() string { return uuid.NewString() }

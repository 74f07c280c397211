package core

// CompletionReason explains why a turn reached its terminal event.
type CompletionReason string

const (
	// ReasonCompleted marks a turn that ran to a normal stop.
	ReasonCompleted CompletionReason = "completed"
	// ReasonError marks a turn aborted by an upstream completion failure.
	ReasonError CompletionReason = "error"
	// ReasonBudgetExhausted marks a turn cut short by the handoff iteration
	// budget. It is still a terminal completion, not an error.
	ReasonBudgetExhausted CompletionReason = "budget_exhausted"
)

// Event is one externally visible occurrence during a turn. Concrete event
// types implement the unexported isEvent marker, forming a closed set so
// transport projections can switch exhaustively. Events are emitted in order
// and never buffered past their emission point.
type Event interface{ isEvent() }

// UserMessageEvent echoes the incoming user message at the start of a turn.
type UserMessageEvent struct {
	Content string
}

func (UserMessageEvent) isEvent() {}

// AgentActivatedEvent announces which agent drives the next loop iteration.
// It is emitted once per iteration, including after a handoff.
type AgentActivatedEvent struct {
	Agent     string
	AgentName string
}

func (AgentActivatedEvent) isEvent() {}

// ContentDeltaEvent carries one streamed text fragment. Fragments are
// forwarded as they arrive, without batching or coalescing.
type ContentDeltaEvent struct {
	Agent string
	Delta string
}

func (ContentDeltaEvent) isEvent() {}

// ToolInvokedEvent announces a tool call about to execute. Arguments is the
// parsed payload; nil when the reassembled argument text was not valid JSON.
type ToolInvokedEvent struct {
	Agent     string
	Tool      string
	Arguments map[string]any
}

func (ToolInvokedEvent) isEvent() {}

// ToolCompletedEvent carries the result of a tool call, including the fixed
// acknowledgement produced for handoff pseudo-tools.
type ToolCompletedEvent struct {
	Agent  string
	Tool   string
	Result ToolResult
}

func (ToolCompletedEvent) isEvent() {}

// ErrorEvent reports an upstream completion failure that aborted the turn.
// Tool-level failures never surface here; they become failure-shaped results.
type ErrorEvent struct {
	Agent   string
	Message string
}

func (ErrorEvent) isEvent() {}

// TurnCompleteEvent is the single terminal event of every turn, naming the
// agent that was current at exit.
type TurnCompleteEvent struct {
	Agent  string
	Reason CompletionReason
}

func (TurnCompleteEvent) isEvent() {}

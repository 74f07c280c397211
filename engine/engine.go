package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/djdjm-value-shore/smoothoperatormini/agent"
	"github.com/djdjm-value-shore/smoothoperatormini/core"
	"github.com/djdjm-value-shore/smoothoperatormini/logging"
	"github.com/djdjm-value-shore/smoothoperatormini/model"
	"github.com/djdjm-value-shore/smoothoperatormini/tool"
)

// DefaultMaxIterations bounds the handoff loop. A pair of agents that keep
// handing off to each other terminates after this many iterations.
const DefaultMaxIterations = 10

// State is the per-conversation context a turn executes against. It is
// mutated in place: the turn appends to History and may change Current via
// handoffs. A State is not safe for concurrent turns; serializing turns on
// one conversation is the caller's job.
type State struct {
	SessionID string
	Current   agent.Name
	History   []core.Message
}

// Options configure an Engine.
type Options struct {
	// MaxIterations bounds loop iterations per turn regardless of handoffs.
	MaxIterations int
	// EventBuffer sets the emission channel's capacity.
	EventBuffer int
	// Logger receives engine diagnostics.
	Logger logging.Logger
}

// Engine executes turns. It is cheap to construct, typically once per turn
// with the completion client bound to the session's credential.
type Engine struct {
	client        model.Client
	agents        *agent.Registry
	tools         *tool.Registry
	maxIterations int
	eventBuffer   int
	logger        logging.Logger
}

// New constructs an Engine with optional overrides.
func New(client model.Client, agents *agent.Registry, tools *tool.Registry, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		EventBuffer:   64,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		client:        client,
		agents:        agents,
		tools:         tools,
		maxIterations: opts.MaxIterations,
		eventBuffer:   opts.EventBuffer,
		logger:        opts.Logger,
	}
}

// RunTurn executes one turn: the user message is appended to the history and
// the handoff loop runs until an agent finishes without handing off, the
// upstream stream fails, or the iteration budget is exhausted. The returned
// channel yields every event in emission order and is closed after the
// single terminal TurnCompleteEvent.
func (e *Engine) RunTurn(ctx context.Context, state *State, userMessage string) <-chan core.Event {
	events := make(chan core.Event, e.eventBuffer)
	go func() {
		defer close(events)
		e.run(ctx, state, userMessage, events)
	}()
	return events
}

func (e *Engine) run(ctx context.Context, state *State, userMessage string, events chan<- core.Event) {
	emit := func(ev core.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
			// The caller stopped consuming; the turn is abandoned.
		}
	}

	if state.Current == "" {
		state.Current = agent.Concierge
	}

	state.History = append(state.History, core.NewUserMessage(userMessage))
	emit(core.UserMessageEvent{Content: userMessage})

	e.logger.Info("engine.turn.start",
		"session_id", state.SessionID,
		"agent", string(state.Current),
	)

	reason := core.ReasonCompleted
	completed := false

	for i := 0; i < e.maxIterations; i++ {
		def, ok := e.agents.Get(state.Current)
		if !ok {
			e.logger.Error("engine.agent.unknown", "agent", string(state.Current))
			emit(core.ErrorEvent{Agent: string(state.Current), Message: "unknown agent: " + string(state.Current)})
			reason = core.ReasonError
			completed = true
			break
		}
		emit(core.AgentActivatedEvent{Agent: string(def.ID), AgentName: def.DisplayName})

		text, calls, err := e.consumeStream(ctx, def, state, emit)
		if err != nil {
			e.logger.Error("engine.stream.error", "agent", string(def.ID), "error", err.Error())
			emit(core.ErrorEvent{Agent: string(def.ID), Message: err.Error()})
			reason = core.ReasonError
			completed = true
			break
		}

		state.History = append(state.History, core.NewAssistantMessage(text, calls))

		if len(calls) == 0 {
			completed = true
			break
		}

		if !e.executeCalls(ctx, def, state, calls, emit) {
			completed = true
			break
		}
	}

	if !completed {
		e.logger.Warn("engine.turn.budget_exhausted",
			"session_id", state.SessionID,
			"max_iterations", e.maxIterations,
		)
		reason = core.ReasonBudgetExhausted
	}

	e.logger.Info("engine.turn.complete",
		"session_id", state.SessionID,
		"agent", string(state.Current),
		"reason", string(reason),
	)
	emit(core.TurnCompleteEvent{Agent: string(state.Current), Reason: reason})
}

// consumeStream invokes the completion client for the active agent and
// drains its fragment sequence, forwarding text deltas as they arrive and
// reassembling tool-call fragments into complete descriptors.
func (e *Engine) consumeStream(
	ctx context.Context,
	def agent.Definition,
	state *State,
	emit func(core.Event),
) (string, []core.ToolCall, error) {
	fragments, errCh := e.client.Stream(ctx, model.Request{
		Instructions: def.Instructions,
		History:      state.History,
		Tools:        def.Tools,
	})

	var text strings.Builder
	acc := newCallAccumulator()
	for frag := range fragments {
		switch f := frag.(type) {
		case model.TextFragment:
			text.WriteString(f.Text)
			emit(core.ContentDeltaEvent{Agent: string(def.ID), Delta: f.Text})
		case model.ToolCallFragment:
			acc.add(f)
		}
	}
	if err := <-errCh; err != nil {
		return "", nil, err
	}
	return text.String(), acc.finalize(), nil
}

// executeCalls runs the assembled tool calls in arrival order and reports
// whether a handoff occurred (the loop continues only on handoff).
func (e *Engine) executeCalls(
	ctx context.Context,
	def agent.Definition,
	state *State,
	calls []core.ToolCall,
	emit func(core.Event),
) bool {
	handoff := false
	for _, call := range calls {
		args, _ := parseArguments(call.Arguments)
		emit(core.ToolInvokedEvent{Agent: string(def.ID), Tool: call.Name, Arguments: args})

		var result core.ToolResult
		if target, ok := e.agents.HandoffTarget(call.Name); ok {
			// Control-plane instruction: switch agents, no collaborator call.
			e.logger.Info("engine.handoff",
				"from", string(state.Current),
				"to", string(target),
			)
			state.Current = target
			handoff = true
			result = core.OkResult(map[string]any{"handoff": string(target)})
		} else {
			tctx := tool.NewContext(ctx, state.SessionID, call.ID, e.logger)
			result = e.tools.Execute(tctx, call.Name, call.Arguments)
		}

		emit(core.ToolCompletedEvent{Agent: string(def.ID), Tool: call.Name, Result: result})

		payload, err := json.Marshal(result)
		if err != nil {
			// ToolResult marshaling only fails on unserializable payload
			// fields; degrade to a bare failure object.
			payload = []byte(`{"success":false,"error":"unserializable tool result"}`)
		}
		state.History = append(state.History, core.NewToolMessage(call.ID, string(payload)))
	}
	return handoff
}

// parseArguments decodes a reassembled argument payload for event reporting.
// Execution-side parsing (and failure shaping) happens in the tool registry.
func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

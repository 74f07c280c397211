package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdjm-value-shore/smoothoperatormini/agent"
	"github.com/djdjm-value-shore/smoothoperatormini/core"
	"github.com/djdjm-value-shore/smoothoperatormini/model"
	"github.com/djdjm-value-shore/smoothoperatormini/session"
	"github.com/djdjm-value-shore/smoothoperatormini/tool"
)

func collect(ch <-chan core.Event) []core.Event {
	var events []core.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func newTestEngine(t *testing.T, client model.Client) (*Engine, *session.Store, *State) {
	t.Helper()
	store := session.NewStore()
	sess := store.CreateSession()
	tools := tool.NewRegistry(tool.NewNoteTools(store)...)
	agents := agent.DefaultRegistry(tool.Definitions(tool.NewNoteTools(store)...))
	eng := New(client, agents, tools)
	return eng, store, &State{SessionID: sess.ID, Current: agent.Concierge}
}

func textTurn(chunks ...string) model.MockTurn {
	turn := model.MockTurn{}
	for _, c := range chunks {
		turn.Fragments = append(turn.Fragments, model.TextFragment{Text: c})
	}
	return turn
}

func TestPlainTextTurn(t *testing.T) {
	client := model.NewMockClient(textTurn("Hello", ", ", "world"))
	eng, _, state := newTestEngine(t, client)

	events := collect(eng.RunTurn(context.Background(), state, "hi"))

	require.Len(t, events, 6)
	assert.Equal(t, core.UserMessageEvent{Content: "hi"}, events[0])
	assert.Equal(t, core.AgentActivatedEvent{Agent: "concierge", AgentName: "Concierge"}, events[1])
	assert.Equal(t, core.ContentDeltaEvent{Agent: "concierge", Delta: "Hello"}, events[2])
	assert.Equal(t, core.ContentDeltaEvent{Agent: "concierge", Delta: ", "}, events[3])
	assert.Equal(t, core.ContentDeltaEvent{Agent: "concierge", Delta: "world"}, events[4])
	assert.Equal(t, core.TurnCompleteEvent{Agent: "concierge", Reason: core.ReasonCompleted}, events[5])

	// History: user message plus one assistant message with the full text.
	require.Len(t, state.History, 2)
	assert.Equal(t, core.RoleAssistant, state.History[1].Role)
	assert.Equal(t, "Hello, world", state.History[1].Content)
	assert.Empty(t, state.History[1].ToolCalls)
}

func TestListNotesScenario(t *testing.T) {
	// Concierge hands off; the handoff arguments arrive split mid-token.
	handoffTurn := model.MockTurn{Fragments: []model.Fragment{
		model.ToolCallFragment{Index: 0, ID: "call_1", Name: "handoff_to_archivist"},
		model.ToolCallFragment{Index: 0, Arguments: `{"reas`},
		model.ToolCallFragment{Index: 0, Arguments: `on":"notes"}`},
	}}
	listTurn := model.MockTurn{Fragments: []model.Fragment{
		model.ToolCallFragment{Index: 0, ID: "call_2", Name: "list_titles", Arguments: "{}"},
	}}
	client := model.NewMockClient(handoffTurn, listTurn)
	eng, _, state := newTestEngine(t, client)

	events := collect(eng.RunTurn(context.Background(), state, "list my notes"))

	require.Len(t, events, 8)
	assert.Equal(t, core.UserMessageEvent{Content: "list my notes"}, events[0])
	assert.Equal(t, core.AgentActivatedEvent{Agent: "concierge", AgentName: "Concierge"}, events[1])

	invoked, ok := events[2].(core.ToolInvokedEvent)
	require.True(t, ok)
	assert.Equal(t, "handoff_to_archivist", invoked.Tool)
	assert.Equal(t, "notes", invoked.Arguments["reason"], "split argument chunks must reassemble")

	completedEv, ok := events[3].(core.ToolCompletedEvent)
	require.True(t, ok)
	assert.True(t, completedEv.Result.Success)
	assert.Equal(t, "archivist", completedEv.Result.Fields["handoff"])

	assert.Equal(t, core.AgentActivatedEvent{Agent: "archivist", AgentName: "Archivist"}, events[4])

	invoked, ok = events[5].(core.ToolInvokedEvent)
	require.True(t, ok)
	assert.Equal(t, "list_titles", invoked.Tool)

	completedEv, ok = events[6].(core.ToolCompletedEvent)
	require.True(t, ok)
	assert.True(t, completedEv.Result.Success)
	assert.Equal(t, []string{}, completedEv.Result.Fields["titles"])
	assert.Equal(t, 0, completedEv.Result.Fields["count"])

	assert.Equal(t, core.TurnCompleteEvent{Agent: "archivist", Reason: core.ReasonCompleted}, events[7])

	// The handoff persists on the state for the next turn.
	assert.Equal(t, agent.Archivist, state.Current)
}

func TestToolMessagesThreadCallIDs(t *testing.T) {
	turn := model.MockTurn{Fragments: []model.Fragment{
		model.ToolCallFragment{Index: 0, ID: "call_9", Name: "list_titles", Arguments: "{}"},
	}}
	client := model.NewMockClient(turn)
	eng, _, state := newTestEngine(t, client)

	collect(eng.RunTurn(context.Background(), state, "notes?"))

	// user, assistant(call), tool(answer)
	require.Len(t, state.History, 3)
	asst := state.History[1]
	require.Len(t, asst.ToolCalls, 1)
	assert.Equal(t, "call_9", asst.ToolCalls[0].ID)

	toolMsg := state.History[2]
	assert.Equal(t, core.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_9", toolMsg.ToolCallID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &payload))
	assert.Equal(t, true, payload["success"])
}

func TestInterleavedIndicesReassembleIndependently(t *testing.T) {
	// Two calls stream interleaved; within one index order matters, across
	// indices it must not.
	turn := model.MockTurn{Fragments: []model.Fragment{
		model.ToolCallFragment{Index: 0, ID: "call_a", Name: "save_note"},
		model.ToolCallFragment{Index: 1, ID: "call_b", Name: "get_note"},
		model.ToolCallFragment{Index: 0, Arguments: `{"title":"a",`},
		model.ToolCallFragment{Index: 1, Arguments: `{"tit`},
		model.ToolCallFragment{Index: 0, Arguments: `"content":"1"}`},
		model.ToolCallFragment{Index: 1, Arguments: `le":"a"}`},
	}}
	client := model.NewMockClient(turn)
	eng, _, state := newTestEngine(t, client)

	events := collect(eng.RunTurn(context.Background(), state, "save then read"))

	var completed []core.ToolCompletedEvent
	for _, ev := range events {
		if tc, ok := ev.(core.ToolCompletedEvent); ok {
			completed = append(completed, tc)
		}
	}
	require.Len(t, completed, 2)
	// Execution follows first-seen index order.
	assert.Equal(t, "save_note", completed[0].Tool)
	require.True(t, completed[0].Result.Success)
	assert.Equal(t, "get_note", completed[1].Tool)
	require.True(t, completed[1].Result.Success)
	assert.Equal(t, "1", completed[1].Result.Fields["content"])

	asst := state.History[1]
	require.Len(t, asst.ToolCalls, 2)
	assert.JSONEq(t, `{"title":"a","content":"1"}`, asst.ToolCalls[0].Arguments)
	assert.JSONEq(t, `{"title":"a"}`, asst.ToolCalls[1].Arguments)
}

// pingPongClient always answers with a handoff to whichever agent is not
// currently active, forcing the iteration budget to intervene.
type pingPongClient struct{}

func (pingPongClient) Stream(ctx context.Context, req model.Request) (<-chan model.Fragment, <-chan error) {
	target := "handoff_to_archivist"
	for _, tdef := range req.Tools {
		if tdef.Function.Name == "handoff_to_concierge" {
			target = "handoff_to_concierge"
		}
	}
	out := make(chan model.Fragment, 1)
	errCh := make(chan error, 1)
	out <- model.ToolCallFragment{Index: 0, ID: core.NewID(), Name: target, Arguments: `{"reason":"again"}`}
	close(out)
	close(errCh)
	return out, errCh
}

func TestHandoffLoopTerminatesOnBudget(t *testing.T) {
	eng, _, state := newTestEngine(t, pingPongClient{})

	events := collect(eng.RunTurn(context.Background(), state, "ping"))

	var activations int
	for _, ev := range events {
		if _, ok := ev.(core.AgentActivatedEvent); ok {
			activations++
		}
	}
	assert.Equal(t, DefaultMaxIterations, activations)

	last := events[len(events)-1]
	terminal, ok := last.(core.TurnCompleteEvent)
	require.True(t, ok, "last event must be terminal")
	assert.Equal(t, core.ReasonBudgetExhausted, terminal.Reason)

	for _, ev := range events[:len(events)-1] {
		_, isTerminal := ev.(core.TurnCompleteEvent)
		assert.False(t, isTerminal, "exactly one terminal event")
	}
}

func TestToolFailureDoesNotAbortTurn(t *testing.T) {
	turn := model.MockTurn{Fragments: []model.Fragment{
		model.ToolCallFragment{Index: 0, ID: "call_1", Name: "get_note", Arguments: `{"title":"missing"}`},
	}}
	client := model.NewMockClient(turn)
	eng, _, state := newTestEngine(t, client)

	events := collect(eng.RunTurn(context.Background(), state, "read it"))

	var sawFailure bool
	for _, ev := range events {
		if tc, ok := ev.(core.ToolCompletedEvent); ok {
			sawFailure = true
			assert.False(t, tc.Result.Success)
			assert.Contains(t, tc.Result.Error, "not found")
		}
		_, isErr := ev.(core.ErrorEvent)
		assert.False(t, isErr, "tool failure must not surface as a turn error")
	}
	require.True(t, sawFailure)

	terminal := events[len(events)-1].(core.TurnCompleteEvent)
	assert.Equal(t, core.ReasonCompleted, terminal.Reason)
}

func TestMalformedArgumentsBecomeToolFailure(t *testing.T) {
	turn := model.MockTurn{Fragments: []model.Fragment{
		model.ToolCallFragment{Index: 0, ID: "call_1", Name: "save_note", Arguments: `{"title":`},
	}}
	client := model.NewMockClient(turn)
	eng, _, state := newTestEngine(t, client)

	events := collect(eng.RunTurn(context.Background(), state, "save"))

	var completedEv core.ToolCompletedEvent
	for _, ev := range events {
		if tc, ok := ev.(core.ToolCompletedEvent); ok {
			completedEv = tc
		}
	}
	assert.False(t, completedEv.Result.Success)
	assert.Contains(t, completedEv.Result.Error, "invalid tool arguments")

	terminal := events[len(events)-1].(core.TurnCompleteEvent)
	assert.Equal(t, core.ReasonCompleted, terminal.Reason)
}

func TestUpstreamFailureEmitsErrorThenTerminal(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Fragments: []model.Fragment{model.TextFragment{Text: "partial"}},
		Err:       errors.New("rate limited"),
	})
	eng, _, state := newTestEngine(t, client)

	events := collect(eng.RunTurn(context.Background(), state, "hello"))

	require.GreaterOrEqual(t, len(events), 2)
	errEv, ok := events[len(events)-2].(core.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "concierge", errEv.Agent)
	assert.Contains(t, errEv.Message, "rate limited")

	terminal, ok := events[len(events)-1].(core.TurnCompleteEvent)
	require.True(t, ok)
	assert.Equal(t, core.ReasonError, terminal.Reason)
	assert.Equal(t, "concierge", terminal.Agent)
}

func TestRequestsCarryInstructionsAndHistory(t *testing.T) {
	client := model.NewMockClient(textTurn("first"), textTurn("second"))
	eng, _, state := newTestEngine(t, client)

	collect(eng.RunTurn(context.Background(), state, "one"))
	collect(eng.RunTurn(context.Background(), state, "two"))

	reqs := client.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].Instructions, "Concierge")
	require.Len(t, reqs[0].History, 1)

	// Second turn sees the accumulated history: user, assistant, user.
	require.Len(t, reqs[1].History, 3)
	assert.Equal(t, core.RoleAssistant, reqs[1].History[1].Role)
	assert.Equal(t, "first", reqs[1].History[1].Content)
}

func TestDefaultAgentIsConcierge(t *testing.T) {
	client := model.NewMockClient(textTurn("hi"))
	eng, _, state := newTestEngine(t, client)
	state.Current = ""

	events := collect(eng.RunTurn(context.Background(), state, "hello"))
	assert.Equal(t, core.AgentActivatedEvent{Agent: "concierge", AgentName: "Concierge"}, events[1])
}

func TestAccumulatorNameFixedOnFirstSight(t *testing.T) {
	acc := newCallAccumulator()
	acc.add(model.ToolCallFragment{Index: 3, ID: "c1", Name: "save_note"})
	acc.add(model.ToolCallFragment{Index: 3, Name: "sneaky_rename", Arguments: `{"a":`})
	acc.add(model.ToolCallFragment{Index: 3, Arguments: `1}`})

	calls := acc.finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "save_note", calls[0].Name)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, `{"a":1}`, calls[0].Arguments)
}

func TestAccumulatorSynthesizesMissingIDs(t *testing.T) {
	acc := newCallAccumulator()
	acc.add(model.ToolCallFragment{Index: 0, Name: "list_titles", Arguments: "{}"})

	calls := acc.finalize()
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].ID)
}

func TestConcurrentTurnsOnSeparateStates(t *testing.T) {
	store := session.NewStore()
	tools := tool.NewRegistry(tool.NewNoteTools(store)...)
	agents := agent.DefaultRegistry(tool.Definitions(tool.NewNoteTools(store)...))

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(n int) {
			sess := store.CreateSession()
			client := model.NewMockClient(textTurn("reply"))
			eng := New(client, agents, tools)
			state := &State{SessionID: sess.ID, Current: agent.Concierge}
			events := collect(eng.RunTurn(context.Background(), state, fmt.Sprintf("msg %d", n)))
			if _, ok := events[len(events)-1].(core.TurnCompleteEvent); !ok {
				done <- fmt.Errorf("turn %d missing terminal event", n)
				return
			}
			done <- nil
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}
}

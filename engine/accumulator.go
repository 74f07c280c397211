package engine

import (
	"strings"

	"github.com/djdjm-value-shore/smoothoperatormini/core"
	"github.com/djdjm-value-shore/smoothoperatormini/model"
)

// callAccumulator reassembles streamed tool-call fragments into complete
// descriptors, keyed by the provider-assigned position index. The provider
// may split one call's JSON arguments across many fragments of arbitrary
// size, including mid-token; the accumulator concatenates argument text in
// arrival order and leaves parsing until the sequence is complete.
type callAccumulator struct {
	byIndex map[int64]*partialCall
	order   []int64
}

// partialCall is the fixed record accumulated per position index. Name and
// ID are set on first sight and never overwritten.
type partialCall struct {
	id   string
	name string
	args strings.Builder
}

func newCallAccumulator() *callAccumulator {
	return &callAccumulator{byIndex: make(map[int64]*partialCall)}
}

// add folds one fragment into the accumulator. A new index opens a new
// descriptor; further fragments with the same index append argument text.
func (a *callAccumulator) add(f model.ToolCallFragment) {
	pc, ok := a.byIndex[f.Index]
	if !ok {
		pc = &partialCall{}
		a.byIndex[f.Index] = pc
		a.order = append(a.order, f.Index)
	}
	if pc.id == "" && f.ID != "" {
		pc.id = f.ID
	}
	if pc.name == "" && f.Name != "" {
		pc.name = f.Name
	}
	pc.args.WriteString(f.Arguments)
}

// finalize returns the completed descriptors in first-seen index order. A
// call the provider never assigned an identifier gets a synthetic one, since
// the history threading contract requires every call to be answerable.
func (a *callAccumulator) finalize() []core.ToolCall {
	calls := make([]core.ToolCall, 0, len(a.order))
	for _, idx := range a.order {
		pc := a.byIndex[idx]
		id := pc.id
		if id == "" {
			id = core.NewID()
		}
		calls = append(calls, core.ToolCall{
			ID:        id,
			Name:      pc.name,
			Arguments: pc.args.String(),
		})
	}
	return calls
}

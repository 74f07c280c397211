package model

import (
	"context"
	"sync"
)

// MockTurn scripts one Stream invocation of a MockClient: the fragments to
// emit in order, optionally followed by an error.
type MockTurn struct {
	Fragments []Fragment
	Err       error
}

// MockClient is a scripted in-memory Client for tests. The nth Stream call
// plays the nth MockTurn; calls past the script emit nothing (an empty
// completion), unless RepeatLast is set, in which case the final turn plays
// forever - useful for adversarial handoff loops.
type MockClient struct {
	RepeatLast bool

	mu       sync.Mutex
	turns    []MockTurn
	calls    int
	requests []Request
}

// NewMockClient constructs a MockClient from a script of turns.
func NewMockClient(turns ...MockTurn) *MockClient {
	return &MockClient{turns: turns}
}

// Stream implements Client.
func (m *MockClient) Stream(ctx context.Context, req Request) (<-chan Fragment, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	idx := m.calls
	m.calls++
	var turn MockTurn
	if idx < len(m.turns) {
		turn = m.turns[idx]
	} else if m.RepeatLast && len(m.turns) > 0 {
		turn = m.turns[len(m.turns)-1]
	}
	m.mu.Unlock()

	out := make(chan Fragment, len(turn.Fragments))
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		for _, f := range turn.Fragments {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- f:
			}
		}
		if turn.Err != nil {
			errCh <- turn.Err
		}
	}()
	return out, errCh
}

// Calls returns how many Stream invocations have been made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every Request passed to Stream, in order.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

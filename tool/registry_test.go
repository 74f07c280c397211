package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdjm-value-shore/smoothoperatormini/logging"
)

type mockTool struct {
	name     string
	fields   map[string]any
	err      error
	panicMsg any
	gotArgs  map[string]any
}

func (m *mockTool) Name() string               { return m.name }
func (m *mockTool) Description() string        { return "mock tool" }
func (m *mockTool) Parameters() map[string]any { return map[string]any{} }
func (m *mockTool) Call(_ *Context, args map[string]any) (map[string]any, error) {
	m.gotArgs = args
	if m.panicMsg != nil {
		panic(m.panicMsg)
	}
	return m.fields, m.err
}

func testContext() *Context {
	return NewContext(context.Background(), "sess", "call-1", logging.NoOpLogger{})
}

func TestRegistryExecuteSuccess(t *testing.T) {
	mt := &mockTool{name: "echo", fields: map[string]any{"value": 42}}
	r := NewRegistry(mt)

	res := r.Execute(testContext(), "echo", `{"a":1}`)
	require.True(t, res.Success)
	assert.Equal(t, 42, res.Fields["value"])
	assert.Equal(t, float64(1), mt.gotArgs["a"])
}

func TestRegistryExecuteUnknownToolIsRecoverable(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(testContext(), "nope", "{}")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown tool")
}

func TestRegistryExecuteMalformedArguments(t *testing.T) {
	mt := &mockTool{name: "echo"}
	r := NewRegistry(mt)

	res := r.Execute(testContext(), "echo", `{"a":`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid tool arguments")
	assert.Nil(t, mt.gotArgs, "tool must not run on unparseable arguments")
}

func TestRegistryExecuteEmptyArguments(t *testing.T) {
	mt := &mockTool{name: "noargs", fields: map[string]any{}}
	r := NewRegistry(mt)

	res := r.Execute(testContext(), "noargs", "")
	assert.True(t, res.Success)
	assert.NotNil(t, mt.gotArgs)
}

func TestRegistryExecuteToolError(t *testing.T) {
	mt := &mockTool{name: "broken", err: errors.New("backend unavailable")}
	r := NewRegistry(mt)

	res := r.Execute(testContext(), "broken", "{}")
	assert.False(t, res.Success)
	assert.Equal(t, "backend unavailable", res.Error)
}

func TestRegistryExecuteRecoversPanic(t *testing.T) {
	mt := &mockTool{name: "bomb", panicMsg: "kaboom"}
	r := NewRegistry(mt)

	res := r.Execute(testContext(), "bomb", "{}")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "kaboom")
}

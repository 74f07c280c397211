package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandoffTargetResolution(t *testing.T) {
	r := DefaultRegistry(nil)

	target, ok := r.HandoffTarget("handoff_to_archivist")
	require.True(t, ok)
	assert.Equal(t, Archivist, target)

	target, ok = r.HandoffTarget("handoff_to_concierge")
	require.True(t, ok)
	assert.Equal(t, Concierge, target)

	_, ok = r.HandoffTarget("save_note")
	assert.False(t, ok, "ordinary tools are not handoffs")

	_, ok = r.HandoffTarget("handoff_to_nobody")
	assert.False(t, ok, "unregistered targets do not resolve")
}

func TestDefaultRegistryDefinitions(t *testing.T) {
	r := DefaultRegistry(nil)

	concierge, ok := r.Get(Concierge)
	require.True(t, ok)
	assert.Equal(t, "Concierge", concierge.DisplayName)
	require.Len(t, concierge.Tools, 1)
	assert.Equal(t, "handoff_to_archivist", concierge.Tools[0].Function.Name)

	archivist, ok := r.Get(Archivist)
	require.True(t, ok)
	require.Len(t, archivist.Tools, 1)
	assert.Equal(t, "handoff_to_concierge", archivist.Tools[0].Function.Name)

	_, ok = r.Get("janitor")
	assert.False(t, ok)
}

func TestHandoffToolDefinitionSchema(t *testing.T) {
	def := NewHandoffToolDefinition(Archivist, "desc", "reason", "why")
	assert.Equal(t, "function", def.Type)
	assert.Equal(t, "handoff_to_archivist", def.Function.Name)

	props, ok := def.Function.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "reason")
	assert.Equal(t, []string{"reason"}, def.Function.Parameters["required"])
}

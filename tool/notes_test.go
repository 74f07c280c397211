package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdjm-value-shore/smoothoperatormini/session"
)

func newNotesRegistry(t *testing.T) (*Registry, *session.Store, string) {
	t.Helper()
	store := session.NewStore()
	sess := store.CreateSession()
	return NewRegistry(NewNoteTools(store)...), store, sess.ID
}

func TestSaveAndGetNote(t *testing.T) {
	r, _, sessID := newNotesRegistry(t)
	tctx := NewContext(t.Context(), sessID, "call-1", nil)

	res := r.Execute(tctx, "save_note", `{"title":"shopping","content":"milk, eggs"}`)
	require.True(t, res.Success)
	assert.Equal(t, "Note 'shopping' saved successfully", res.Fields["message"])

	res = r.Execute(tctx, "get_note", `{"title":"shopping"}`)
	require.True(t, res.Success)
	assert.Equal(t, "shopping", res.Fields["title"])
	assert.Equal(t, "milk, eggs", res.Fields["content"])
}

func TestGetMissingNoteFails(t *testing.T) {
	r, _, sessID := newNotesRegistry(t)
	tctx := NewContext(t.Context(), sessID, "call-1", nil)

	res := r.Execute(tctx, "get_note", `{"title":"nope"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "Note 'nope' not found", res.Error)
}

func TestListTitles(t *testing.T) {
	r, store, sessID := newNotesRegistry(t)
	tctx := NewContext(t.Context(), sessID, "call-1", nil)

	res := r.Execute(tctx, "list_titles", "{}")
	require.True(t, res.Success)
	assert.Equal(t, []string{}, res.Fields["titles"])
	assert.Equal(t, 0, res.Fields["count"])

	store.SaveNote(sessID, "b", "2")
	store.SaveNote(sessID, "a", "1")

	res = r.Execute(tctx, "list_titles", "{}")
	require.True(t, res.Success)
	assert.Equal(t, []string{"a", "b"}, res.Fields["titles"])
	assert.Equal(t, 2, res.Fields["count"])
}

func TestSaveNoteValidatesFields(t *testing.T) {
	r, _, sessID := newNotesRegistry(t)
	tctx := NewContext(t.Context(), sessID, "call-1", nil)

	res := r.Execute(tctx, "save_note", `{"content":"orphan"}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "missing required field 'title'")

	res = r.Execute(tctx, "save_note", `{"title":"x"}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "missing required field 'content'")
}

func TestNotesAreSessionScoped(t *testing.T) {
	r, store, sessID := newNotesRegistry(t)
	other := store.CreateSession()

	r.Execute(NewContext(t.Context(), sessID, "c1", nil), "save_note", `{"title":"mine","content":"x"}`)

	res := r.Execute(NewContext(t.Context(), other.ID, "c2", nil), "list_titles", "{}")
	require.True(t, res.Success)
	assert.Equal(t, 0, res.Fields["count"])
}

package tool

import "fmt"

// NoteStore is the slice of the lifecycle store the note tools need: the
// per-session key/value namespace owned by each session.
type NoteStore interface {
	SaveNote(sessionID, title, content string)
	GetNote(sessionID, title string) (string, bool)
	NoteTitles(sessionID string) []string
}

// NewNoteTools builds the three note management tools backed by store.
func NewNoteTools(store NoteStore) []Tool {
	return []Tool{
		&saveNoteTool{store: store},
		&getNoteTool{store: store},
		&listTitlesTool{store: store},
	}
}

type saveNoteTool struct {
	store NoteStore
}

func (t *saveNoteTool) Name() string { return "save_note" }

func (t *saveNoteTool) Description() string {
	return "Save a note with the given title and content"
}

func (t *saveNoteTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":   map[string]any{"type": "string", "description": "Title of the note"},
			"content": map[string]any{"type": "string", "description": "Content of the note"},
		},
		"required": []string{"title", "content"},
	}
}

func (t *saveNoteTool) Call(tctx *Context, args map[string]any) (map[string]any, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'content'")
	}
	t.store.SaveNote(tctx.SessionID(), title, content)
	return map[string]any{"message": fmt.Sprintf("Note '%s' saved successfully", title)}, nil
}

type getNoteTool struct {
	store NoteStore
}

func (t *getNoteTool) Name() string { return "get_note" }

func (t *getNoteTool) Description() string {
	return "Retrieve the content of a note by its title"
}

func (t *getNoteTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Title of the note to retrieve"},
		},
		"required": []string{"title"},
	}
}

func (t *getNoteTool) Call(tctx *Context, args map[string]any) (map[string]any, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	content, ok := t.store.GetNote(tctx.SessionID(), title)
	if !ok {
		return nil, fmt.Errorf("Note '%s' not found", title)
	}
	return map[string]any{"title": title, "content": content}, nil
}

type listTitlesTool struct {
	store NoteStore
}

func (t *listTitlesTool) Name() string { return "list_titles" }

func (t *listTitlesTool) Description() string {
	return "List all available note titles"
}

func (t *listTitlesTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *listTitlesTool) Call(tctx *Context, _ map[string]any) (map[string]any, error) {
	titles := t.store.NoteTitles(tctx.SessionID())
	return map[string]any{"titles": titles, "count": len(titles)}, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required field '%s'", key)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("field '%s' must be a non-empty string", key)
	}
	return s, nil
}

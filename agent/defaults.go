package agent

import "github.com/djdjm-value-shore/smoothoperatormini/model"

const conciergeInstructions = `You are the Concierge, a friendly front-facing assistant.
You help users with general queries and can hand off to the Archivist for note-related tasks.

When users want to:
- Save a note
- Retrieve a note
- List notes
- Manage their notes in any way

Respond with: "I'll hand this over to our Archivist specialist who handles notes."
And use the handoff_to_archivist function.

For all other queries, help the user directly.`

const archivistInstructions = `You are the Archivist, a specialist in managing notes.
You have access to three tools:
- save_note: Save a note with title and content
- get_note: Retrieve a note by title
- list_titles: List all available notes

After completing note operations, you can return control to the Concierge
using handoff_to_concierge if the user has additional non-note queries.

Be efficient and clear in your note management.`

// DefaultRegistry wires the Concierge/Archivist pair. noteTools are the
// schemas of the Archivist's note management tools; the handoff pseudo-tools
// are appended here so every agent can reach its counterpart.
func DefaultRegistry(noteTools []model.ToolDefinition) *Registry {
	concierge := Definition{
		ID:           Concierge,
		DisplayName:  "Concierge",
		Instructions: conciergeInstructions,
		Tools: []model.ToolDefinition{
			NewHandoffToolDefinition(
				Archivist,
				"Hand off conversation to the Archivist for note management",
				"reason",
				"Reason for handoff",
			),
		},
	}

	archivist := Definition{
		ID:           Archivist,
		DisplayName:  "Archivist",
		Instructions: archivistInstructions,
		Tools: append(append([]model.ToolDefinition{}, noteTools...),
			NewHandoffToolDefinition(
				Concierge,
				"Return control to the Concierge",
				"summary",
				"Summary of completed work",
			),
		),
	}

	return NewRegistry(concierge, archivist)
}

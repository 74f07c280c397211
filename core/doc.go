// Package core defines the shared vocabulary of the engine: conversation
// messages, tool call descriptors and results, and the closed TurnEvent union
// streamed to callers during a turn. Higher layers (model adapters, the tool
// registry, the turn engine and the HTTP transport) all communicate through
// these types; core itself depends on nothing but the standard library and
// uuid generation.
package core

// Package model defines the streaming completion client consumed by the turn
// engine: a Request carrying instructions, history and tool schemas, and a
// lazy Fragment stream of text deltas and partial tool-call data. Provider
// adapters live in the openai and anthropic subpackages; MockClient provides
// a scripted source for tests.
package model

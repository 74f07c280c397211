// Package engine drives one logical turn across possibly-multiple agents:
// the bounded handoff loop, streamed tool-call reassembly, tool execution
// and ordered event emission. A turn is a single sequential flow; multiple
// turns may run concurrently, but a State must only ever be driven by one
// turn at a time.
package engine

// Package session implements the in-memory lifecycle store for sessions,
// threads and the per-session note namespace. Records expire after a TTL
// measured from last access; reads refresh the window (touch on access) and
// a background reaper evicts records nobody touches. The store is volatile:
// nothing survives a process restart.
package session

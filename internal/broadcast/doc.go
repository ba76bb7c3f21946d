// Package broadcast implements the session hub using the actor pattern.
//
// The Hub tracks connected websocket clients and fans ticker events out to
// all of them. A single goroutine owns the registry and processes commands
// from a channel (no mutexes); per-connection write goroutines absorb slow
// clients so one stalled session never blocks the rest.
package broadcast

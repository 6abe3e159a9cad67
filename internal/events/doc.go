// Package events lets jobs announce completed work without knowing who
// listens. The ranking builder emits an Event after each publish or weekly
// reset; the websocket hub is the main subscriber.
//
// The primary components are:
// - Event: a typed notification with a JSON payload
// - Handler: receives events
// - Emitter: fans events out to handlers
package events

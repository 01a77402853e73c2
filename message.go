package actorhost

import "time"

// Message is any payload that can be placed in a mailbox. An actor
// distinguishes message kinds with a type switch inside Receive; see
// DESIGN.md for the rationale behind this choice over a per-message
// handler interface.
type Message = any

// StopMessage asks the receiving actor to finish its current mailbox and
// then terminate. Handled by the built-in ActorStopHandler dispatch before
// Receive is ever called with it.
type StopMessage struct{}

// SystemStopMessage is broadcast to every actor once the system enters its
// stopping phase. An actor with no SystemStopHandler keeps running; it is
// the actor's own responsibility to react (e.g. by implementing
// SystemStopHandler and returning ResultStop), otherwise System.Stop
// force-stops it once its grace period elapses.
type SystemStopMessage struct{}

// SleepMessage pauses message processing on the receiving actor for the
// given duration.
type SleepMessage struct {
	Duration time.Duration
}

// SerializedMessage carries an opaque byte payload, typically delivered via
// SystemState.SendToAddress. The runtime never interprets Content.
type SerializedMessage struct {
	Content []byte
}

// BulkMessage delivers a slice of payloads as a single envelope; the
// envelope dispatcher unwraps it into one Receive call per item, stopping
// at the first error, equivalent to sending each item individually in
// order.
type BulkMessage struct {
	Items []Message
}

// delayedMessage is the payload delayWorker (delay.go) processes to realize
// "send after a delay" without blocking the caller's goroutine.
type delayedMessage struct {
	target  Address
	payload Message
	delay   time.Duration
	started time.Time
}

package actorhost

import (
	"context"
	"time"
)

// Wrapper is the typed handle callers use to talk to one actor. It closes
// over the mailbox, the executor, and the pool the actor runs on, so Send
// can both enqueue the envelope and, if the actor was sleeping, ask the
// pool's wakeupManager to bring it back.
type Wrapper[A Actor[A]] struct {
	addr Address
	mbox *mailbox[A]
	exec *actorExecutor[A]
	pool *threadPool
}

// Address returns the address this wrapper targets.
func (w *Wrapper[A]) Address() Address { return w.addr }

// Send delivers msg to the actor on behalf of sender, waking it if it was
// parked sleeping.
func (w *Wrapper[A]) Send(sender Address, msg Message) error {
	return w.SendTimeout(sender, msg, defaultSendTimeout)
}

// SendTimeout is Send with an explicit bound on how long to wait for a
// full bounded mailbox to make room.
func (w *Wrapper[A]) SendTimeout(sender Address, msg Message, timeout time.Duration) error {
	err := w.mbox.send(envelope{sender: sender, message: msg}, timeout)
	if err == nil && w.exec.isSleeping() {
		w.pool.wakeups.requestWakeup(w.exec)
	}
	return err
}

// Tell sends msg with no sender address, for fire-and-forget calls from
// outside any actor's Receive.
func (w *Wrapper[A]) Tell(msg Message) error {
	return w.Send(Address{}, msg)
}

// Stop requests a graceful stop: the actor finishes its mailbox, then
// terminates.
func (w *Wrapper[A]) Stop() error {
	return w.Tell(StopMessage{})
}

// GetMailboxSize returns the number of envelopes currently queued.
func (w *Wrapper[A]) GetMailboxSize() int {
	return w.mbox.mailboxLen()
}

// IsMailboxStopped reports whether the mailbox has been marked stopped,
// which happens as soon as a Stop or Kill result is processed and does not
// wait for the actor to actually finish draining.
func (w *Wrapper[A]) IsMailboxStopped() bool {
	return w.mbox.isStopped()
}

// IsStopped is an alias for IsMailboxStopped kept as its own accessor for
// callers checking actor liveness rather than mailbox internals.
func (w *Wrapper[A]) IsStopped() bool {
	return w.mbox.isStopped()
}

// WaitForStop blocks until the mailbox is marked stopped (see
// IsMailboxStopped; it does not wait for the mailbox to drain), or ctx is
// done.
func (w *Wrapper[A]) WaitForStop(ctx context.Context) error {
	const pollInterval = 10 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if w.mbox.isStopped() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

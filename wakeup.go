package actorhost

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// wakeupDedupWindow is how long a pending wake-up for a given address
// suppresses further requests for the same address, so a burst of sends to
// a sleeping actor collapses into a single re-enqueue instead of flooding
// the run queue. It is shorter than inactivityThreshold (executor.go): a
// woken actor cannot park Inactive again before its dedup entry expires.
const wakeupDedupWindow = 4 * time.Second

// wakeupRetries and wakeupRetryInterval implement the loss-prevention
// iteration: a send can race the executor's own transition into
// StateInactive, so the manager rechecks a few times after the initial
// wake-up rather than trusting a single enqueue to land.
const (
	wakeupRetries       = 3
	wakeupRetryInterval = 50 * time.Millisecond
)

// enqueueFunc hands an executor back to the thread pool's run queue.
type enqueueFunc func(executor)

// wakeupManager turns "a message was sent to a sleeping actor" into one
// run-queue re-entry per dedup window (plus at most wakeupRetries
// re-enqueues from retryUntilDrained), while still guarding
// against the message being missed if the actor was mid-transition into
// Inactive when the send happened.
type wakeupManager struct {
	pending *lru.LRU[Address, struct{}]
	enqueue enqueueFunc
}

func newWakeupManager(enqueue enqueueFunc) *wakeupManager {
	return &wakeupManager{
		pending: lru.NewLRU[Address, struct{}](4096, nil, wakeupDedupWindow),
		enqueue: enqueue,
	}
}

// requestWakeup is called whenever a send lands in a mailbox whose
// executor reports isSleeping. It is safe to call repeatedly; duplicate
// calls inside the dedup window are no-ops.
func (w *wakeupManager) requestWakeup(exec executor) {
	addr := exec.address()
	if _, ok := w.pending.Get(addr); ok {
		return
	}
	w.pending.Add(addr, struct{}{})

	exec.wakeup()
	w.enqueue(exec)

	go w.retryUntilDrained(exec)
}

// retryUntilDrained re-enqueues the executor a bounded number of times if
// it appears to have gone back to sleep without the mailbox actually
// draining, which happens when the wake-up raced the executor's own
// empty-mailbox check.
func (w *wakeupManager) retryUntilDrained(exec executor) {
	for i := 0; i < wakeupRetries; i++ {
		time.Sleep(wakeupRetryInterval)
		if exec.isStopped() {
			return
		}
		if !exec.isSleeping() {
			return
		}
		exec.wakeup()
		w.enqueue(exec)
	}
}

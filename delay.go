package actorhost

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// delayPoolName is a dedicated pool for delay workers so scheduled sends
// never compete with user actors for run-queue slots.
const delayPoolName = "system-delay"

// delayWorker is the actor type backing the internal delay dispatcher: it
// receives a delayedMessage and schedules the eventual delivery with
// time.AfterFunc, then goes back to sleep.
type delayWorker struct {
	system *System
}

func (w *delayWorker) Receive(ctx *Context[*delayWorker]) (ActorResult, error) {
	msg, ok := ctx.Message().(delayedMessage)
	if !ok {
		return ResultOk, nil
	}
	remaining := msg.delay - time.Since(msg.started)
	if remaining < 0 {
		remaining = 0
	}
	time.AfterFunc(remaining, func() {
		_ = w.system.SendToAddress(Address{}, msg.target, msg.payload)
	})
	return ResultOk, nil
}

// delayDispatcher fans scheduling requests out across a small, fixed pool
// of delayWorker actors in round robin, so the timer load of many
// concurrent SendAfter calls doesn't serialize through a single mailbox.
type delayDispatcher struct {
	workers []*Wrapper[*delayWorker]
	next    atomic.Uint64
}

func newDelayDispatcher(system *System, workerCount int) *delayDispatcher {
	if err := system.AddPoolWithConfig(delayPoolName, PoolConfig{ThreadsFactor: 0, ThreadsMin: 1, ThreadsMax: 1}); err != nil {
		system.log.Warn("delay pool registration failed", zap.Error(err))
	}

	d := &delayDispatcher{workers: make([]*Wrapper[*delayWorker], 0, workerCount)}
	for i := 0; i < workerCount; i++ {
		factory := FactoryFunc[*delayWorker](func(ctx *Context[*delayWorker]) (*delayWorker, error) {
			return &delayWorker{system: system}, nil
		})
		w, err := NewBuilder[*delayWorker](system, factory).
			WithPool(delayPoolName).
			WithMailboxSize(0).
			WithRestartPolicy(RestartAlways).
			Spawn(delayWorkerName(i))
		if err != nil {
			system.log.Warn("delay worker spawn failed", zap.Error(err))
			continue
		}
		d.workers = append(d.workers, w)
	}
	return d
}

func delayWorkerName(i int) string {
	const names = "0123456789"
	if i < len(names) {
		return "delay-" + string(names[i])
	}
	return "delay-n"
}

func (d *delayDispatcher) sendAfter(target Address, msg Message, delay time.Duration) error {
	if len(d.workers) == 0 {
		return ErrAlreadyStopped
	}
	idx := d.next.Add(1) % uint64(len(d.workers))
	return d.workers[idx].Tell(delayedMessage{
		target:  target,
		payload: msg,
		delay:   delay,
		started: time.Now(),
	})
}

package actorhost

import (
	"context"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lguibr/actorhost/actorlog"
)

// PoolConfig sizes a named thread pool. WorkerCount is derived as
// clamp(floor(ThreadsFactor * NumCPU), ThreadsMin, ThreadsMax), with
// configurable floor/ceiling so small and large deployments both get a
// sane default without a config change.
type PoolConfig struct {
	ThreadsFactor float64
	ThreadsMin    int
	ThreadsMax    int
}

// DefaultPoolConfig mirrors the system's default pool: roughly half the
// available CPUs, never fewer than 2 nor more than 32 workers.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{ThreadsFactor: 0.5, ThreadsMin: 2, ThreadsMax: 32}
}

func (c PoolConfig) workerCount() int {
	n := int(math.Floor(c.ThreadsFactor * float64(runtime.NumCPU())))
	if n < c.ThreadsMin {
		n = c.ThreadsMin
	}
	if n > c.ThreadsMax {
		n = c.ThreadsMax
	}
	return n
}

// threadPool is one named worker pool: a run queue and a fixed-size group
// of goroutines draining it, managed through an errgroup so the pool can
// be torn down by cancelling a single context.
type threadPool struct {
	name      string
	queue     chan executor
	log       *zap.Logger
	group     *errgroup.Group
	cancel    context.CancelFunc
	wakeups   *wakeupManager
	onStopped func(executor)
}

func newThreadPool(name string, cfg PoolConfig, log *zap.Logger, systemStopping func() bool, onStopped func(executor)) *threadPool {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	p := &threadPool{
		name:      name,
		queue:     make(chan executor, 4096),
		log:       log.With(zap.String("pool", name)),
		group:     group,
		cancel:    cancel,
		onStopped: onStopped,
	}
	p.wakeups = newWakeupManager(p.enqueue)

	workers := cfg.workerCount()
	for i := 0; i < workers; i++ {
		group.Go(actorlog.Wrap(p.log, "pool-worker", func() {
			p.runWorker(gctx, systemStopping)
		}))
	}
	return p
}

// enqueue places an executor back on the run queue. It never blocks: the
// queue is sized generously, and a full queue means the pool is
// overloaded, in which case dropping the enqueue and letting the next
// wake-up or poll pick it up again is preferable to blocking a producer.
func (p *threadPool) enqueue(e executor) {
	select {
	case p.queue <- e:
	default:
		p.log.Warn("run queue full, dropping re-enqueue", zap.Stringer("actor", e.address()))
	}
}

func (p *threadPool) runWorker(ctx context.Context, systemStopping func() bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case exec := <-p.queue:
			p.runTurns(exec, systemStopping())
		}
	}
}

// runTurns calls runTurn up to MessageThroughput times, the pool's half of
// the per-actor scheduling contract described in executor.go: the executor
// processes one message per call, and the pool caps how many turns one
// pop from the queue is allowed to consume before yielding to the next
// actor waiting on this worker.
func (p *threadPool) runTurns(exec executor, systemStopping bool) {
	throughput := exec.config().MessageThroughput
	if throughput <= 0 {
		throughput = 1
	}

	state := StateRunning
	for i := 0; i < throughput; i++ {
		state = exec.runTurn(systemStopping)
		if state != StateRunning {
			break
		}
	}

	switch state {
	case StateRunning:
		p.enqueue(exec)
	case StateSleeping:
		time.AfterFunc(exec.sleepDuration(), func() { p.enqueue(exec) })
	case StateInactive:
		// Left off the run queue; wakeupManager.requestWakeup re-enqueues it
		// once a new message arrives.
	case StateStopped:
		p.onStopped(exec)
	}
}

func (p *threadPool) shutdown() {
	p.cancel()
	_ = p.group.Wait()
}

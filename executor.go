package actorhost

import (
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// inactivityThreshold is how long an empty mailbox must have gone unwoken
// before the executor parks Inactive instead of spinning once more as
// Running. The short spin trades a little CPU for lower latency right
// after a burst of activity.
const inactivityThreshold = 5 * time.Second

// executor is the type-erased capability the thread pool and wake-up
// manager operate on, so that code never needs to know an actor's concrete
// type to schedule or wake it.
type executor interface {
	runTurn(systemIsStopping bool) ActorState
	address() Address
	config() Config
	isSleeping() bool
	isStopped() bool
	wakeup()
	sleepDuration() time.Duration
}

// actorExecutor is the per-actor state machine: it owns the user actor
// value, the receiving end of the mailbox, the factory used for restart,
// and the lifecycle bookkeeping flags. A given executor is only ever
// enqueued in one pool run queue at a time (see pool.go), so exactly one
// goroutine ever calls runTurn on it concurrently; no further locking is
// needed around the actor value.
type actorExecutor[A Actor[A]] struct {
	actor   A
	factory Factory[A]
	cfg     Config
	addr    Address
	mbox    *mailbox[A]
	self    *Wrapper[A]
	system  *System
	log     *zap.Logger

	isStartup           bool
	systemTriggeredStop bool
	lastWakeup          time.Time
	lastSleep           time.Duration
}

func newActorExecutor[A Actor[A]](
	system *System,
	addr Address,
	cfg Config,
	mbox *mailbox[A],
	self *Wrapper[A],
	factory Factory[A],
) (*actorExecutor[A], error) {
	e := &actorExecutor[A]{
		factory:    factory,
		cfg:        cfg,
		addr:       addr,
		mbox:       mbox,
		self:       self,
		system:     system,
		log:        system.logger().With(zap.Stringer("actor", addr)),
		isStartup:  true,
		lastWakeup: time.Now(),
	}

	ctx := newContext(system, self, Address{}, nil)
	actor, err := safeNewActor(factory, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	e.actor = actor
	return e, nil
}

func safeNewActor[A Actor[A]](factory Factory[A], ctx *Context[A]) (actor A, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r, debug.Stack())
		}
	}()
	return factory.NewActor(ctx)
}

func (e *actorExecutor[A]) address() Address             { return e.addr }
func (e *actorExecutor[A]) config() Config               { return e.cfg }
func (e *actorExecutor[A]) isSleeping() bool             { return e.mbox.isSleeping() }
func (e *actorExecutor[A]) isStopped() bool              { return e.mbox.isStopped() }
func (e *actorExecutor[A]) sleepDuration() time.Duration { return e.lastSleep }

// wakeup clears the sleeping flag and records the time, so the next
// empty-mailbox turn restarts the 5s inactivity grace period.
func (e *actorExecutor[A]) wakeup() {
	e.mbox.setSleeping(false)
	e.lastWakeup = time.Now()
}

func (e *actorExecutor[A]) newCtx(sender Address, message Message) *Context[A] {
	return newContext(e.system, e.self, sender, message)
}

// runTurn performs exactly one scheduling turn: it processes at most one
// message and returns the resulting ActorState. The caller (the thread
// pool worker) is responsible for calling it up to MessageThroughput times
// per pop from the run-queue.
func (e *actorExecutor[A]) runTurn(systemIsStopping bool) ActorState {
	if systemIsStopping && !e.systemTriggeredStop {
		if err := e.mbox.send(envelope{message: SystemStopMessage{}}, defaultSendTimeout); err == nil {
			e.systemTriggeredStop = true
		}
	}

	if e.isStartup {
		e.isStartup = false
		return e.runPreStart()
	}

	env, ok := e.mbox.tryRecv()
	if !ok {
		if e.isStopped() {
			e.runPostStop()
			return StateStopped
		}
		e.mbox.setSleeping(true)
		if time.Since(e.lastWakeup) >= inactivityThreshold {
			return StateInactive
		}
		e.mbox.setSleeping(false)
		return StateRunning
	}

	return e.runMessage(env)
}

func (e *actorExecutor[A]) runPreStart() ActorState {
	ctx := e.newCtx(Address{}, nil)
	hook, ok := any(e.actor).(PreStarter[A])
	if !ok {
		return StateRunning
	}
	result, err, panicked := e.callUnderRecover(func() (ActorResult, error) {
		return hook.PreStart(ctx)
	})
	if panicked {
		return e.onActorPanic(PanicPreStart)
	}
	return e.handleActorResult(result, err, false)
}

func (e *actorExecutor[A]) runMessage(env envelope) ActorState {
	ctx := e.newCtx(env.sender, env.message)
	result, err, panicked := e.callUnderRecover(func() (ActorResult, error) {
		return dispatch(e.actor, ctx)
	})
	if panicked {
		return e.onActorPanic(PanicMessage)
	}
	return e.handleActorResult(result, err, false)
}

func (e *actorExecutor[A]) runPostStop() {
	hook, ok := any(e.actor).(PostStopper[A])
	if !ok {
		return
	}
	ctx := e.newCtx(Address{}, nil)
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Warn("panic in PostStop", zap.Any("recover", r))
			}
		}()
		hook.PostStop(ctx)
	}()
}

// onActorPanic implements the panic protocol: consult OnPanic, retrying
// once with PanicOnPanic as the source if the hook itself panics, and
// forcing a kill if it panics twice in a row.
func (e *actorExecutor[A]) onActorPanic(source PanicSource) ActorState {
	hook, ok := any(e.actor).(PanicHandler[A])
	if !ok {
		// No custom handling: fall through to the ordinary Restart path so
		// RestartPolicy still governs whether an unhandled panic restarts
		// the actor or stops it.
		return e.handleActorResult(ResultRestart, nil, true)
	}
	ctx := e.newCtx(Address{}, nil)

	result, err, panicked := e.callUnderRecover(func() (ActorResult, error) {
		return hook.OnPanic(ctx, source)
	})
	if !panicked {
		return e.handleActorResult(result, err, true)
	}

	result, err, panicked = e.callUnderRecover(func() (ActorResult, error) {
		return hook.OnPanic(ctx, PanicOnPanic)
	})
	if panicked {
		return e.stopActor(true)
	}
	return e.handleActorResult(result, err, true)
}

// handleActorResult interprets a (ActorResult, error) pair returned by user
// code into the ActorState for this turn. fromPanic records whether the
// result originated from panic recovery, which RestartOnPanic needs to
// decide whether to honor a requested Restart.
func (e *actorExecutor[A]) handleActorResult(result ActorResult, err error, fromPanic bool) ActorState {
	if err != nil {
		result = e.runOnError(err)
	}

	if d, isSleep := result.IsSleep(); isSleep {
		e.lastSleep = d
		return StateSleeping
	}

	switch result {
	case ResultOk:
		return StateRunning
	case ResultStop:
		return e.stopActor(false)
	case ResultKill:
		return e.stopActor(true)
	case ResultRestart:
		if !e.restartAllowed(fromPanic) {
			return e.stopActor(false)
		}
		return e.restartActor()
	default:
		return StateRunning
	}
}

func (e *actorExecutor[A]) restartAllowed(fromPanic bool) bool {
	switch e.cfg.RestartPolicy {
	case RestartNever:
		return false
	case RestartOnPanic:
		return fromPanic
	case RestartAlways:
		return true
	default:
		return false
	}
}

func (e *actorExecutor[A]) runOnError(cause error) ActorResult {
	hook, ok := any(e.actor).(ErrorHandler[A])
	if !ok {
		return ResultKill
	}
	ctx := e.newCtx(Address{}, nil)
	var result ActorResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Warn("panic in OnError", zap.Any("recover", r))
				result = ResultKill
			}
		}()
		result = hook.OnError(ctx, cause)
	}()
	return result
}

// stopActor sets is_stopped and, if immediately is true, runs PostStop and
// reports Stopped right away. A graceful stop (immediately == false) only
// flips the flag; the executor reports Stopped on a later, empty-mailbox
// turn once the queue has drained.
func (e *actorExecutor[A]) stopActor(immediately bool) ActorState {
	e.mbox.setStopped()
	if immediately {
		e.runPostStop()
		return StateStopped
	}
	return StateRunning
}

// restartActor implements the restart protocol: PreRestart, then a fresh
// factory call. The mailbox and address are untouched, so enqueued
// messages survive the restart.
func (e *actorExecutor[A]) restartActor() ActorState {
	ctx := e.newCtx(Address{}, nil)
	if hook, ok := any(e.actor).(Restarter[A]); ok {
		func() {
			defer func() { recover() }()
			hook.PreRestart(ctx)
		}()
	}

	actor, err := safeNewActor(e.factory, ctx)
	if err != nil {
		return e.onActorPanic(PanicRestart)
	}
	e.actor = actor
	e.isStartup = true
	return StateRunning
}

// callUnderRecover runs fn with panic isolation, the pattern used
// throughout this file for every user-code entry point.
func (e *actorExecutor[A]) callUnderRecover(fn func() (ActorResult, error)) (result ActorResult, err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("actor panicked", zap.Any("recover", r), zap.ByteString("stack", debug.Stack()))
			panicked = true
		}
	}()
	result, err = fn()
	return
}

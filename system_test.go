package actorhost

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type actorMetrics struct {
	instancesCreated atomic.Int32
	preStarts        atomic.Int32
	messagesHandled  atomic.Int32
}

type counterActor struct {
	metrics      *actorMetrics
	panicOnCount int
	count        int
}

func (a *counterActor) PreStart(ctx *Context[*counterActor]) (ActorResult, error) {
	a.metrics.preStarts.Add(1)
	return ResultOk, nil
}

func (a *counterActor) Receive(ctx *Context[*counterActor]) (ActorResult, error) {
	a.count++
	a.metrics.messagesHandled.Add(1)
	if a.panicOnCount != 0 && a.count == a.panicOnCount {
		panic("boom")
	}
	return ResultOk, nil
}

func newCounterFactory(m *actorMetrics, panicOnCount int) Factory[*counterActor] {
	return FactoryFunc[*counterActor](func(ctx *Context[*counterActor]) (*counterActor, error) {
		m.instancesCreated.Add(1)
		return &counterActor{metrics: m, panicOnCount: panicOnCount}, nil
	})
}

func newTestSystem(t *testing.T) *System {
	t.Helper()
	s := NewSystem("test-"+t.Name(), zap.NewNop())
	// A short grace period: cleanup only needs to reclaim pool goroutines,
	// not exercise graceful-vs-forced shutdown (see the dedicated exit-code
	// tests for that), and most test actors have no reason to ever stop on
	// their own once SystemStopMessage is broadcast.
	t.Cleanup(func() { _ = s.Stop(50 * time.Millisecond) })
	return s
}

func TestSystem_SpawnAndReceiveMessages(t *testing.T) {
	s := newTestSystem(t)
	m := &actorMetrics{}

	w, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("counter")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Tell("ping"))
	}

	require.Eventually(t, func() bool {
		return m.messagesHandled.Load() == 5
	}, time.Second, time.Millisecond)
}

func TestSystem_PanicRestartsUnderRestartOnPanicPolicy(t *testing.T) {
	s := newTestSystem(t)
	m := &actorMetrics{}

	w, err := NewBuilder[*counterActor](s, newCounterFactory(m, 1)).
		WithRestartPolicy(RestartOnPanic).
		Spawn("panicky")
	require.NoError(t, err)

	require.NoError(t, w.Tell("boom"))

	require.Eventually(t, func() bool {
		return m.instancesCreated.Load() == 2
	}, time.Second, time.Millisecond, "a panic under RestartOnPanic must replace the actor instance")

	assert.False(t, w.IsStopped(), "the restarted actor should still be running")
}

func TestSystem_RestartNeverStopsOnPanic(t *testing.T) {
	s := newTestSystem(t)
	m := &actorMetrics{}

	w, err := NewBuilder[*counterActor](s, newCounterFactory(m, 1)).
		WithRestartPolicy(RestartNever).
		Spawn("fragile")
	require.NoError(t, err)

	require.NoError(t, w.Tell("boom"))

	require.Eventually(t, func() bool {
		return w.IsMailboxStopped()
	}, time.Second, time.Millisecond, "RestartNever must coerce a panic into a stop")

	assert.EqualValues(t, 1, m.instancesCreated.Load())
}

func TestSystem_GracefulStopDrainsMailbox(t *testing.T) {
	s := NewSystem("test-"+t.Name(), zap.NewNop())
	m := &actorMetrics{}

	w, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("drainer")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, w.Tell("x"))
	}
	require.NoError(t, w.Stop())

	require.NoError(t, s.Stop(2*time.Second))
	assert.True(t, s.IsStopped())
	assert.EqualValues(t, 10, m.messagesHandled.Load(), "a graceful Stop must not drop queued messages")
}

type selfLoopActor struct {
	metrics *actorMetrics
}

func (a *selfLoopActor) Receive(ctx *Context[*selfLoopActor]) (ActorResult, error) {
	a.metrics.messagesHandled.Add(1)
	_ = ctx.Self().Tell("again")
	return ResultOk, nil
}

func TestSystem_ForceStopReportsExitCodeOne(t *testing.T) {
	s := NewSystem("test-"+t.Name(), zap.NewNop())
	m := &actorMetrics{}

	w, err := NewBuilder[*selfLoopActor](s, FactoryFunc[*selfLoopActor](
		func(ctx *Context[*selfLoopActor]) (*selfLoopActor, error) {
			return &selfLoopActor{metrics: m}, nil
		},
	)).Spawn("looper")
	require.NoError(t, err)
	require.NoError(t, w.Tell("start"))

	require.NoError(t, s.Stop(100*time.Millisecond))

	assert.True(t, s.IsStopped())
	assert.True(t, s.IsForceStopped())
	assert.Equal(t, 1, s.ExitCode())
}

func TestSystem_CleanStopReportsExitCodeZero(t *testing.T) {
	s := NewSystem("test-"+t.Name(), zap.NewNop())
	m := &actorMetrics{}

	w, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("idle")
	require.NoError(t, err)
	require.NoError(t, w.Stop())

	require.NoError(t, s.Stop(time.Second))

	assert.False(t, s.IsForceStopped())
	assert.Equal(t, 0, s.ExitCode())
}

func TestSystem_SendToAddressReachesRegisteredActor(t *testing.T) {
	s := newTestSystem(t)
	m := &actorMetrics{}

	w, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("addressed")
	require.NoError(t, err)

	require.NoError(t, s.SendToAddress(Address{}, w.Address(), "via-address"))

	require.Eventually(t, func() bool {
		return m.messagesHandled.Load() == 1
	}, time.Second, time.Millisecond)
}

func TestSystem_SendAfterDelaysDelivery(t *testing.T) {
	s := newTestSystem(t)
	m := &actorMetrics{}

	w, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("delayed")
	require.NoError(t, err)

	require.NoError(t, s.SendAfter(w.Address(), "later", 60*time.Millisecond))

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, m.messagesHandled.Load(), "message must not arrive before its delay elapses")

	require.Eventually(t, func() bool {
		return m.messagesHandled.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBuilder_SameTypeRespawnReturnsExistingHandle(t *testing.T) {
	s := newTestSystem(t)
	m := &actorMetrics{}

	first, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("dup")
	require.NoError(t, err)

	second, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("dup")
	require.NoError(t, err)

	assert.Equal(t, first.Address(), second.Address())
	assert.EqualValues(t, 1, m.instancesCreated.Load(), "a same-type respawn must not construct a second actor instance")

	require.NoError(t, second.Tell("ping"))
	require.Eventually(t, func() bool {
		return m.messagesHandled.Load() == 1
	}, time.Second, time.Millisecond, "the returned handle must address the original actor instance")
}

type otherActor struct{}

func (a *otherActor) Receive(ctx *Context[*otherActor]) (ActorResult, error) {
	return ResultOk, nil
}

func TestBuilder_TypeMismatchRespawnRejected(t *testing.T) {
	s := newTestSystem(t)
	m := &actorMetrics{}

	_, err := NewBuilder[*counterActor](s, newCounterFactory(m, 0)).Spawn("dup-type")
	require.NoError(t, err)

	_, err = NewBuilder[*otherActor](s, FactoryFunc[*otherActor](
		func(ctx *Context[*otherActor]) (*otherActor, error) { return &otherActor{}, nil },
	)).Spawn("dup-type")
	assert.ErrorIs(t, err, ErrInvalidActorType)
}

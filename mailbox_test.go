package actorhost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyActor struct{}

func (dummyActor) Receive(ctx *Context[dummyActor]) (ActorResult, error) {
	return ResultOk, nil
}

func TestMailbox_BoundedSendAndRecv(t *testing.T) {
	m := newMailbox[dummyActor](1)

	require.NoError(t, m.send(envelope{message: "a"}, time.Millisecond))

	err := m.send(envelope{message: "b"}, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrSendTimeout)

	env, ok := m.tryRecv()
	require.True(t, ok)
	assert.Equal(t, "a", env.message)

	_, ok = m.tryRecv()
	assert.False(t, ok)
}

func TestMailbox_UnboundedNeverBlocks(t *testing.T) {
	m := newMailbox[dummyActor](0)

	for i := 0; i < 10_000; i++ {
		require.NoError(t, m.send(envelope{message: i}, time.Millisecond))
	}
	assert.Equal(t, 10_000, m.mailboxLen())

	env, ok := m.tryRecv()
	require.True(t, ok)
	assert.Equal(t, 0, env.message)
}

func TestMailbox_StoppedRejectsSends(t *testing.T) {
	m := newMailbox[dummyActor](4)
	m.setStopped()

	err := m.send(envelope{message: "x"}, time.Millisecond)
	assert.ErrorIs(t, err, ErrAlreadyStopped)
}

func TestMailbox_SleepingFlag(t *testing.T) {
	m := newMailbox[dummyActor](4)
	assert.True(t, m.isSleeping(), "mailbox starts sleeping until its first turn")

	m.setSleeping(false)
	assert.False(t, m.isSleeping())
}

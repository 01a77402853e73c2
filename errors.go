package actorhost

import (
	"errors"
	"fmt"
)

// Send errors.
var (
	// ErrAlreadyStopped is returned by Send when the target mailbox's
	// is_stopped flag is set; the flag is terminal, so this error never
	// clears for a given actor.
	ErrAlreadyStopped = errors.New("actorhost: mailbox already stopped")
	// ErrSendTimeout is returned when a bounded mailbox stays full for the
	// caller's send timeout.
	ErrSendTimeout = errors.New("actorhost: send timed out")
	// ErrNotAllowedForRemoteActor is returned for operations that only make
	// sense against a locally hosted actor.
	ErrNotAllowedForRemoteActor = errors.New("actorhost: not allowed for remote actor")
)

// Lifecycle errors.
var (
	// ErrInitFailed is returned by Builder.Spawn when the actor factory
	// panics or errors while constructing the actor value.
	ErrInitFailed = errors.New("actorhost: actor failed to initialize")
	// ErrInvalidActorType is returned by Builder.Spawn when the requested
	// address is already registered to an actor of a different type.
	ErrInvalidActorType = errors.New("actorhost: address registered to a different actor type")
)

// panicError wraps a recovered panic value so it can travel through the
// normal (ActorResult, error) return path as an ordinary error.
type panicError struct {
	value any
	stack []byte
}

func newPanicError(value any, stack []byte) error {
	return &panicError{value: value, stack: stack}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("actorhost: panic: %v", e.value)
}

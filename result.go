package actorhost

import (
	"fmt"
	"time"
)

// resultKind is the tag of the ActorResult sum type.
type resultKind int

const (
	kindOk resultKind = iota
	kindStop
	kindRestart
	kindKill
	kindSleep
)

// ActorResult is returned by an actor's message handling to tell the
// executor how to proceed. It behaves like a small closed sum type: the
// four bare values are directly comparable with ==, and Sleep(d) is the one
// variant built through a constructor because it carries data.
type ActorResult struct {
	kind     resultKind
	duration time.Duration
}

var (
	// ResultOk continues processing messages normally.
	ResultOk = ActorResult{kind: kindOk}
	// ResultStop locks the mailbox against new sends and terminates once it
	// drains.
	ResultStop = ActorResult{kind: kindStop}
	// ResultRestart recreates the actor value via its Factory, preserving
	// address and mailbox contents.
	ResultRestart = ActorResult{kind: kindRestart}
	// ResultKill stops immediately, discarding any remaining mailbox
	// contents.
	ResultKill = ActorResult{kind: kindKill}
)

// Sleep returns an ActorResult that pauses message processing on the
// actor for the given duration.
func Sleep(d time.Duration) ActorResult {
	return ActorResult{kind: kindSleep, duration: d}
}

// IsSleep reports whether r is a Sleep(d) result and, if so, returns d.
func (r ActorResult) IsSleep() (time.Duration, bool) {
	if r.kind == kindSleep {
		return r.duration, true
	}
	return 0, false
}

// ActorState is the outcome of one scheduling turn, reported back to the
// thread pool worker that ran it.
type ActorState int

const (
	StateRunning ActorState = iota
	StateInactive
	StateStopped
	StateSleeping
)

func (s ActorState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateInactive:
		return "inactive"
	case StateStopped:
		return "stopped"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// RestartPolicy gates whether a Restart result is honored after a panic.
type RestartPolicy int

const (
	// RestartNever coerces any Restart into a Stop.
	RestartNever RestartPolicy = iota
	// RestartOnPanic permits a restart only when the result originated from
	// panic recovery.
	RestartOnPanic
	// RestartAlways always permits a restart, whether requested by a
	// handler directly or by panic recovery.
	RestartAlways
)

func (p RestartPolicy) String() string {
	switch p {
	case RestartNever:
		return "never"
	case RestartOnPanic:
		return "on_panic"
	case RestartAlways:
		return "always"
	default:
		return "unknown"
	}
}

// ParseRestartPolicy maps the config-file spelling onto a RestartPolicy.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch s {
	case "Never", "never":
		return RestartNever, nil
	case "OnPanic", "on_panic":
		return RestartOnPanic, nil
	case "Always", "always":
		return RestartAlways, nil
	default:
		return RestartNever, fmt.Errorf("actorhost: unknown restart policy %q", s)
	}
}

// PanicSource distinguishes which phase of the turn produced a panic, so
// OnPanic handlers can react differently.
type PanicSource int

const (
	PanicPreStart PanicSource = iota
	PanicMessage
	PanicRestart
	PanicOnPanic
)

func (s PanicSource) String() string {
	switch s {
	case PanicPreStart:
		return "pre_start"
	case PanicMessage:
		return "message"
	case PanicRestart:
		return "restart"
	case PanicOnPanic:
		return "on_panic"
	default:
		return "unknown"
	}
}

package actorhost

// DefaultMailboxSize, DefaultMessageThroughput mirror the system's default
// actor Config, applied by NewBuilder before any With* override.
const (
	DefaultMailboxSize       = 1024
	DefaultMessageThroughput = 20
)

// Builder configures and spawns one actor of type A. A fresh Builder is
// created per spawn; its With* methods return the same value for chaining.
type Builder[A Actor[A]] struct {
	system  *System
	factory Factory[A]
	cfg     Config
}

// NewBuilder starts a Builder for actor type A backed by factory, with the
// system's defaults applied.
func NewBuilder[A Actor[A]](system *System, factory Factory[A]) *Builder[A] {
	return &Builder[A]{
		system:  system,
		factory: factory,
		cfg:     system.defaultActorCfg,
	}
}

// WithPool targets a non-default, previously registered pool.
func (b *Builder[A]) WithPool(name string) *Builder[A] {
	b.cfg.PoolName = name
	return b
}

// WithMailboxSize overrides the mailbox capacity; 0 means unbounded.
func (b *Builder[A]) WithMailboxSize(n int) *Builder[A] {
	b.cfg.MailboxSize = n
	return b
}

// WithMessageThroughput overrides how many messages one scheduling turn
// may process before yielding the worker to another actor.
func (b *Builder[A]) WithMessageThroughput(n int) *Builder[A] {
	b.cfg.MessageThroughput = n
	return b
}

// WithRestartPolicy overrides the default RestartOnPanic policy.
func (b *Builder[A]) WithRestartPolicy(p RestartPolicy) *Builder[A] {
	b.cfg.RestartPolicy = p
	return b
}

// Spawn creates and registers the actor under system/pool/actorName,
// running its PreStart hook on the first scheduling turn. If the address is
// already registered to an actor of the same type A, Spawn returns the
// existing handle instead of creating a second one (the Go equivalent of
// get_actor_ref). It fails with ErrInvalidActorType only when the address
// is already registered to a different actor type, and wraps any factory
// panic or error in ErrInitFailed.
func (b *Builder[A]) Spawn(actorName string) (*Wrapper[A], error) {
	addr := NewAddress(b.system.name, b.cfg.PoolName, actorName)
	if mboxHandle, exists := b.system.reg.lookupMailbox(addr); exists {
		return b.existingWrapper(addr, mboxHandle)
	}

	pool, err := b.system.pool(b.cfg.PoolName)
	if err != nil {
		return nil, err
	}

	mbox := newMailbox[A](b.cfg.MailboxSize)
	wrapper := &Wrapper[A]{addr: addr, mbox: mbox, pool: pool}

	exec, err := newActorExecutor(b.system, addr, b.cfg, mbox, wrapper, b.factory)
	if err != nil {
		return nil, err
	}
	wrapper.exec = exec

	b.system.reg.register(addr, mbox, exec)
	pool.enqueue(exec)
	return wrapper, nil
}

// existingWrapper recovers a typed *Wrapper[A] for an address already
// registered by a previous Spawn, by type-asserting the erased mailbox and
// executor handles back to their concrete type. A mismatch means addr was
// spawned with a different actor type, which is the one case Spawn still
// rejects.
func (b *Builder[A]) existingWrapper(addr Address, mboxHandle mailboxHandle) (*Wrapper[A], error) {
	mbox, ok := mboxHandle.(*mailbox[A])
	if !ok {
		return nil, ErrInvalidActorType
	}
	execHandle, ok := b.system.reg.lookupExecutor(addr)
	if !ok {
		return nil, ErrInvalidActorType
	}
	exec, ok := execHandle.(*actorExecutor[A])
	if !ok {
		return nil, ErrInvalidActorType
	}
	pool, err := b.system.pool(exec.config().PoolName)
	if err != nil {
		return nil, err
	}
	return &Wrapper[A]{addr: addr, mbox: mbox, exec: exec, pool: pool}, nil
}

package actorhost

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lguibr/actorhost/actorlog"
	"github.com/lguibr/actorhost/config"
)

// DefaultPoolName is the pool every Builder targets unless WithPool
// overrides it.
const DefaultPoolName = "default"

// System is the root handle for a running actor system: it owns the
// registry, the named thread pools, and the internal delay dispatcher. A
// System is created through NewSystem and is safe for concurrent use by
// every actor and external caller holding a reference to it.
type System struct {
	name       string
	instanceID uuid.UUID
	log        *zap.Logger

	reg             *registry
	poolsMu         sync.RWMutex
	pools           map[string]*threadPool
	defaultCfg      PoolConfig
	defaultActorCfg Config
	delay           *delayDispatcher

	stopping atomic.Bool
	stopped  atomic.Bool
}

// NewSystem creates a system named name, with its default pool already
// running and its internal delay dispatcher started, using built-in
// defaults for pool sizing and actor configuration. Use NewSystemFromConfig
// to load those defaults from config instead.
func NewSystem(name string, log *zap.Logger) *System {
	return newSystem(name, log, DefaultPoolConfig(), Config{
		PoolName:          DefaultPoolName,
		MailboxSize:       DefaultMailboxSize,
		MessageThroughput: DefaultMessageThroughput,
		RestartPolicy:     RestartOnPanic,
	})
}

// NewSystemFromConfig loads actorhost's layered configuration (embedded
// defaults, optional config/<systemName>.toml, ACTORHOST_ environment
// overrides) and builds a System and logger from it. Pass "" to use the
// configured system.name instead (its $HOSTNAME sentinel resolved, or the
// built-in default when empty).
func NewSystemFromConfig(systemName string) (*System, *config.Settings, error) {
	settings, err := config.Load(systemName)
	if err != nil {
		return nil, nil, err
	}
	log, err := actorlog.New(settings.Log)
	if err != nil {
		return nil, nil, err
	}

	poolCfg := DefaultPoolConfig()
	if pc, ok := settings.Pool[DefaultPoolName]; ok {
		poolCfg = PoolConfig{ThreadsFactor: pc.ThreadsFactor, ThreadsMin: pc.ThreadsMin, ThreadsMax: pc.ThreadsMax}
	}

	restartPolicy, err := ParseRestartPolicy(settings.Actor.RestartPolicy)
	if err != nil {
		restartPolicy = RestartOnPanic
	}
	actorCfg := Config{
		PoolName:          DefaultPoolName,
		MailboxSize:       settings.Actor.MailboxSize,
		MessageThroughput: settings.Actor.MessageThroughput,
		RestartPolicy:     restartPolicy,
	}

	s := newSystem(settings.System.Name, log, poolCfg, actorCfg)
	return s, settings, nil
}

func newSystem(name string, log *zap.Logger, poolCfg PoolConfig, actorCfg Config) *System {
	instanceID := uuid.New()
	s := &System{
		name:            name,
		instanceID:      instanceID,
		log:             log.With(zap.String("system", name), zap.String("instance", instanceID.String())),
		reg:             newRegistry(),
		pools:           make(map[string]*threadPool),
		defaultCfg:      poolCfg,
		defaultActorCfg: actorCfg,
	}
	if err := s.AddPool(DefaultPoolName); err != nil {
		// The default pool can only fail to register if called twice;
		// newSystem is the only caller, at construction time.
		panic(err)
	}
	s.delay = newDelayDispatcher(s, 4)
	return s
}

func (s *System) logger() *zap.Logger { return s.log }

func (s *System) isStopping() bool { return s.stopping.Load() }

// AddPool registers a new named pool with the system's default sizing.
func (s *System) AddPool(name string) error {
	return s.AddPoolWithConfig(name, s.defaultCfg)
}

// AddPoolWithConfig registers a new named pool with explicit sizing.
func (s *System) AddPoolWithConfig(name string, cfg PoolConfig) error {
	s.poolsMu.Lock()
	defer s.poolsMu.Unlock()
	if _, exists := s.pools[name]; exists {
		return fmt.Errorf("actorhost: pool %q already registered", name)
	}
	s.pools[name] = newThreadPool(name, cfg, s.log, s.isStopping, s.onActorStopped)
	return nil
}

func (s *System) pool(name string) (*threadPool, error) {
	s.poolsMu.RLock()
	defer s.poolsMu.RUnlock()
	p, ok := s.pools[name]
	if !ok {
		return nil, fmt.Errorf("actorhost: unknown pool %q", name)
	}
	return p, nil
}

func (s *System) onActorStopped(exec executor) {
	s.reg.unregister(exec.address())
}

// SendToAddress delivers msg to whatever is registered at addr, without
// requiring the caller to know the actor's concrete type. It is the
// system-level counterpart of Wrapper.Send, used for cross-cutting code
// (the delay dispatcher, external ingress) that only has an Address.
func (s *System) SendToAddress(sender Address, addr Address, msg Message) error {
	if !addr.IsLocal() {
		return ErrNotAllowedForRemoteActor
	}
	mbox, ok := s.reg.lookupMailbox(addr)
	if !ok {
		return ErrAlreadyStopped
	}
	err := mbox.deliver(sender, msg)
	if err == nil && mbox.isSleeping() {
		if exec, ok := s.reg.lookupExecutor(addr); ok {
			p, perr := s.pool(exec.config().PoolName)
			if perr == nil {
				p.wakeups.requestWakeup(exec)
			}
		}
	}
	return err
}

// SendAfter asks the internal delay dispatcher to deliver msg to addr
// once delay has elapsed.
func (s *System) SendAfter(addr Address, msg Message, delay time.Duration) error {
	return s.delay.sendAfter(addr, msg, delay)
}

// ActorCount returns the number of actors currently registered across all
// pools.
func (s *System) ActorCount() int {
	return s.reg.count()
}

// Stop begins a graceful shutdown: every actor receives SystemStopMessage
// on its next scheduling turn, and Stop polls every d/10 for all actors to
// report stopped, force-stopping (discarding any still-running actor)
// once d has elapsed.
func (s *System) Stop(d time.Duration) error {
	if !s.stopping.CompareAndSwap(false, true) {
		return nil
	}
	s.nudgeAllForSystemStop()

	interval := d / 10
	if interval <= 0 {
		interval = time.Millisecond
	}
	deadline := time.Now().Add(d)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if s.reg.allStopped() {
			s.finishStop()
			return nil
		}
		if time.Now().After(deadline) {
			s.reg.isForceStopped.Store(true)
			s.finishStop()
			return nil
		}
		<-ticker.C
	}
}

// nudgeAllForSystemStop guarantees every registered actor gets at least one
// more scheduling turn now that isStopping is true, even if it was parked
// sleeping or inactive off the run queue. runTurn's own systemIsStopping
// check (executor.go) is what actually enqueues SystemStopMessage into the
// actor's mailbox, exactly once per actor; this just makes sure that check
// runs instead of waiting on an unrelated wake-up.
func (s *System) nudgeAllForSystemStop() {
	for _, exec := range s.reg.snapshotExecutors() {
		if exec.isStopped() {
			continue
		}
		p, err := s.pool(exec.config().PoolName)
		if err != nil {
			continue
		}
		p.enqueue(exec)
	}
}

func (s *System) finishStop() {
	s.poolsMu.RLock()
	defer s.poolsMu.RUnlock()
	for _, p := range s.pools {
		p.shutdown()
	}
	s.stopped.Store(true)
}

// IsStopped reports whether Stop has finished shutting down every pool.
func (s *System) IsStopped() bool { return s.stopped.Load() }

// IsForceStopped reports whether Stop's grace period elapsed before every
// actor reported stopped.
func (s *System) IsForceStopped() bool { return s.reg.isForceStopped.Load() }

// ExitCode mirrors the process exit status a supervising binary should use
// after Stop returns: 0 for a clean shutdown within the grace period, 1 if
// it had to force-stop.
func (s *System) ExitCode() int {
	if s.reg.isForceStopped.Load() {
		return 1
	}
	return 0
}

// InstanceID returns the unique identifier generated when this System was
// created, useful for correlating logs across multiple systems running in
// the same process during tests.
func (s *System) InstanceID() string { return s.instanceID.String() }

// Name returns the system's resolved name.
func (s *System) Name() string { return s.name }

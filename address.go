package actorhost

import "fmt"

// LocalRemote is the remote identifier used for in-process actors.
const LocalRemote = "local"

// Address is the stable, hashable identifier of a mailbox. It is a plain
// comparable struct so it can be used directly as a map key and compared
// with ==.
type Address struct {
	Remote string
	System string
	Pool   string
	Actor  string
}

// NewAddress builds a local address within the given system/pool.
func NewAddress(system, pool, actor string) Address {
	return Address{Remote: LocalRemote, System: system, Pool: pool, Actor: actor}
}

// IsLocal reports whether the address refers to an actor hosted by this
// process rather than a remote cluster member.
func (a Address) IsLocal() bool {
	return a.Remote == LocalRemote
}

func (a Address) String() string {
	return fmt.Sprintf("%s://%s/%s/%s", a.Remote, a.System, a.Pool, a.Actor)
}

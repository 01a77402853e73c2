package actorhost

// Context is the cheap bundle of self-handle and system façade passed to
// every handler invocation. One Context[A] is created per dispatched
// message (and per lifecycle hook call); it is never retained past the
// call that received it.
type Context[A Actor[A]] struct {
	self    *Wrapper[A]
	sender  Address
	message Message
	system  *System
}

// Self returns the typed handle the actor can use to message itself.
func (c *Context[A]) Self() *Wrapper[A] { return c.self }

// Sender returns the address of whoever sent the message being processed.
// It is the zero Address if the message was sent without a sender (Tell,
// or Send/SendToAddress given a zero sender) and for lifecycle hook calls.
func (c *Context[A]) Sender() Address { return c.sender }

// Message returns the payload currently being dispatched.
func (c *Context[A]) Message() Message { return c.message }

// System returns the owning ActorSystem façade, letting a handler spawn
// siblings, send by address, or request a system-wide stop.
func (c *Context[A]) System() *System { return c.system }

func newContext[A Actor[A]](system *System, self *Wrapper[A], sender Address, message Message) *Context[A] {
	return &Context[A]{system: system, self: self, sender: sender, message: message}
}

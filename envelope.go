package actorhost

// dispatch is the envelope's single operation: bind a concrete message to a
// call into the actor's handler. Built-in message kinds are intercepted
// here, before Actor.Receive is ever invoked with them, so every actor
// automatically understands the reserved message kinds without writing a
// type switch for them itself.
func dispatch[A Actor[A]](actor A, ctx *Context[A]) (ActorResult, error) {
	switch msg := ctx.message.(type) {
	case StopMessage:
		return dispatchActorStop(actor, ctx)
	case SystemStopMessage:
		if h, ok := any(actor).(SystemStopHandler[A]); ok {
			return h.OnSystemStop(ctx)
		}
		return ResultOk, nil
	case SleepMessage:
		return Sleep(msg.Duration), nil
	case SerializedMessage:
		if h, ok := any(actor).(SerializedHandler[A]); ok {
			return h.HandleSerialized(msg, ctx)
		}
		return ResultOk, nil
	case BulkMessage:
		for _, item := range msg.Items {
			inner := *ctx
			inner.message = item
			result, err := dispatch(actor, &inner)
			if err != nil {
				return result, err
			}
			if sleepDur, isSleep := result.IsSleep(); isSleep {
				return Sleep(sleepDur), nil
			}
			if result != ResultOk {
				return result, nil
			}
		}
		return ResultOk, nil
	default:
		return actor.Receive(ctx)
	}
}

// dispatchActorStop enforces that OnActorStop can't keep an actor alive:
// any result other than Stop/Kill returned from it is forced to Stop.
func dispatchActorStop[A Actor[A]](actor A, ctx *Context[A]) (ActorResult, error) {
	h, ok := any(actor).(ActorStopHandler[A])
	if !ok {
		return ResultStop, nil
	}
	result, err := h.OnActorStop(ctx)
	if err != nil {
		return result, err
	}
	if result != ResultStop && result != ResultKill {
		return ResultStop, nil
	}
	return result, nil
}

package simcore

import "github.com/desim/simcore/directory"

// EventHandler is the callback-mode interface for components (spec.md §4
// "GLOSSARY: Handler"). The driver invokes On only for events that no
// pending await claimed (spec.md §4.4 step 6). Callback handlers get an
// exclusive, mutable view of the component because nothing else runs
// concurrently with On — the simulation is single-threaded cooperative
// (spec.md §5).
type EventHandler interface {
	On(event Event)
}

// StaticEventHandler is the async-mode counterpart of EventHandler, for
// components whose spawned tasks share the handler; Spawn itself works on
// any context, with or without a handler. It is registered via
// Simulation.AddStaticHandler instead of AddHandler. Unlike EventHandler,
// its On method must be safe to call through a shared reference, because
// the component may have outstanding spawned tasks that also hold
// references to it (spec.md §5 "Resource ownership": "static handlers
// expose only shared-reference methods so that handler methods can
// re-enter the simulation API safely").
type StaticEventHandler interface {
	On(event Event)
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc func(event Event)

func (f HandlerFunc) On(event Event) { f(event) }

// EventCancellationPolicy controls what happens to a component's pending
// events when its handler is removed (spec.md §3 "Cancellation policy").
// Defined canonically in the directory package and applied by
// Simulation.RemoveHandler; re-exported here so callers never need to
// import simcore/directory directly.
type EventCancellationPolicy = directory.EventCancellationPolicy

const (
	CancelNone     = directory.CancelNone
	CancelIncoming = directory.CancelIncoming
	CancelOutgoing = directory.CancelOutgoing
	CancelBoth     = directory.CancelBoth
)

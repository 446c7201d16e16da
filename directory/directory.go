// Package directory implements the component directory of spec.md §4.3:
// it allocates component ids, maps names to ids, and holds at most one
// handler per id. It is split out of the root simcore package — unlike the
// async executor and await registry, which must reach directly into
// dispatch-time state on every step, the directory is a clean,
// self-contained name↔id↔handler table with no dispatch-time coupling,
// mirroring how the teacher framework extracts its own registry package
// (registry/registry.go) while keeping dispatch-coupled logic at the root.
//
// Handlers are stored as `any` rather than a concrete interface type so
// that this package never needs to import the root package's Event type,
// avoiding an import cycle; the root package asserts the stored handler
// back to its EventHandler/StaticEventHandler interfaces.
package directory

import (
	"errors"
	"fmt"
)

// Id identifies a component. Mirrors simcore.Id; kept as a distinct named
// type (uint32) rather than importing the root package.
type Id uint32

// Kind distinguishes the flavor of handler bound to a component, the
// "tagged variant" of spec.md §9 ("Dynamic dispatch of handlers").
type Kind int

const (
	// KindNone is an emit-only component: it has a context but no handler,
	// so any event routed to it is a routing fatal unless an awaiter
	// claims it first.
	KindNone Kind = iota
	// KindCallback is an EventHandler, invoked with exclusive access.
	KindCallback
	// KindStatic is a StaticEventHandler, invoked through a shared
	// reference; used by components whose spawned async tasks share the
	// handler. Spawning does not depend on the handler kind.
	KindStatic
)

// EventCancellationPolicy controls what happens to a component's pending
// events when its handler is removed (spec.md §3 "Cancellation policy").
// Defined here (rather than in the root package) so the root package can
// re-export it as a type alias; the root package's Simulation.RemoveHandler
// is what applies it to the event queue. Directory.RemoveHandler itself
// takes no policy.
type EventCancellationPolicy int

const (
	CancelNone EventCancellationPolicy = iota
	CancelIncoming
	CancelOutgoing
	CancelBoth
)

func (p EventCancellationPolicy) CancelsIncoming() bool {
	return p == CancelIncoming || p == CancelBoth
}

func (p EventCancellationPolicy) CancelsOutgoing() bool {
	return p == CancelOutgoing || p == CancelBoth
}

// Errors returned to the caller for it to turn into the engine's fatal
// panics; this package stays policy-free about how callers report errors.
var (
	ErrDuplicateName = errors.New("directory: component name already registered")
	ErrUnknownName   = errors.New("directory: unknown component name")
	ErrHasHandler    = errors.New("directory: component already has a handler")
	ErrUnknownId     = errors.New("directory: unknown component id")
)

// entry is one row of the directory.
type entry struct {
	id      Id
	name    string
	kind    Kind
	handler any
}

// Directory is the component directory: name↔id mapping plus a single
// handler slot per id. Safe for single-threaded use only, matching the
// rest of the engine's concurrency model (spec.md §5) — no internal
// locking, since exactly one goroutine ever drives a Simulation.
type Directory struct {
	byName map[string]*entry
	byId   []*entry // dense, indexed by Id
}

// New creates an empty component directory.
func New() *Directory {
	return &Directory{byName: make(map[string]*entry)}
}

// Create allocates a new id for name and returns it. name must not already
// exist.
func (d *Directory) Create(name string) (Id, error) {
	if _, exists := d.byName[name]; exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	id := Id(len(d.byId))
	e := &entry{id: id, name: name, kind: KindNone}
	d.byName[name] = e
	d.byId = append(d.byId, e)
	return id, nil
}

// SetHandler binds a callback-mode handler to name. name must already
// exist (via Create) and must not already carry a handler.
func (d *Directory) SetHandler(name string, handler any) (Id, error) {
	return d.setHandler(name, handler, KindCallback)
}

// SetStaticHandler binds an async-mode (shared-reference) handler to name.
func (d *Directory) SetStaticHandler(name string, handler any) (Id, error) {
	return d.setHandler(name, handler, KindStatic)
}

func (d *Directory) setHandler(name string, handler any, kind Kind) (Id, error) {
	e, exists := d.byName[name]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	if e.kind != KindNone {
		return 0, fmt.Errorf("%w: %s", ErrHasHandler, name)
	}
	e.kind = kind
	e.handler = handler
	return e.id, nil
}

// RemoveHandler detaches the handler bound to id, if any, leaving the
// directory entry (and thus the id/name mapping) in place so any events
// already addressed to it can still be resolved to a name. Returns
// ErrUnknownId if id was never created.
func (d *Directory) RemoveHandler(id Id) error {
	e, err := d.lookup(id)
	if err != nil {
		return err
	}
	e.kind = KindNone
	e.handler = nil
	return nil
}

// Lookup returns the handler bound to id, its kind, and whether id exists
// at all in the directory.
func (d *Directory) Lookup(id Id) (handler any, kind Kind, ok bool) {
	if int(id) >= len(d.byId) {
		return nil, KindNone, false
	}
	e := d.byId[id]
	return e.handler, e.kind, true
}

// NameOf returns the name bound to id.
func (d *Directory) NameOf(id Id) (string, bool) {
	if int(id) >= len(d.byId) {
		return "", false
	}
	return d.byId[id].name, true
}

// IdOf returns the id bound to name.
func (d *Directory) IdOf(name string) (Id, bool) {
	e, ok := d.byName[name]
	if !ok {
		return 0, false
	}
	return e.id, true
}

func (d *Directory) lookup(id Id) (*entry, error) {
	if int(id) >= len(d.byId) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownId, id)
	}
	return d.byId[id], nil
}

// Len returns the number of created components (whether or not they
// currently carry a handler).
func (d *Directory) Len() int { return len(d.byId) }

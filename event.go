package simcore

import (
	"encoding/json"
	"reflect"
)

// Event is the unit of delivery in a simulation: a timestamp, the ids of
// source and destination components, a strictly-increasing sequence number
// used to break ties, and an opaque user payload (spec.md §3 "Event").
//
// Once enqueued an Event's (Time, Seq) pair never changes; the only way to
// affect a pending event is CancelEvent.
type Event struct {
	Seq  EventId
	Time float64
	Src  Id
	Dst  Id
	Data any
}

// Serializable is an optional interface payload types may implement so
// that instrumentation (instrument.go) can log a faithful representation
// of the payload without the core ever interpreting its contents
// (spec.md §6: "payloads are opaque to the engine"). Types that don't
// implement it fall back to encoding/json.Marshal on a best-effort basis.
type Serializable interface {
	MarshalSimEvent() ([]byte, error)
}

func marshalPayload(v any) []byte {
	if s, ok := v.(Serializable); ok {
		if b, err := s.MarshalSimEvent(); err == nil {
			return b
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(`"<unserializable>"`)
	}
	return b
}

// eventTypeTag is the identifier of a payload type, backed by reflect.Type
// because Go's type system already hands out a single canonical *rtype per
// concrete type. Tags are derived from type identity wherever they are
// needed: typeTagOf for awaits and key getters, and reflect.TypeOf on the
// payload when Step delivers an event. There is no separate payload type
// registration step; only key extractors are registered explicitly.
type eventTypeTag struct {
	rt reflect.Type
}

func typeTagOf[T any]() eventTypeTag {
	var zero T
	return eventTypeTag{rt: reflect.TypeOf(&zero).Elem()}
}

func (t eventTypeTag) String() string {
	return t.rt.String()
}

// keyExtractor is the type-erased form of a user's func(T) EventKey,
// stored in the registry alongside the eventTypeTag it was registered for.
type keyExtractor struct {
	fn    func(any) EventKey
	fnPtr uintptr
}

// typeRegistry is the payload type registry of spec.md §4.2. One instance
// lives on the Simulation; Contexts reach it through the central state so
// registration is always scoped to a single simulation instance
// (spec.md §9 "no true globals").
type typeRegistry struct {
	extractors map[eventTypeTag]*keyExtractor
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{extractors: make(map[eventTypeTag]*keyExtractor)}
}

// RegisterKeyGetter installs fn as the key extractor for T. Re-registering
// the same function pointer for the same type is idempotent (spec.md §7);
// registering a different function for a type that already has one is
// fatal (spec.md §3). This is SimulationContext::register_key_getter_for
// from spec.md §4.7, exposed at the Simulation level since the registry is
// simulation-wide.
func RegisterKeyGetter[T any](sim *Simulation, fn func(T) EventKey) {
	tag := typeTagOf[T]()
	ptr := reflect.ValueOf(fn).Pointer()

	reg := sim.types
	if existing, ok := reg.extractors[tag]; ok {
		if existing.fnPtr == ptr {
			sim.logger.Debug("key getter re-registered (idempotent)", "type", tag.String())
			return
		}
		sim.fatal(ErrConflictingKeyExtractor, tag.String())
		return
	}
	if sim.await.hasUnkeyedAwait(tag) {
		sim.fatal(ErrKeyedUnkeyedMix, tag.String())
		return
	}
	reg.extractors[tag] = &keyExtractor{
		fn: func(v any) EventKey {
			return fn(v.(T))
		},
		fnPtr: ptr,
	}
}

// extractKey returns the EventKey for a payload of the given tag, and
// whether a key extractor is registered for that tag at all.
func (r *typeRegistry) extractKey(tag eventTypeTag, payload any) (EventKey, bool) {
	ex, ok := r.extractors[tag]
	if !ok {
		return 0, false
	}
	return ex.fn(payload), true
}

func (r *typeRegistry) hasKeyGetter(tag eventTypeTag) bool {
	_, ok := r.extractors[tag]
	return ok
}

// Cast attempts to deliver event.Data as type T to fn, returning true if
// the payload was of type T. It is the Go-generics equivalent of the
// original Rust cast! macro used throughout spec.md §2's example
// (original_source/src/lib.rs): a callback handler built from a sequence
// of Cast calls reads like a match arm per event type instead of a manual
// type switch.
func Cast[T any](event Event, fn func(T)) bool {
	v, ok := event.Data.(T)
	if !ok {
		return false
	}
	fn(v)
	return true
}

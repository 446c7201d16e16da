package simcore

import "github.com/golobby/cast"

// RegisterKeyGetterAny registers a key extractor whose return value is not
// already typed as EventKey — any integer or numeric-string-producing
// function works. The returned value is coerced to EventKey via
// github.com/golobby/cast, so user code can write the natural return type
// for its domain (an int, a string order id, a uint32 slot number, ...)
// instead of being forced to return EventKey/uint64 directly.
//
// RegisterKeyGetter (event.go) is the primary, zero-overhead path when the
// extractor already produces an EventKey; this is the ergonomic path for
// everything else.
func RegisterKeyGetterAny[T any](sim *Simulation, fn func(T) any) {
	RegisterKeyGetter(sim, func(v T) EventKey {
		raw := fn(v)
		if k, ok := raw.(EventKey); ok {
			return k
		}
		u, err := cast.ToUint64E(raw)
		if err != nil {
			sim.logger.Warn("key extractor returned non-numeric value, defaulting to 0", "type", typeTagOf[T]().String(), "error", err)
			return 0
		}
		return EventKey(u)
	})
}

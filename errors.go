package simcore

import "errors"

// Sentinel errors wrapped by FatalError, matching the error taxonomy of
// spec.md §7. The engine never attempts to recover from these: a fatal
// condition means the caller's model is misconfigured, not that the engine
// hit a transient failure.
var (
	// ErrDuplicateComponentName is fatal: component names must be unique.
	ErrDuplicateComponentName = errors.New("simcore: component name already registered")

	// ErrUnknownComponentName is fatal: a handler was added under a name,
	// or a handler removal gave an id, that was never created via
	// CreateContext.
	ErrUnknownComponentName = errors.New("simcore: unknown component name")

	// ErrHandlerAlreadySet is fatal: a component may carry at most one
	// handler; replacing it is disallowed.
	ErrHandlerAlreadySet = errors.New("simcore: component already has a handler")

	// ErrConflictingKeyExtractor is fatal: a payload type may have at most
	// one registered key-extractor function.
	ErrConflictingKeyExtractor = errors.New("simcore: conflicting key extractor for event type")

	// ErrKeyedUnkeyedMix is fatal: registering a key-extractor for a type
	// that has already been awaited unkeyed is disallowed, since it would
	// make existing awaits ambiguous.
	ErrKeyedUnkeyedMix = errors.New("simcore: cannot mix keyed and unkeyed awaits for the same event type")

	// ErrMissingTypeRegistration is fatal: a keyed receive was attempted
	// for a type with no registered key extractor.
	ErrMissingTypeRegistration = errors.New("simcore: event type has no registered key extractor")

	// ErrNegativeDelay is fatal: emit/sleep delays must be non-negative.
	ErrNegativeDelay = errors.New("simcore: negative delay")

	// ErrNoRoute is fatal: an event was delivered to a destination with no
	// handler and no matching awaiter.
	ErrNoRoute = errors.New("simcore: event delivered to component with no handler and no awaiter")

	// ErrClockRewind would indicate an engine bug: the clock must never
	// move backward. Exported so tests can assert on it.
	ErrClockRewind = errors.New("simcore: clock moved backward")
)

// FatalError wraps one of the sentinel Err* values above. The engine
// panics with a *FatalError rather than returning it, because a fatal
// condition means the simulation's deterministic program is buggy and
// continuing would make the rest of the trace meaningless (spec.md §7).
type FatalError struct {
	Err     error
	Context string
}

func (f *FatalError) Error() string {
	if f.Context == "" {
		return f.Err.Error()
	}
	return f.Err.Error() + ": " + f.Context
}

func (f *FatalError) Unwrap() error { return f.Err }

// fatal logs and panics with a *FatalError. Centralizing this keeps the
// "log at Error before aborting" contract (SPEC_FULL.md §5.2) in one place.
func (s *Simulation) fatal(err error, context string) {
	s.logger.Error(err.Error(), "context", context, "run_id", s.RunID)
	s.instrumentFatal(err, context)
	panic(&FatalError{Err: err, Context: context})
}

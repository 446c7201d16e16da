package simcore

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/desim/simcore/directory"
)

var timerFiredTag = typeTagOf[timerFired]()

// Simulation is the central, exclusively-owning state object of
// spec.md §5 "Resource ownership": the event queue, component directory,
// executor, and payload type registry all live here. Contexts hold only a
// pointer back to it (spec.md §9's "weak reference" — Go has no distinct
// weak-pointer idiom for this, so the non-owning discipline is enforced by
// convention: nothing outside this file ever constructs a Simulation, and
// SimulationContext never outlives the call graph that created it).
type Simulation struct {
	directory *directory.Directory
	types     *typeRegistry
	await     *awaitRegistry
	queue     *eventQueue
	executor  *executor

	ids        *idAllocator
	awaiterIds *idAllocator
	timerTags  *idAllocator

	rng    *Rng
	logger Logger

	clock       float64
	eventCount  uint64
	currentTask *task

	observers *Subject

	// RunID labels this instance for instrumentation/log correlation only;
	// it never participates in dispatch ordering or any other deterministic
	// decision (spec.md §6 "Determinism is the only cross-run contract").
	RunID string
}

// Option configures a Simulation at construction time.
type Option func(*Simulation)

// WithLogger overrides the default no-op Logger.
func WithLogger(l Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithObserver attaches o to the simulation's instrumentation Subject.
func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.AttachObserver(o) }
}

// NewSimulation constructs an empty simulation seeded deterministically
// (spec.md §6 "Simulation::new(seed)"). Two internal payload types —
// timerFired (sleep/timeout) and ConsumerNotify (the MPMC queue) — get
// their key extractors registered unconditionally so Sleep, Timeout, and
// UnboundedQueue work out of the box without user-visible setup.
func NewSimulation(seed int64, opts ...Option) *Simulation {
	s := &Simulation{
		directory:  directory.New(),
		types:      newTypeRegistry(),
		await:      newAwaitRegistry(),
		queue:      newEventQueue(),
		executor:   newExecutor(),
		ids:        &idAllocator{},
		awaiterIds: &idAllocator{next: 1}, // 0 means "no awaiter" on a task
		timerTags:  &idAllocator{},
		rng:        newRng(seed),
		logger:     noopLogger{},
		RunID:      uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	RegisterKeyGetter(s, func(t timerFired) EventKey { return EventKey(t.tag) })
	RegisterKeyGetter(s, func(n ConsumerNotify) EventKey { return EventKey(n.Ticket) })
	return s
}

// SetLogger swaps the active Logger after construction.
func (s *Simulation) SetLogger(l Logger) { s.logger = l }

func (s *Simulation) allocAwaiterId() uint64 { return s.awaiterIds.allocate() }
func (s *Simulation) nextTimerTag() uint64   { return s.timerTags.allocate() }

// CreateContext allocates a new component id bound to name and returns its
// capability handle (spec.md §4.3 "create_context(name)"). name must not
// already be in use.
func (s *Simulation) CreateContext(name string) *SimulationContext {
	id, err := s.directory.Create(name)
	if err != nil {
		s.fatal(ErrDuplicateComponentName, name)
	}
	return &SimulationContext{sim: s, self: Id(id)}
}

// AddHandler binds an exclusive-mutation callback handler to the component
// already reserved for name (spec.md §4.3 "add_handler").
func (s *Simulation) AddHandler(name string, h EventHandler) Id {
	id, err := s.directory.SetHandler(name, h)
	s.checkHandlerError(name, err)
	return Id(id)
}

// AddStaticHandler binds a shared-reference handler usable from async
// tasks (spec.md §4.3 "add_static_handler").
func (s *Simulation) AddStaticHandler(name string, h StaticEventHandler) Id {
	id, err := s.directory.SetStaticHandler(name, h)
	s.checkHandlerError(name, err)
	return Id(id)
}

func (s *Simulation) checkHandlerError(name string, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, directory.ErrUnknownName):
		s.fatal(ErrUnknownComponentName, name)
	case errors.Is(err, directory.ErrHasHandler):
		s.fatal(ErrHandlerAlreadySet, name)
	default:
		s.fatal(err, name)
	}
}

// RemoveHandler detaches id's handler and applies policy to any events
// still pending in the queue that target or originate from id
// (spec.md §3 "Cancellation policy").
func (s *Simulation) RemoveHandler(id Id, policy EventCancellationPolicy) {
	if err := s.directory.RemoveHandler(directory.Id(id)); err != nil {
		s.fatal(ErrUnknownComponentName, fmt.Sprintf("id=%d", id))
	}
	if policy.CancelsIncoming() {
		s.queue.cancelWhere(func(e Event) bool { return e.Dst == id })
	}
	if policy.CancelsOutgoing() {
		s.queue.cancelWhere(func(e Event) bool { return e.Src == id })
	}
}

// emit is the shared implementation behind SimulationContext.Emit/EmitNow/
// EmitSelfNow (spec.md §4.7 "emit").
func (s *Simulation) emit(src, dst Id, payload any, delay float64) EventId {
	if delay < 0 {
		s.fatal(ErrNegativeDelay, fmt.Sprintf("delay=%v", delay))
	}
	id := EventId(s.ids.allocate())
	s.queue.push(Event{
		Seq:  id,
		Time: s.clock + delay,
		Src:  src,
		Dst:  dst,
		Data: payload,
	})
	return id
}

// Time returns the simulation's current clock value.
func (s *Simulation) Time() float64 { return s.clock }

// EventCount returns how many events have been delivered (via either
// await match or callback invocation) so far.
func (s *Simulation) EventCount() uint64 { return s.eventCount }

// Step executes the driver loop of spec.md §4.4 for exactly one popped
// event: drain the executor's ready queue, pop the earliest pending
// event, advance the clock to it, then either wake the matching awaiter
// or invoke the destination's callback handler. Returns false if there
// was no event to process.
func (s *Simulation) Step() bool {
	s.executor.drain(func(t *task) { s.currentTask = t })

	e, ok := s.queue.pop()
	if !ok {
		s.instrumentStep(false)
		return false
	}
	if e.Time < s.clock {
		s.fatal(ErrClockRewind, fmt.Sprintf("event time %v < clock %v", e.Time, s.clock))
	}
	s.clock = e.Time
	s.eventCount++

	tag := eventTypeTag{rt: reflect.TypeOf(e.Data)}
	key, hasKey := s.types.extractKey(tag, e.Data)

	if aw, found := s.await.match(tag, key, hasKey, e); found {
		s.instrumentDeliver(e, "await")
		aw.deliver(e)
		s.executor.drain(func(t *task) { s.currentTask = t })
		s.instrumentStep(true)
		return true
	}

	handler, kind, exists := s.directory.Lookup(directory.Id(e.Dst))
	if !exists || kind == directory.KindNone {
		s.fatal(ErrNoRoute, fmt.Sprintf("dst=%d type=%s", e.Dst, tag.String()))
	}
	s.instrumentDeliver(e, "callback")
	switch kind {
	case directory.KindCallback:
		handler.(EventHandler).On(e)
	case directory.KindStatic:
		handler.(StaticEventHandler).On(e)
	}
	s.executor.drain(func(t *task) { s.currentTask = t })
	s.instrumentStep(true)
	return true
}

// StepFor advances the simulation until no pending event remains at or
// before clock()+delta (spec.md §6 "step_for(delta)"). Returns true iff at
// least one event was processed.
func (s *Simulation) StepFor(delta float64) bool {
	return s.stepUntilDeadline(s.clock + delta)
}

// StepUntil advances the simulation until no pending event remains at or
// before absTime (spec.md §6 "step_until(abs_time)").
func (s *Simulation) StepUntil(absTime float64) bool {
	return s.stepUntilDeadline(absTime)
}

func (s *Simulation) stepUntilDeadline(deadline float64) bool {
	processed := false
	for {
		t, ok := s.queue.peekTime()
		if !ok || t > deadline {
			return processed
		}
		if !s.Step() {
			return processed
		}
		processed = true
	}
}

// StepUntilNoEvents repeats Step until the queue is exhausted
// (spec.md §6 "step_until_no_events").
func (s *Simulation) StepUntilNoEvents() bool {
	processed := false
	for s.Step() {
		processed = true
	}
	return processed
}

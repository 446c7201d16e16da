package simcore

// timerFired is the internal self-addressed event a sleeping task awaits
// on (spec.md §3 "Timer: modeled as an internal self-addressed event
// carrying a monotonic timer tag"). Tag disambiguates concurrent sleeps on
// the same component.
type timerFired struct {
	tag uint64
}

// SimulationContext is the per-component capability handle of spec.md
// §4.7: a cheaply-copied handle into the Simulation's central state,
// scoped to one component id. It never owns anything itself (spec.md §9
// "cyclic references between context and simulation state" — the context
// is a non-owning handle, all access routed through the Simulation).
type SimulationContext struct {
	sim  *Simulation
	self Id
}

// Self returns the id of the component this context belongs to.
func (c *SimulationContext) Self() Id { return c.self }

// Time returns the simulation's current clock value.
func (c *SimulationContext) Time() float64 { return c.sim.Time() }

// GenRange draws a float64 in [lo, hi) from the simulation-wide RNG
// (spec.md §4.7 "gen_range"), deterministic given the simulation's seed.
func (c *SimulationContext) GenRange(lo, hi float64) float64 {
	return c.sim.rng.Float64Range(lo, hi)
}

// Emit enqueues payload for delivery to dst after delay simulated-time
// units (spec.md §4.7 "emit"). delay must be non-negative.
func (c *SimulationContext) Emit(payload any, dst Id, delay float64) EventId {
	return c.sim.emit(c.self, dst, payload, delay)
}

// EmitNow is Emit(payload, dst, 0.0): scheduled after every event already
// enqueued at the current clock value (spec.md §4.1 "emit_now").
func (c *SimulationContext) EmitNow(payload any, dst Id) EventId {
	return c.Emit(payload, dst, 0.0)
}

// EmitSelfNow additionally forces src == dst == this component
// (spec.md §4.1 "emit_self_now").
func (c *SimulationContext) EmitSelfNow(payload any) EventId {
	return c.sim.emit(c.self, c.self, payload, 0.0)
}

// CancelEvent marks id so the queue drops it when it would otherwise
// surface; idempotent (spec.md §4.7, §7).
func (c *SimulationContext) CancelEvent(id EventId) {
	c.sim.queue.cancel(id)
}

// RegisterKeyGetterFor is the context-level form of RegisterKeyGetter,
// provided because spec.md §4.7 lists register_key_getter_for as a
// Context operation even though the registry itself is simulation-wide.
func RegisterKeyGetterFor[T any](c *SimulationContext, fn func(T) EventKey) {
	RegisterKeyGetter(c.sim, fn)
}

// TaskHandle is a reference to a spawned task, returned by Spawn so that
// a caller can cancel it before it completes — the explicit stand-in for
// dropping a future in a language with deterministic destructors
// (spec.md §9 "Future-drop-as-cancel").
type TaskHandle struct {
	sim *Simulation
	id  uint64
}

// Cancel deregisters the task's current awaiter, if it is parked on one,
// so a pending event never wakes it. For a task parked in Timeout this is
// the receive side; the timer side stays registered until its own timer
// event consumes it. The task's goroutine, if parked,
// remains blocked (there is no way to force-unwind a live goroutine in
// Go); this is harmless for a simulation that has finished using it, and
// is the accepted cost of emulating drop-based cancellation without true
// destructors.
func (h *TaskHandle) Cancel() {
	t, ok := h.sim.executor.tasks[h.id]
	if !ok {
		return
	}
	if t.currentAwaiterId != 0 {
		h.sim.await.cancel(t.currentAwaiterId)
		t.currentAwaiterId = 0
	}
	delete(h.sim.executor.tasks, h.id)
}

// Spawn registers fn as a new task running on its own cooperative
// goroutine (spec.md §4.7 "spawn"). fn receives a context scoped to the
// same component as c. Spawn returns immediately; fn runs during the next
// ready-queue drain.
func (c *SimulationContext) Spawn(fn func(ctx *SimulationContext)) *TaskHandle {
	id := c.sim.executor.spawn(func(t *task) {
		fn(c)
	})
	return &TaskHandle{sim: c.sim, id: id}
}

// currentTaskHandle resolves which *task is asking to suspend. Suspension
// primitives are only ever called from within a running task's goroutine
// (spec.md §4.6 "Suspension points"), and the executor records which task
// it most recently handed control to on the Simulation, so this is always
// well-defined at the point of call.
func (c *SimulationContext) currentTaskHandle() *task {
	return c.sim.currentTask
}

// Sleep suspends the calling task until the clock reaches now+d
// (spec.md §4.7 "sleep"). d must be non-negative.
func (c *SimulationContext) Sleep(d float64) {
	if d < 0 {
		c.sim.fatal(ErrNegativeDelay, "Sleep")
		return
	}
	t := c.currentTaskHandle()
	tag := c.sim.nextTimerTag()
	a := &awaiter{
		id: c.sim.allocAwaiterId(),
		deliver: func(e Event) {
			t.pendingEvent = e
			c.sim.executor.markReady(t.id)
		},
	}
	c.sim.await.registerKeyed(c.self, timerFiredTag, EventKey(tag), a)
	c.sim.emit(c.self, c.self, timerFired{tag: tag}, d)
	t.currentAwaiterId = a.id
	t.park()
	t.currentAwaiterId = 0
}

// RecvEvent suspends the calling task until the next event of payload
// type T addressed to c's component, bypassing its callback handler
// entirely (spec.md §4.7 "recv_event::<T>").
func RecvEvent[T any](c *SimulationContext) T {
	return recvEvent[T](c, false, 0, false, 0)
}

// RecvEventByKey is RecvEvent narrowed to events whose extracted key
// equals key (spec.md §4.7 "recv_event_by_key::<T>").
func RecvEventByKey[T any](c *SimulationContext, key EventKey) T {
	return recvEvent[T](c, true, key, false, 0)
}

// RecvEventFromSelf is RecvEvent additionally requiring Src == c.Self()
// (spec.md §4.7 "recv_event_from_self").
func RecvEventFromSelf[T any](c *SimulationContext) T {
	return recvEvent[T](c, false, 0, true, c.self)
}

// RecvEventByKeyFromSelf combines both restrictions, the primitive the
// keyed fan-out scenario (spec.md §8 scenario 2) is built from.
func RecvEventByKeyFromSelf[T any](c *SimulationContext, key EventKey) T {
	return recvEvent[T](c, true, key, true, c.self)
}

func recvEvent[T any](c *SimulationContext, keyed bool, key EventKey, fromSelf bool, src Id) T {
	tag := typeTagOf[T]()
	if keyed && !c.sim.types.hasKeyGetter(tag) {
		c.sim.fatal(ErrMissingTypeRegistration, tag.String())
	}
	t := c.currentTaskHandle()
	a := &awaiter{
		id:      c.sim.allocAwaiterId(),
		hasSrc:  fromSelf,
		fromSrc: src,
		deliver: func(e Event) {
			t.pendingEvent = e
			c.sim.executor.markReady(t.id)
		},
	}
	if keyed {
		c.sim.await.registerKeyed(c.self, tag, key, a)
	} else {
		c.sim.await.registerUnkeyed(c.self, tag, a)
	}
	t.currentAwaiterId = a.id
	e := t.park()
	t.currentAwaiterId = 0
	v, _ := e.Data.(T)
	return v
}

// Timeout races Sleep(d) against RecvEvent[T], the select-based timeout
// pattern of spec.md §5 ("Timeouts are implemented by racing a sleep with
// a recv_event via select"). It returns the received payload and true if
// the event arrived first, or the zero value and false if the timer fired
// first. Whichever side loses has its awaiter explicitly deregistered
// before Timeout returns — the deterministic stand-in for drop-based
// cancellation described in spec.md §9 "Future-drop-as-cancel" for
// runtimes without destructors.
func Timeout[T any](c *SimulationContext, d float64) (T, bool) {
	if d < 0 {
		c.sim.fatal(ErrNegativeDelay, "Timeout")
	}
	t := c.currentTaskHandle()
	tag := typeTagOf[T]()
	timerTag := c.sim.nextTimerTag()

	type result struct {
		event Event
		timer bool
	}
	var res result

	recvId := c.sim.allocAwaiterId()
	timerId := c.sim.allocAwaiterId()
	var timerEventId EventId

	recvAwaiter := &awaiter{
		id: recvId,
		deliver: func(e Event) {
			res = result{event: e, timer: false}
			c.sim.await.cancel(timerId)
			c.sim.queue.cancel(timerEventId)
			t.pendingEvent = e
			c.sim.executor.markReady(t.id)
		},
	}
	timerAwaiter := &awaiter{
		id: timerId,
		deliver: func(e Event) {
			res = result{event: e, timer: true}
			c.sim.await.cancel(recvId)
			t.pendingEvent = e
			c.sim.executor.markReady(t.id)
		},
	}

	c.sim.await.registerUnkeyed(c.self, tag, recvAwaiter)
	c.sim.await.registerKeyed(c.self, timerFiredTag, EventKey(timerTag), timerAwaiter)
	timerEventId = c.sim.emit(c.self, c.self, timerFired{tag: timerTag}, d)

	t.currentAwaiterId = recvId
	t.park()
	t.currentAwaiterId = 0
	if res.timer {
		var zero T
		return zero, false
	}
	v, _ := res.event.Data.(T)
	return v, true
}

package simcore

// taskState is the tri-state lifecycle of spec.md §3 "Task":
// ready → waiting → done, with "waiting" represented implicitly by a task
// goroutine parked on <-resume rather than as an explicit value here.
type taskState int

const (
	taskReady taskState = iota
	taskDone
)

// task is one cooperatively-scheduled unit of execution (spec.md §4.6).
// Exactly one of {driver, task} ever runs at a time: the executor hands
// control to a task by sending on resume and blocking on yield; the task
// hands control back by sending on yield and blocking on resume. This
// rendezvous is the Go-idiomatic stand-in for the single-threaded
// poll/Waker protocol of an async runtime — no goroutine in a suspended
// task ever executes concurrently with the driver or another task.
type task struct {
	id           uint64
	resume       chan struct{}
	yield        chan struct{}
	state        taskState
	pendingEvent Event

	// panicVal captures a panic raised inside fn so the executor can
	// re-raise it on the driver's own goroutine (spec.md §7 "a spawned
	// task panics: propagates and aborts") — a panic inside a task's own
	// goroutine would otherwise crash the process instead of unwinding
	// through the caller of Step.
	panicVal any

	// currentAwaiterId is the id of the awaiter this task is currently
	// parked on, if any (0 otherwise). TaskHandle.Cancel uses it to
	// deregister a suspended task's awaiter without needing a true
	// destructor (spec.md §9 "Future-drop-as-cancel").
	currentAwaiterId uint64
}

// park hands control back to the executor and blocks until resumed,
// returning whatever event a previously-registered awaiter delivered.
// Callers (context.go) must register that awaiter before calling park.
func (t *task) park() Event {
	t.yield <- struct{}{}
	<-t.resume
	return t.pendingEvent
}

// executor is the task table + ready queue of spec.md §4.6. It holds no
// reference to the await registry or event queue directly; those are
// reached through the owning Simulation so that a deliver closure can
// both stash the event on the task and mark it ready in one place
// (await.go, context.go).
type executor struct {
	tasks  map[uint64]*task
	ready  []uint64
	nextId uint64
}

func newExecutor() *executor {
	return &executor{tasks: make(map[uint64]*task)}
}

// spawn starts fn on a new task goroutine, parked until first resumed, and
// marks it ready so the next drain picks it up (spec.md §4.6 "a task that
// spawns another simply appends to the ready queue"). The returned task_id
// is monotonic, a prerequisite for the deterministic-replay guarantee of
// spec.md §4.6.
func (ex *executor) spawn(fn func(t *task)) uint64 {
	ex.nextId++
	id := ex.nextId
	t := &task{id: id, resume: make(chan struct{}), yield: make(chan struct{})}
	ex.tasks[id] = t
	go func() {
		<-t.resume
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.panicVal = r
				}
			}()
			fn(t)
		}()
		t.state = taskDone
		t.yield <- struct{}{}
	}()
	ex.ready = append(ex.ready, id)
	return id
}

// markReady appends id to the back of the FIFO ready queue. Called from an
// awaiter's deliver closure (context.go) when a matching event arrives, or
// by spawn for a brand new task.
func (ex *executor) markReady(id uint64) {
	ex.ready = append(ex.ready, id)
}

// drain runs every currently-ready task to its next suspension (or
// completion), in FIFO wake order (spec.md §4.6 "Polling order"), including
// any tasks that become ready as a side effect of draining — exactly the
// "drain the executor's ready queue until empty" step of the driver loop
// (spec.md §4.4 step 1). setCurrent is invoked with the task about to be
// resumed (and with nil once draining stops) so the owning Simulation can
// track which task's goroutine is presently running — needed because
// suspension primitives (context.go) must know which task they are
// suspending.
func (ex *executor) drain(setCurrent func(*task)) {
	for len(ex.ready) > 0 {
		id := ex.ready[0]
		ex.ready = ex.ready[1:]
		t, ok := ex.tasks[id]
		if !ok {
			continue
		}
		setCurrent(t)
		t.resume <- struct{}{}
		<-t.yield
		setCurrent(nil)
		if t.state == taskDone {
			delete(ex.tasks, id)
		}
		if t.panicVal != nil {
			panic(t.panicVal)
		}
	}
}

// hasPending reports whether any task is still tracked (ready or parked
// waiting on an awaiter). It is diagnostic only: the stepping loop does not
// call it.
func (ex *executor) hasPending() bool {
	return len(ex.tasks) > 0
}

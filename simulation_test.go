package simcore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/desim/simcore"
)

// Scenario 1 (spec.md §8): request/response latency.
type rrRequest struct{ SendTime float64 }
type rrResponse struct{ SendTime float64 }

// netDelay is the one-way network delay of spec.md §8 scenario 1: it is
// paid once on the Request and once on the Response, so the asserted
// latency window [0.7, 1.2) is 0.2 of net delay plus a U[0.5, 1.0) sleep.
const netDelay = 0.1

type rrProc2 struct{ ctx *simcore.SimulationContext }

func (p *rrProc2) On(e simcore.Event) {
	simcore.Cast(e, func(r rrRequest) {
		from := e.Src
		p.ctx.Spawn(func(c *simcore.SimulationContext) {
			d := c.GenRange(0.5, 1.0)
			c.Sleep(d)
			c.Emit(rrResponse{SendTime: r.SendTime}, from, netDelay)
		})
	})
}

type rrProc1 struct {
	ctx          *simcore.SimulationContext
	responseTime float64
}

func (p *rrProc1) On(e simcore.Event) {
	simcore.Cast(e, func(r rrResponse) {
		p.responseTime = p.ctx.Time() - r.SendTime
	})
}

func TestRequestResponseLatency(t *testing.T) {
	sim := simcore.NewSimulation(123)
	ctx2 := sim.CreateContext("proc2")
	sim.AddStaticHandler("proc2", &rrProc2{ctx: ctx2})

	ctx1 := sim.CreateContext("proc1")
	h1 := &rrProc1{ctx: ctx1}
	sim.AddHandler("proc1", h1)

	ctx1.Emit(rrRequest{SendTime: ctx1.Time()}, ctx2.Self(), netDelay)
	sim.StepUntilNoEvents()

	require.GreaterOrEqual(t, h1.responseTime, 0.7)
	require.Less(t, h1.responseTime, 1.2)
	require.Equal(t, sim.Time(), h1.responseTime)
}

// Scenario 2 & 3 (spec.md §8): keyed fan-out and deterministic replay.
type testEvent struct {
	Key int
}

func keyedFanOutTrace(seed int64) []float64 {
	sim := simcore.NewSimulation(seed)
	ctx := sim.CreateContext("hub")
	simcore.RegisterKeyGetter(sim, func(e testEvent) simcore.EventKey {
		return simcore.EventKey(e.Key)
	})

	const listeners = 100
	const iterations = 100
	received := make([][]float64, listeners)

	for i := 0; i < listeners; i++ {
		key := i
		idx := i
		ctx.Spawn(func(c *simcore.SimulationContext) {
			for n := 0; n < iterations; n++ {
				e := simcore.RecvEventByKeyFromSelf[testEvent](c, simcore.EventKey(key))
				received[idx] = append(received[idx], c.Time())
				_ = e
			}
		})
	}

	for n := 0; n < iterations; n++ {
		for i := 0; i < listeners; i++ {
			ctx.Emit(testEvent{Key: i}, ctx.Self(), 10.0)
		}
		sim.StepFor(10.0)
	}

	trace := make([]float64, 0, listeners*iterations)
	for _, times := range received {
		trace = append(trace, times...)
	}
	return trace
}

func TestKeyedFanOut(t *testing.T) {
	trace := keyedFanOutTrace(123)
	require.Len(t, trace, 100*100)
	for _, ts := range trace {
		require.Equal(t, 0.0, mod10(ts))
	}
}

func mod10(t float64) float64 {
	n := int(t / 10.0)
	return t - float64(n)*10.0
}

func TestDeterministicReplay(t *testing.T) {
	a := keyedFanOutTrace(123)
	b := keyedFanOutTrace(123)
	require.Equal(t, a, b)
}

// Scenario 4 (spec.md §8): cancelled awaiter.
type cancelEvent struct{ N int }

func TestCancelledAwaiterOnlySecondReceives(t *testing.T) {
	sim := simcore.NewSimulation(1)
	ctx := sim.CreateContext("hub")
	simcore.RegisterKeyGetter(sim, func(e cancelEvent) simcore.EventKey { return simcore.EventKey(e.N) })

	var firstGot, secondGot bool
	var handle *simcore.TaskHandle
	handle = ctx.Spawn(func(c *simcore.SimulationContext) {
		simcore.RecvEventByKeyFromSelf[cancelEvent](c, 1)
		firstGot = true
	})
	ctx.Spawn(func(c *simcore.SimulationContext) {
		simcore.RecvEventByKeyFromSelf[cancelEvent](c, 1)
		secondGot = true
	})
	sim.StepUntilNoEvents() // both tasks run to their await

	handle.Cancel()
	ctx.EmitSelfNow(cancelEvent{N: 1})
	sim.StepUntilNoEvents()

	require.False(t, firstGot)
	require.True(t, secondGot)
}

// Scenario 5 (spec.md §8): MPMC queue fairness.
func TestUnboundedQueueFairness(t *testing.T) {
	sim := simcore.NewSimulation(1)
	ctx := sim.CreateContext("hub")
	q := simcore.NewUnboundedQueue[string](ctx)

	var order []string
	for i := 0; i < 3; i++ {
		ctx.Spawn(func(c *simcore.SimulationContext) {
			order = append(order, q.Take())
		})
	}
	sim.StepUntilNoEvents()

	q.Put("p1-a")
	q.Put("p2-a")
	q.Put("p3-a")
	sim.StepUntilNoEvents()

	require.Equal(t, []string{"p1-a", "p2-a", "p3-a"}, order)
}

// Scenario 6 (spec.md §8): timer + event race.
type raceEvent struct{ V int }

func TestTimeoutRaceRecvWins(t *testing.T) {
	sim := simcore.NewSimulation(1)
	ctx := sim.CreateContext("hub")

	var got raceEvent
	var won bool
	var timerFired bool
	ctx.Spawn(func(c *simcore.SimulationContext) {
		v, ok := simcore.Timeout[raceEvent](c, 1.0)
		got, won = v, ok
		if !ok {
			timerFired = true
		}
	})
	ctx.Emit(raceEvent{V: 42}, ctx.Self(), 0.5)

	sim.StepUntilNoEvents()

	require.True(t, won)
	require.Equal(t, 42, got.V)
	require.False(t, timerFired)
	require.Equal(t, 0.5, sim.Time())
}

package simcore_test

import (
	"context"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/desim/simcore"
)

type observerPing struct{ N int }

func TestObserverReceivesStepAndDeliverCloudEvents(t *testing.T) {
	var events []cloudevents.Event
	observer := simcore.ObserverFunc(func(_ context.Context, ev cloudevents.Event) {
		events = append(events, ev)
	})

	sim := simcore.NewSimulation(1, simcore.WithObserver(observer))
	ctx := sim.CreateContext("hub")
	var handler recordingHandler
	sim.AddHandler("hub", &handler)

	ctx.EmitSelfNow(observerPing{N: 1})
	sim.StepUntilNoEvents()

	require.True(t, handler.got, "handler should have received the event")
	require.NotEmpty(t, events)

	var sawDeliver, sawStep bool
	for _, ev := range events {
		require.Equal(t, "simcore/simulation", ev.Source())
		require.NotEmpty(t, ev.ID())
		require.Equal(t, cloudevents.VersionV1, ev.SpecVersion())
		switch ev.Type() {
		case "simcore.deliver":
			sawDeliver = true
			require.Equal(t, "application/json", ev.DataContentType())
			require.NotEmpty(t, ev.Data())
		case "simcore.step":
			sawStep = true
		}
	}
	require.True(t, sawDeliver, "expected a simcore.deliver event")
	require.True(t, sawStep, "expected a simcore.step event")
}

type recordingHandler struct{ got bool }

func (h *recordingHandler) On(e simcore.Event) {
	simcore.Cast(e, func(observerPing) { h.got = true })
}

func TestAttachObserverAddsASecondObserverAfterConstruction(t *testing.T) {
	var firstCount, secondCount int
	sim := simcore.NewSimulation(1, simcore.WithObserver(simcore.ObserverFunc(func(context.Context, cloudevents.Event) {
		firstCount++
	})))
	sim.AttachObserver(simcore.ObserverFunc(func(context.Context, cloudevents.Event) {
		secondCount++
	}))

	ctx := sim.CreateContext("hub")
	var handler recordingHandler
	sim.AddHandler("hub", &handler)
	ctx.EmitSelfNow(observerPing{N: 1})
	sim.StepUntilNoEvents()

	require.Greater(t, firstCount, 0)
	require.Equal(t, firstCount, secondCount)
}

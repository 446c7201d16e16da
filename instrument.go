package simcore

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Observer receives instrumentation notifications, modeled as CloudEvents
// so that any CloudEvents-compatible sink (a file, an HTTP receiver, a
// message broker) can subscribe without the core knowing anything about
// the transport. This is the optional instrumentation path spec.md §6
// alludes to ("optional instrumentation can log events; the core itself
// does not interpret serialized forms") — grounded on the teacher's
// Subject/Observer pair (observer.go, observer_cloudevents.go), adapted
// from module-lifecycle notifications to simulation-delivery notifications.
type Observer interface {
	Notify(ctx context.Context, ev cloudevents.Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ctx context.Context, ev cloudevents.Event)

func (f ObserverFunc) Notify(ctx context.Context, ev cloudevents.Event) { f(ctx, ev) }

// Subject is a fan-out point for Observers. A Simulation with no attached
// observers pays the cost of one nil check per delivery and nothing more.
type Subject struct {
	observers []Observer
}

// Attach registers o to receive every future notification.
func (s *Subject) Attach(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Subject) notify(ev cloudevents.Event) {
	for _, o := range s.observers {
		o.Notify(context.Background(), ev)
	}
}

const ceSource = "simcore/simulation"

func newSimEvent(runID, eventType string) cloudevents.Event {
	ev := cloudevents.NewEvent()
	ev.SetID(uuid.NewString())
	ev.SetSource(ceSource)
	ev.SetType(eventType)
	ev.SetSpecVersion(cloudevents.VersionV1)
	ev.SetTime(time.Now())
	ev.SetExtension("runid", runID)
	return ev
}

// instrumentFatal is called by errors.go's fatal just before it panics, so
// any attached observer sees the failure even though the process is about
// to unwind.
func (s *Simulation) instrumentFatal(err error, ctxDesc string) {
	if s.observers == nil {
		return
	}
	ev := newSimEvent(s.RunID, "simcore.fatal")
	_ = ev.SetData(cloudevents.ApplicationJSON, map[string]string{
		"error":   err.Error(),
		"context": ctxDesc,
	})
	s.observers.notify(ev)
}

// instrumentDeliver is called once per dispatched event, after routing has
// been decided, so observers can reconstruct the full delivery trace that
// spec.md §8's determinism property is checked against.
func (s *Simulation) instrumentDeliver(e Event, route string) {
	if s.observers == nil {
		return
	}
	ev := newSimEvent(s.RunID, "simcore.deliver")
	_ = ev.SetData(cloudevents.ApplicationJSON, map[string]any{
		"id":      uint64(e.Seq),
		"time":    e.Time,
		"src":     uint32(e.Src),
		"dst":     uint32(e.Dst),
		"route":   route,
		"payload": string(marshalPayload(e.Data)),
	})
	s.observers.notify(ev)
}

// instrumentStep is called once per Step() call with a human-readable
// summary, useful for a sink that only cares about clock progression
// rather than every field of every delivery.
func (s *Simulation) instrumentStep(processed bool) {
	if s.observers == nil {
		return
	}
	ev := newSimEvent(s.RunID, "simcore.step")
	_ = ev.SetData(cloudevents.ApplicationJSON, map[string]any{
		"clock":     s.clock,
		"processed": processed,
	})
	s.observers.notify(ev)
}

// AttachObserver registers o on sim's instrumentation Subject, allocating
// the Subject on first use.
func (s *Simulation) AttachObserver(o Observer) {
	if s.observers == nil {
		s.observers = &Subject{}
	}
	s.observers.Attach(o)
}

// LoggingObserver returns an Observer that writes every notification
// through logger at Debug level, useful during development without
// standing up a real CloudEvents sink.
func LoggingObserver(logger Logger) Observer {
	return ObserverFunc(func(_ context.Context, ev cloudevents.Event) {
		logger.Debug(fmt.Sprintf("instrumentation: %s", ev.Type()), "id", ev.ID(), "data", string(ev.Data()))
	})
}

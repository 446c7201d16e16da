package simcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventQueueOrdersByTimeThenSeq(t *testing.T) {
	q := newEventQueue()
	q.push(Event{Seq: 3, Time: 1.0})
	q.push(Event{Seq: 1, Time: 0.5})
	q.push(Event{Seq: 2, Time: 0.5})

	e, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, EventId(1), e.Seq)

	e, ok = q.pop()
	require.True(t, ok)
	require.Equal(t, EventId(2), e.Seq)

	e, ok = q.pop()
	require.True(t, ok)
	require.Equal(t, EventId(3), e.Seq)

	_, ok = q.pop()
	require.False(t, ok)
}

func TestEventQueueCancelIsLazyAndIdempotent(t *testing.T) {
	q := newEventQueue()
	q.push(Event{Seq: 1, Time: 0})
	q.push(Event{Seq: 2, Time: 1})

	q.cancel(1)
	q.cancel(1) // idempotent, spec.md §7

	e, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, EventId(2), e.Seq)

	_, ok = q.pop()
	require.False(t, ok)
}

func TestEventQueueCancelWhere(t *testing.T) {
	q := newEventQueue()
	q.push(Event{Seq: 1, Time: 0, Dst: 5})
	q.push(Event{Seq: 2, Time: 0, Dst: 9})

	q.cancelWhere(func(e Event) bool { return e.Dst == 5 })

	e, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, EventId(2), e.Seq)
}

func TestEventQueuePeekTime(t *testing.T) {
	q := newEventQueue()
	_, ok := q.peekTime()
	require.False(t, ok)

	q.push(Event{Seq: 1, Time: 4.0})
	tm, ok := q.peekTime()
	require.True(t, ok)
	require.Equal(t, 4.0, tm)
	require.Equal(t, 1, q.len())
}

package simcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAwaitRegistryFIFOWithinBucket(t *testing.T) {
	r := newAwaitRegistry()
	tag := typeTagOf[int]()

	var order []int
	a1 := &awaiter{id: 1, deliver: func(Event) { order = append(order, 1) }}
	a2 := &awaiter{id: 2, deliver: func(Event) { order = append(order, 2) }}
	r.registerUnkeyed(7, tag, a1)
	r.registerUnkeyed(7, tag, a2)

	w, ok := r.match(tag, 0, false, Event{Dst: 7})
	require.True(t, ok)
	require.Equal(t, uint64(1), w.id)

	w, ok = r.match(tag, 0, false, Event{Dst: 7})
	require.True(t, ok)
	require.Equal(t, uint64(2), w.id)

	_, ok = r.match(tag, 0, false, Event{Dst: 7})
	require.False(t, ok)
}

func TestAwaitRegistryKeyedMatchFallsBackNeverToWrongKey(t *testing.T) {
	r := newAwaitRegistry()
	tag := typeTagOf[int]()

	a := &awaiter{id: 1}
	r.registerKeyed(1, tag, 42, a)

	_, ok := r.match(tag, 99, true, Event{Dst: 1})
	require.False(t, ok)

	w, ok := r.match(tag, 42, true, Event{Dst: 1})
	require.True(t, ok)
	require.Equal(t, a, w)
}

func TestAwaitRegistryUnkeyedCatchesKeyedEvent(t *testing.T) {
	// spec.md §4.5: "an unkeyed recv_event on [a keyed] type still matches
	// any key".
	r := newAwaitRegistry()
	tag := typeTagOf[int]()

	a := &awaiter{id: 1}
	r.registerUnkeyed(1, tag, a)

	w, ok := r.match(tag, 42, true, Event{Dst: 1})
	require.True(t, ok)
	require.Equal(t, a, w)
}

func TestAwaitRegistryCancelRemovesWaiter(t *testing.T) {
	r := newAwaitRegistry()
	tag := typeTagOf[int]()

	a := &awaiter{id: 1}
	r.registerUnkeyed(1, tag, a)
	r.cancel(1)

	_, ok := r.match(tag, 0, false, Event{Dst: 1})
	require.False(t, ok)
}

func TestAwaitRegistryFromSelfFilter(t *testing.T) {
	r := newAwaitRegistry()
	tag := typeTagOf[int]()

	a := &awaiter{id: 1, hasSrc: true, fromSrc: 5}
	r.registerUnkeyed(1, tag, a)

	_, ok := r.match(tag, 0, false, Event{Dst: 1, Src: 6})
	require.False(t, ok)

	w, ok := r.match(tag, 0, false, Event{Dst: 1, Src: 5})
	require.True(t, ok)
	require.Equal(t, a, w)
}

package simcore

// awaitRegistry tracks pending awaits: a component blocked (synchronously,
// in callback mode, or suspended on a future in async mode) on the next
// event of a given type, optionally narrowed to one key (spec.md §4.5
// "recv_event / recv_event_from_self"). Awaits are consumed in FIFO order
// per (dst, tag, key) bucket so that two tasks of one component awaiting
// the same type are served in registration order (spec.md §8
// "keyed fan-out" scenario).
//
// RegisterKeyGetter (event.go) refuses to install a key extractor for a
// type that has already been awaited unkeyed. registerKeyed and
// registerUnkeyed themselves do not reject anything: keyed and unkeyed
// awaits on the same type can coexist, and match lets an unkeyed waiter
// catch an event of a keyed type.
type awaitRegistry struct {
	// unkeyed holds waiters that want the next event of tag delivered to
	// dst regardless of payload key.
	unkeyed map[awaitBucket][]*awaiter
	// keyed holds waiters narrowed to one (dst, tag, key) triple.
	keyed map[keyedBucket][]*awaiter
	// usedKeyed/usedUnkeyed record, per tag, which discipline has ever been
	// used, even after every current waiter of a tag has been satisfied.
	// Only usedUnkeyed is consulted (by hasUnkeyedAwait).
	usedKeyed   map[eventTypeTag]bool
	usedUnkeyed map[eventTypeTag]bool
}

type awaitBucket struct {
	dst Id
	tag eventTypeTag
}

type keyedBucket struct {
	dst Id
	tag eventTypeTag
	key EventKey
}

// awaiter is one pending recv_event call. deliver receives the matched
// event; the closures built in context.go stash it on the waiting task and
// mark that task ready in the executor.
type awaiter struct {
	id      uint64
	fromSrc Id
	hasSrc  bool
	deliver func(Event)
}

func newAwaitRegistry() *awaitRegistry {
	return &awaitRegistry{
		unkeyed:     make(map[awaitBucket][]*awaiter),
		keyed:       make(map[keyedBucket][]*awaiter),
		usedKeyed:   make(map[eventTypeTag]bool),
		usedUnkeyed: make(map[eventTypeTag]bool),
	}
}

// hasUnkeyedAwait reports whether tag has ever been awaited unkeyed,
// consulted by RegisterKeyGetter (event.go) before installing a key
// extractor for a type that components are already awaiting bare.
func (r *awaitRegistry) hasUnkeyedAwait(tag eventTypeTag) bool {
	return r.usedUnkeyed[tag]
}

// registerUnkeyed enqueues a with no key constraint for (dst, tag),
// optionally narrowed to events whose Src equals fromSrc.
func (r *awaitRegistry) registerUnkeyed(dst Id, tag eventTypeTag, a *awaiter) {
	r.usedUnkeyed[tag] = true
	b := awaitBucket{dst: dst, tag: tag}
	r.unkeyed[b] = append(r.unkeyed[b], a)
}

// registerKeyed enqueues a for (dst, tag, key).
func (r *awaitRegistry) registerKeyed(dst Id, tag eventTypeTag, key EventKey, a *awaiter) {
	r.usedKeyed[tag] = true
	b := keyedBucket{dst: dst, tag: tag, key: key}
	r.keyed[b] = append(r.keyed[b], a)
}

// cancel removes awaiter id from every bucket it might be parked in.
// Dropping a future/await handle without it ever firing is benign
// (spec.md §7 "dropped awaits are not an error").
func (r *awaitRegistry) cancel(id uint64) {
	for b, waiters := range r.unkeyed {
		if idx := indexOfAwaiter(waiters, id); idx >= 0 {
			r.unkeyed[b] = append(waiters[:idx], waiters[idx+1:]...)
			return
		}
	}
	for b, waiters := range r.keyed {
		if idx := indexOfAwaiter(waiters, id); idx >= 0 {
			r.keyed[b] = append(waiters[:idx], waiters[idx+1:]...)
			return
		}
	}
}

func indexOfAwaiter(waiters []*awaiter, id uint64) int {
	for i, w := range waiters {
		if w.id == id {
			return i
		}
	}
	return -1
}

// match looks for (and removes) the oldest waiter eligible to receive
// event, given its tag and, if the type is keyed, its extracted key. The
// keyed bucket is consulted first; the unkeyed bucket for the same
// (dst, tag) is always consulted afterward regardless of hasKey, because
// spec.md §4.5 requires that "an unkeyed recv_event on [a keyed] type
// still matches any key" — a plain RecvEvent[T] must be able to catch a
// T whose type does carry a key extractor.
func (r *awaitRegistry) match(tag eventTypeTag, key EventKey, hasKey bool, e Event) (*awaiter, bool) {
	if hasKey {
		b := keyedBucket{dst: e.Dst, tag: tag, key: key}
		if w, ok := popEligible(r.keyed[b], e); ok {
			r.keyed[b] = removeAwaiter(r.keyed[b], w.id)
			return w, true
		}
	}
	b := awaitBucket{dst: e.Dst, tag: tag}
	if w, ok := popEligible(r.unkeyed[b], e); ok {
		r.unkeyed[b] = removeAwaiter(r.unkeyed[b], w.id)
		return w, true
	}
	return nil, false
}

func popEligible(waiters []*awaiter, e Event) (*awaiter, bool) {
	for _, w := range waiters {
		if w.hasSrc && w.fromSrc != e.Src {
			continue
		}
		return w, true
	}
	return nil, false
}

func removeAwaiter(waiters []*awaiter, id uint64) []*awaiter {
	for i, w := range waiters {
		if w.id == id {
			return append(waiters[:i], waiters[i+1:]...)
		}
	}
	return waiters
}

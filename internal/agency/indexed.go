package agency

import (
	"sync"

	"github.com/carp-rpc/carp/internal/weakref"
)

// Constructor builds the sub-receiver for a freshly seen key, plus its
// own sub-agency and an optional destructor invoked once the receiver
// is collected (spec §4.2).
type Constructor[K comparable, R any] func(container any, key K) (receiver *R, sub Agency, destroy func(), err error)

type indexedEntry struct {
	handle  weakref.Handle
	sub     Agency
	destroy func()
}

// IndexedAgent caches one sub-receiver per key, constructing it lazily
// and evicting it once its weak reference is observed empty (spec
// §4.2 "Indexed agent").
type IndexedAgent[K comparable, R any] struct {
	serviceType string
	disc        Discriminator[K]
	construct   Constructor[K, R]
	static      bool
	container   any // meaningful only when static == false

	mu        sync.Mutex
	entries   map[K]*indexedEntry
	order     []K
	listeners []Listener
}

// NewStaticIndexedAgent builds a static Indexed agent: the container is
// supplied by the caller on every Match (spec §4.2, "Static vs bound").
// Per spec §9's documented asymmetry, newly created entries fire the
// registered listeners synchronously during Match.
func NewStaticIndexedAgent[K comparable, R any](serviceType string, disc Discriminator[K], ctor Constructor[K, R]) *IndexedAgent[K, R] {
	return &IndexedAgent[K, R]{
		serviceType: serviceType,
		disc:        disc,
		construct:   ctor,
		static:      true,
		entries:     make(map[K]*indexedEntry),
	}
}

// NewBoundIndexedAgent builds a bound Indexed agent closed over one
// container. Unlike the static variant, entries created during Match do
// not fire registered listeners (spec §9) — listeners only observe
// bound agents' entries via Register's catch-up and via future Register
// calls.
func NewBoundIndexedAgent[K comparable, R any](serviceType string, disc Discriminator[K], ctor Constructor[K, R], container any) *IndexedAgent[K, R] {
	return &IndexedAgent[K, R]{
		serviceType: serviceType,
		disc:        disc,
		construct:   ctor,
		static:      false,
		container:   container,
		entries:     make(map[K]*indexedEntry),
	}
}

func (a *IndexedAgent[K, R]) ServiceType() string { return a.serviceType }

// Match implements Agent.
func (a *IndexedAgent[K, R]) Match(container any, subpath Path) (Match, bool) {
	if len(subpath) == 0 {
		return Match{}, false
	}
	seg := subpath[0]
	if !a.disc.Matches(seg) {
		return Match{}, false
	}
	key, err := a.disc.Decode(seg)
	if err != nil {
		return Match{}, false
	}
	effectiveContainer := container
	if !a.static {
		effectiveContainer = a.container
	}
	receiver, sub, created, ok := a.getOrCreate(effectiveContainer, key)
	if !ok {
		return Match{}, false
	}
	if a.static && created {
		a.notify(receiver)
	}
	return Match{
		ConsumedPrefix: subpath[:1],
		RemainingTail:  subpath[1:],
		Receiver:       receiver,
		SubAgency:      sub,
	}, true
}

// getOrCreate returns the cached receiver for key, constructing one
// under the agent's lock if absent or if the previous occupant's weak
// reference has gone empty — this is the "construction is serialised
// per key" invariant of spec §4.2.
func (a *IndexedAgent[K, R]) getOrCreate(container any, key K) (receiver any, sub Agency, created bool, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, found := a.entries[key]; found {
		if r, alive := e.handle.Get(); alive {
			return r, e.sub, false, true
		}
		delete(a.entries, key)
	}

	r, newSub, destroy, err := a.construct(container, key)
	if err != nil || r == nil {
		return nil, nil, false, false
	}
	entry := &indexedEntry{sub: newSub, destroy: destroy}
	entry.handle = weakref.Bind(r, func() { a.reap(key, entry) })
	a.entries[key] = entry
	a.order = append(a.order, key)
	return r, newSub, true, true
}

// reap runs when r's weak reference is observed empty. It re-checks
// that the map slot still holds this exact entry before removing it —
// a key may have been re-used by a newer construction in the interim
// (spec §9: "the lambda must re-check weak identity before removing").
func (a *IndexedAgent[K, R]) reap(key K, entry *indexedEntry) {
	a.mu.Lock()
	current, ok := a.entries[key]
	if ok && current == entry {
		delete(a.entries, key)
	}
	a.mu.Unlock()
	if ok && current == entry && entry.destroy != nil {
		entry.destroy()
	}
}

// Register implements Agent: listener is caught up on every currently
// live entry in insertion order, then retained to observe future
// entries, unless it returns done at some point (spec §4.2, §8).
func (a *IndexedAgent[K, R]) Register(_ any, listener Listener) {
	a.mu.Lock()
	liveOrder := append([]K(nil), a.order...)
	a.mu.Unlock()

	for _, k := range liveOrder {
		a.mu.Lock()
		e, ok := a.entries[k]
		a.mu.Unlock()
		if !ok {
			continue
		}
		r, alive := e.handle.Get()
		if !alive {
			continue
		}
		if listener(r) {
			return
		}
	}
	a.mu.Lock()
	a.listeners = append(a.listeners, listener)
	a.mu.Unlock()
}

// notify delivers a newly created receiver to every listener still
// awaiting entries, dropping those that report done.
func (a *IndexedAgent[K, R]) notify(receiver any) {
	a.mu.Lock()
	listeners := a.listeners
	a.mu.Unlock()

	remaining := listeners[:0:0]
	for _, l := range listeners {
		if !l(receiver) {
			remaining = append(remaining, l)
		}
	}
	a.mu.Lock()
	a.listeners = remaining
	a.mu.Unlock()
}

package agency

import (
	"sync"

	"github.com/carp-rpc/carp/internal/weakref"
)

// SingletonConstructor builds the one sub-receiver a SingletonAgent
// manages per container (spec §4.2: "Singleton agent... container-only;
// no segment consumed").
type SingletonConstructor[R any] func(container any) (receiver *R, sub Agency, destroy func(), err error)

// SingletonAgent caches at most one receiver (per container, for the
// static flavour; one overall, for the bound flavour).
type SingletonAgent[R any] struct {
	serviceType string
	construct   SingletonConstructor[R]
	static      bool
	container   any

	mu        sync.Mutex
	instances map[any]*indexedEntry // keyed by container identity; bound uses a single nil key
	order     []any
	listeners []Listener
}

// NewStaticSingletonAgent builds a static Singleton agent: one instance
// is cached per distinct container passed to Match.
func NewStaticSingletonAgent[R any](serviceType string, ctor SingletonConstructor[R]) *SingletonAgent[R] {
	return &SingletonAgent[R]{
		serviceType: serviceType,
		construct:   ctor,
		static:      true,
		instances:   make(map[any]*indexedEntry),
	}
}

// NewBoundSingletonAgent builds a bound Singleton agent closed over one
// container; exactly one instance is ever cached.
func NewBoundSingletonAgent[R any](serviceType string, ctor SingletonConstructor[R], container any) *SingletonAgent[R] {
	return &SingletonAgent[R]{
		serviceType: serviceType,
		construct:   ctor,
		static:      false,
		container:   container,
		instances:   make(map[any]*indexedEntry),
	}
}

func (a *SingletonAgent[R]) ServiceType() string { return a.serviceType }

// Match implements Agent. A Singleton consumes no path segment: it
// always matches (even on an empty tail), handing the remaining tail to
// its sub-agency unchanged.
func (a *SingletonAgent[R]) Match(container any, subpath Path) (Match, bool) {
	effectiveContainer := container
	cacheKey := any(container)
	if !a.static {
		effectiveContainer = a.container
		cacheKey = nil
	}
	receiver, sub, created, ok := a.getOrCreate(effectiveContainer, cacheKey)
	if !ok {
		return Match{}, false
	}
	if a.static && created {
		a.notify(receiver)
	}
	return Match{
		ConsumedPrefix: Path{},
		RemainingTail:  subpath,
		Receiver:       receiver,
		SubAgency:      sub,
	}, true
}

func (a *SingletonAgent[R]) getOrCreate(container any, cacheKey any) (receiver any, sub Agency, created bool, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, found := a.instances[cacheKey]; found {
		if r, alive := e.handle.Get(); alive {
			return r, e.sub, false, true
		}
		delete(a.instances, cacheKey)
	}

	r, newSub, destroy, err := a.construct(container)
	if err != nil || r == nil {
		return nil, nil, false, false
	}
	entry := &indexedEntry{sub: newSub, destroy: destroy}
	entry.handle = weakref.Bind(r, func() { a.reap(cacheKey, entry) })
	a.instances[cacheKey] = entry
	a.order = append(a.order, cacheKey)
	return r, newSub, true, true
}

func (a *SingletonAgent[R]) reap(cacheKey any, entry *indexedEntry) {
	a.mu.Lock()
	current, ok := a.instances[cacheKey]
	if ok && current == entry {
		delete(a.instances, cacheKey)
	}
	a.mu.Unlock()
	if ok && current == entry && entry.destroy != nil {
		entry.destroy()
	}
}

func (a *SingletonAgent[R]) Register(_ any, listener Listener) {
	a.mu.Lock()
	keys := append([]any(nil), a.order...)
	a.mu.Unlock()

	for _, k := range keys {
		a.mu.Lock()
		e, ok := a.instances[k]
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

func (a *SingletonAgent[R]) notify(receiver any) {
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

package pathmap

import (
	"sync"

	"github.com/google/uuid"

	"github.com/carp-rpc/carp/internal/agency"
	"github.com/carp-rpc/carp/internal/weakref"
)

// service is one entry of the dual path/receiver index (spec §3,
// "Service: a triple (type_id, receiver_weak, path)").
type service struct {
	path        Path
	typeID      string
	receiverKey any
	handle      weakref.Handle
	agency      agency.Agency
}

// Match is what Resolve returns for a path that is at least partially
// recognised (spec §4.3, "resolve(path) -> Match?").
type Match struct {
	TypeID   string
	Receiver any
	Head     Path
	Tail     Path
}

// PathMap is the concurrent path<->receiver index of spec §4.3.
type PathMap struct {
	rt       *Runtime
	deferred deferredQueue

	mu         sync.Mutex
	paths      map[string]*service
	byReceiver map[any]map[string]*service
}

// New builds an empty PathMap backed by rt.
func New(rt *Runtime) *PathMap {
	return &PathMap{
		rt:         rt,
		paths:      make(map[string]*service),
		byReceiver: make(map[any]map[string]*service),
	}
}

// withCallbacks is the public-entry-point wrapper of spec §4.3: drain
// the deferred queue, run op under the lock, drain again. The lock is
// never held while a queued closure runs (deferredQueue has its own
// mutex), which is what lets an op's own work safely enqueue further
// installs instead of recursing back into the PathMap.
func (pm *PathMap) withCallbacks(op func()) {
	pm.deferred.drain()
	pm.mu.Lock()
	op()
	pm.mu.Unlock()
	pm.deferred.drain()
}

// Bind installs receiver at path under typeID, wired to ag for further
// sub-path resolution (spec §4.3 "bind"). It derives the weak identity
// key from receiver's concrete pointer type.
func Bind[R any](pm *PathMap, path Path, typeID string, receiver *R, ag agency.Agency) {
	key := weakref.KeyOf(receiver)
	handle := weakref.Bind(receiver, func() { pm.reap(key, typeID) })
	pm.withCallbacks(func() {
		pm.installLocked(path.clone(), typeID, any(receiver), key, handle, ag)
	})
}

// installLocked implements the install-reconciliation invariants of
// spec §4.3 under pm.mu.
func (pm *PathMap) installLocked(path Path, typeID string, receiver any, key any, handle weakref.Handle, ag agency.Agency) {
	pathKey := path.String()

	// Rule 2: a prior Service under the same receiver+type at a
	// different path loses its path-index entry.
	if byType, ok := pm.byReceiver[key]; ok {
		if old, ok := byType[typeID]; ok && old.path.String() != pathKey {
			if cur, ok := pm.paths[old.path.String()]; ok && cur == old {
				delete(pm.paths, old.path.String())
			}
		}
	}

	// Rule 3: a prior Service at the same path with a different
	// receiver+type loses its receiver-index entry.
	if old, ok := pm.paths[pathKey]; ok {
		if old.receiverKey != key || old.typeID != typeID {
			pm.removeFromReceiverIndexLocked(old)
		}
	}

	svc := &service{path: path, typeID: typeID, receiverKey: key, handle: handle, agency: ag}

	// Rule 1: insert under both keys.
	pm.paths[pathKey] = svc
	byType, ok := pm.byReceiver[key]
	if !ok {
		byType = make(map[string]*service)
		pm.byReceiver[key] = byType
	}
	byType[typeID] = svc

	// Rule 4: wire the agency via the deferred installer, so an agency
	// that wants to announce sub-receivers during its own construction
	// does not re-enter PathMap synchronously (spec §9).
	if inst, ok := ag.(agency.Installer); ok {
		inst.Install(pm.deferred.enqueue)
	}

	// Rule 5: retain the receiver a short while so it survives the gap
	// between install and the first external acquisition (spec §9).
	if pm.rt != nil {
		pm.rt.packrat.retain(receiver)
	}
}

func (pm *PathMap) removeFromReceiverIndexLocked(svc *service) {
	byType, ok := pm.byReceiver[svc.receiverKey]
	if !ok {
		return
	}
	if cur, ok := byType[svc.typeID]; ok && cur == svc {
		delete(byType, svc.typeID)
		if len(byType) == 0 {
			delete(pm.byReceiver, svc.receiverKey)
		}
	}
}

// reap runs when a bound receiver's weak reference is observed empty.
// It re-checks identity before removing, per spec §5's "compare and
// remove" discipline — a newer bind may have already reused this slot.
func (pm *PathMap) reap(key any, typeID string) {
	pm.withCallbacks(func() {
		byType, ok := pm.byReceiver[key]
		if !ok {
			return
		}
		svc, ok := byType[typeID]
		if !ok {
			return
		}
		if _, alive := svc.handle.Get(); alive {
			return
		}
		delete(byType, typeID)
		if len(byType) == 0 {
			delete(pm.byReceiver, key)
		}
		if cur, ok := pm.paths[svc.path.String()]; ok && cur == svc {
			delete(pm.paths, svc.path.String())
		}
	})
}

// UnbindPath removes whatever is bound at path.
func (pm *PathMap) UnbindPath(path Path) {
	pm.withCallbacks(func() {
		pathKey := path.String()
		svc, ok := pm.paths[pathKey]
		if !ok {
			return
		}
		delete(pm.paths, pathKey)
		pm.removeFromReceiverIndexLocked(svc)
	})
}

// UnbindService removes receiver's binding under typeID, wherever it
// is currently bound.
func UnbindService[R any](pm *PathMap, typeID string, receiver *R) {
	key := weakref.KeyOf(receiver)
	pm.withCallbacks(func() {
		byType, ok := pm.byReceiver[key]
		if !ok {
			return
		}
		svc, ok := byType[typeID]
		if !ok {
			return
		}
		delete(byType, typeID)
		if len(byType) == 0 {
			delete(pm.byReceiver, key)
		}
		if cur, ok := pm.paths[svc.path.String()]; ok && cur == svc {
			delete(pm.paths, svc.path.String())
		}
	})
}

// UnbindReceiver removes every binding of receiver, across all types.
func UnbindReceiver[R any](pm *PathMap, receiver *R) {
	key := weakref.KeyOf(receiver)
	pm.withCallbacks(func() {
		byType, ok := pm.byReceiver[key]
		if !ok {
			return
		}
		for _, svc := range byType {
			if cur, ok := pm.paths[svc.path.String()]; ok && cur == svc {
				delete(pm.paths, svc.path.String())
			}
		}
		delete(pm.byReceiver, key)
	})
}

// Locate performs the reverse lookup: the path receiver is currently
// bound at under typeID, or ok=false if unbound.
func Locate[R any](pm *PathMap, typeID string, receiver *R) (Path, bool) {
	key := weakref.KeyOf(receiver)
	var path Path
	var found bool
	pm.withCallbacks(func() {
		byType, ok := pm.byReceiver[key]
		if !ok {
			return
		}
		svc, ok := byType[typeID]
		if !ok {
			return
		}
		if _, alive := svc.handle.Get(); !alive {
			return
		}
		path, found = svc.path.clone(), true
	})
	return path, found
}

// Recognize is Locate, but allocates an anonymous path of shape
// ["anon", <uuid-v4>] and binds receiver there when it is not already
// bound under typeID (spec §4.3, §6).
func Recognize[R any](pm *PathMap, typeID string, receiver *R, ag agency.Agency) Path {
	if path, ok := Locate(pm, typeID, receiver); ok {
		return path
	}
	anon := Path{"anon", uuid.NewString()}
	Bind(pm, anon, typeID, receiver, ag)
	return anon
}

// LocateAny is Locate's any-erased counterpart, for callers that only
// ever see a type-erased receiver — codec.EncodingContext.EstablishCallback
// (spec §4.1) is the one in this codebase. Unlike Locate it cannot bind a
// receiver it does not already find: weak.Make's generic instantiation
// needs the receiver's concrete pointer type at compile time, which an
// any has already erased by the time it reaches here. A receiver must
// already have been bound through the generic Bind or Recognize before
// it can be found this way.
func LocateAny(pm *PathMap, typeID string, receiver any) (Path, bool) {
	key, ok := weakref.IdentityKey(receiver)
	if !ok {
		return nil, false
	}
	var path Path
	var found bool
	pm.withCallbacks(func() {
		byType, ok := pm.byReceiver[key]
		if !ok {
			return
		}
		svc, ok := byType[typeID]
		if !ok {
			return
		}
		if _, alive := svc.handle.Get(); !alive {
			return
		}
		path, found = svc.path.clone(), true
	})
	return path, found
}

// Resolve implements the longest-prefix-match algorithm of spec §4.3:
// find the longest bound prefix of path whose receiver is still alive,
// then recurse through agencies over the remaining tail.
func (pm *PathMap) Resolve(path Path) (Match, bool) {
	var result Match
	var found bool
	pm.withCallbacks(func() {
		result, found = pm.resolveLocked(path)
	})
	return result, found
}

func (pm *PathMap) resolveLocked(path Path) (Match, bool) {
	for i := len(path); i >= 0; i-- {
		head := path[:i]
		svc, ok := pm.paths[head.String()]
		if !ok {
			continue
		}
		receiver, alive := svc.handle.Get()
		if !alive {
			continue
		}
		typeID := svc.typeID
		ag := svc.agency
		consumed := head.clone()
		tail := path[i:].clone()
		for len(tail) > 0 && ag != nil {
			res, ok := ag.Resolve(receiver, tail.toAgency())
			if !ok {
				break
			}
			receiver = res.Receiver
			typeID = res.TypeID
			ag = res.Agency
			consumed = append(consumed, res.ConsumedPrefix...)
			tail = fromAgency(res.RemainingTail)
		}
		return Match{TypeID: typeID, Receiver: receiver, Head: consumed, Tail: tail}, true
	}
	return Match{}, false
}

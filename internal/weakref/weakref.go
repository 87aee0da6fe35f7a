// Package weakref adapts Go's weak.Pointer to the any-typed receivers
// PathMap and the agency package hold (spec §4.3, §9). Collection is
// observed through runtime.AddCleanup callbacks, not a polled queue.
// weak.Pointer is a generic construct and cannot be built from a bare
// any at runtime, so callers that know the receiver's concrete pointer
// type call Bind once; everything downstream works through the
// returned Handle, which is not generic.
package weakref

import (
	"reflect"
	"runtime"
	"weak"
)

// Handle reports whether a previously bound receiver is still alive,
// without knowing its concrete type. It also carries a comparable,
// non-pinning identity (Key) usable as a map key for a receiver-indexed
// cache.
type Handle struct {
	get func() (any, bool)
	key any
}

// Get returns the live receiver, or ok=false if it has been collected.
func (h Handle) Get() (any, bool) {
	if h.get == nil {
		return nil, false
	}
	return h.get()
}

// Key returns a comparable identity for the bound receiver, stable
// across calls and equal to IdentityKey computed later from the same
// receiver handed around as a plain any, without pinning the referent.
func (h Handle) Key() any { return h.key }

// Bind wraps r in a weak.Pointer and arranges for onCollected to run
// once the garbage collector reclaims it. onCollected may be nil.
//
// The cleanup runs on a separate goroutine after collection and must
// not assume any lock is held; callers that touch shared state from it
// re-check liveness under their own lock first (compare-and-remove),
// per spec §5's weak reference discipline.
func Bind[R any](r *R, onCollected func()) Handle {
	wp := weak.Make(r)
	if onCollected != nil {
		runtime.AddCleanup(r, func(cb func()) { cb() }, onCollected)
	}
	return Handle{
		key: KeyOf(r),
		get: func() (any, bool) {
			p := wp.Value()
			if p == nil {
				return nil, false
			}
			return any(p), true
		},
	}
}

// KeyOf returns the same comparable, non-pinning identity Bind would
// attach to r, without registering a cleanup — used when a caller needs
// to look a receiver up by identity before deciding whether to bind it.
func KeyOf[R any](r *R) any {
	key, _ := IdentityKey(any(r))
	return key
}

// IdentityKey derives the same comparable, non-pinning identity KeyOf
// would, from a receiver that has already been erased to any — the one
// case a generic function cannot help with, since a codec's
// EncodingContext/DecodingContext hooks (spec §4.1) only ever see a bare
// any. A pointer's numeric address, read via reflection, never itself
// keeps the referent reachable, the same non-pinning property
// weak.Pointer has. ok is false when v is not a non-nil pointer.
func IdentityKey(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	return rv.Pointer(), true
}

package weakref

import (
	"runtime"
	"testing"
	"time"
)

type receiver struct{ name string }

func TestHandleAliveWhileReferenced(t *testing.T) {
	r := &receiver{name: "bank"}
	h := Bind(r, nil)
	got, ok := h.Get()
	if !ok {
		t.Fatalf("expected handle to be alive")
	}
	if got.(*receiver).name != "bank" {
		t.Fatalf("got %+v, want bank", got)
	}
	runtime.KeepAlive(r)
}

func TestHandleObservesCollection(t *testing.T) {
	collected := make(chan struct{}, 1)
	h := func() Handle {
		r := &receiver{name: "ephemeral"}
		return Bind(r, func() { collected <- struct{}{} })
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.GC()
		select {
		case <-collected:
			if _, ok := h.Get(); ok {
				t.Fatalf("Get() should report collected after cleanup fired")
			}
			return
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Skip("garbage collector did not reclaim the receiver within the test deadline")
}

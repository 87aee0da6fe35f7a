package pathmap

import (
	"strconv"
	"sync"
	"testing"

	"github.com/carp-rpc/carp/internal/agency"
)

type account struct {
	id int
}

type ledger struct {
	id int
}

// stepAgency consumes exactly one path segment, handing back a fixed
// sub-receiver under typeID, so Resolve's recursion (spec §4.3 Scenario
// 4) has something to walk through without a real agent behind it.
type stepAgency struct {
	segment  string
	typeID   string
	receiver any
	next     agency.Agency
}

func (a stepAgency) Resolve(receiver any, tail agency.Path) (agency.Resolution, bool) {
	if len(tail) == 0 || tail[0] != a.segment {
		return agency.Resolution{}, false
	}
	return agency.Resolution{
		Receiver:       a.receiver,
		TypeID:         a.typeID,
		Agency:         a.next,
		ConsumedPrefix: agency.Path{tail[0]},
		RemainingTail:  tail[1:],
	}, true
}

func TestBindResolveLocate(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	Bind(pm, Path{"accounts", "1"}, "Account", a, nil)

	match, ok := pm.Resolve(Path{"accounts", "1"})
	if !ok {
		t.Fatalf("expected resolve to find the bound receiver")
	}
	if match.Receiver.(*account) != a || match.TypeID != "Account" || len(match.Tail) != 0 {
		t.Fatalf("unexpected match: %+v", match)
	}

	path, ok := Locate(pm, "Account", a)
	if !ok || path.String() != "accounts/1" {
		t.Fatalf("Locate = %v, %v, want accounts/1, true", path, ok)
	}
}

func TestResolveLongestPrefixRecursesThroughAgency(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	sub := &ledger{id: 9}
	ag := stepAgency{segment: "ledger", typeID: "Ledger", receiver: sub}
	Bind(pm, Path{"accounts", "1"}, "Account", a, ag)

	match, ok := pm.Resolve(Path{"accounts", "1", "ledger", "entries"})
	if !ok {
		t.Fatalf("expected resolve to succeed")
	}
	if match.TypeID != "Ledger" || match.Receiver.(*ledger) != sub {
		t.Fatalf("unexpected match after agency recursion: %+v", match)
	}
	if match.Tail.String() != "entries" {
		t.Fatalf("tail = %q, want %q", match.Tail.String(), "entries")
	}
	if match.Head.String() != "accounts/1/ledger" {
		t.Fatalf("head = %q, want %q", match.Head.String(), "accounts/1/ledger")
	}
}

func TestResolveFallsBackToShorterPrefixWhenAgencyDeclines(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	ag := stepAgency{segment: "ledger", typeID: "Ledger", receiver: &ledger{}}
	Bind(pm, Path{"accounts", "1"}, "Account", a, ag)

	match, ok := pm.Resolve(Path{"accounts", "1", "unknown"})
	if !ok {
		t.Fatalf("expected resolve to find the bound prefix")
	}
	if match.TypeID != "Account" || match.Tail.String() != "unknown" {
		t.Fatalf("unexpected match: %+v", match)
	}
}

func TestResolveMissesUnboundPath(t *testing.T) {
	pm := New(nil)
	if _, ok := pm.Resolve(Path{"nothing", "here"}); ok {
		t.Fatalf("expected no match for an unbound path")
	}
}

func TestRecognizeIsIdempotent(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}

	first := Recognize(pm, "Account", a, nil)
	if len(first) != 2 || first[0] != "anon" {
		t.Fatalf("unexpected anonymous path shape: %v", first)
	}
	second := Recognize(pm, "Account", a, nil)
	if second.String() != first.String() {
		t.Fatalf("Recognize rebound an already-bound receiver: first=%s second=%s", first, second)
	}

	path, ok := Locate(pm, "Account", a)
	if !ok || path.String() != first.String() {
		t.Fatalf("Locate after Recognize = %v, %v, want %s, true", path, ok, first)
	}
}

func TestRecognizeBindsWhenNotAlreadyLocated(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	b := &account{id: 2}

	pa := Recognize(pm, "Account", a, nil)
	pb := Recognize(pm, "Account", b, nil)
	if pa.String() == pb.String() {
		t.Fatalf("two distinct receivers got the same anonymous path: %s", pa)
	}
}

func TestInstallReconciliationRule2EvictsOldPath(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	Bind(pm, Path{"accounts", "1"}, "Account", a, nil)
	Bind(pm, Path{"accounts", "moved"}, "Account", a, nil)

	if _, ok := pm.Resolve(Path{"accounts", "1"}); ok {
		t.Fatalf("expected the old path to be evicted by rule 2")
	}
	match, ok := pm.Resolve(Path{"accounts", "moved"})
	if !ok || match.Receiver.(*account) != a {
		t.Fatalf("expected the new path to resolve to the rebound receiver")
	}
	path, ok := Locate(pm, "Account", a)
	if !ok || path.String() != "accounts/moved" {
		t.Fatalf("Locate = %v, %v, want accounts/moved, true", path, ok)
	}
}

func TestInstallReconciliationRule3EvictsOldReceiver(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	b := &account{id: 2}
	Bind(pm, Path{"accounts", "1"}, "Account", a, nil)
	Bind(pm, Path{"accounts", "1"}, "Account", b, nil)

	match, ok := pm.Resolve(Path{"accounts", "1"})
	if !ok || match.Receiver.(*account) != b {
		t.Fatalf("expected the path to now resolve to the second receiver: %+v", match)
	}
	if _, ok := Locate(pm, "Account", a); ok {
		t.Fatalf("expected the first receiver's binding to be evicted by rule 3")
	}
}

func TestInstallReconciliationRule3AllowsDifferentTypeAtSamePath(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	Bind(pm, Path{"shared"}, "Account", a, nil)
	Bind(pm, Path{"shared"}, "Ledger", a, nil)

	match, ok := pm.Resolve(Path{"shared"})
	if !ok || match.TypeID != "Ledger" {
		t.Fatalf("expected the most recent binding to win at a shared path: %+v", match)
	}
	if _, ok := Locate(pm, "Account", a); ok {
		t.Fatalf("expected the Account binding to be evicted when Ledger took the same path")
	}
}

func TestUnbindPath(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	Bind(pm, Path{"accounts", "1"}, "Account", a, nil)

	pm.UnbindPath(Path{"accounts", "1"})

	if _, ok := pm.Resolve(Path{"accounts", "1"}); ok {
		t.Fatalf("expected path to be unbound")
	}
	if _, ok := Locate(pm, "Account", a); ok {
		t.Fatalf("expected receiver index to be cleared by UnbindPath")
	}
}

func TestUnbindService(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	Bind(pm, Path{"accounts", "1"}, "Account", a, nil)
	Bind(pm, Path{"ledgers", "1"}, "Ledger", a, nil)

	UnbindService(pm, "Account", a)

	if _, ok := pm.Resolve(Path{"accounts", "1"}); ok {
		t.Fatalf("expected Account binding to be removed")
	}
	match, ok := pm.Resolve(Path{"ledgers", "1"})
	if !ok || match.TypeID != "Ledger" {
		t.Fatalf("expected Ledger binding to survive UnbindService(Account)")
	}
}

func TestUnbindReceiver(t *testing.T) {
	pm := New(nil)
	a := &account{id: 1}
	Bind(pm, Path{"accounts", "1"}, "Account", a, nil)
	Bind(pm, Path{"ledgers", "1"}, "Ledger", a, nil)

	UnbindReceiver(pm, a)

	if _, ok := pm.Resolve(Path{"accounts", "1"}); ok {
		t.Fatalf("expected Account binding to be removed by UnbindReceiver")
	}
	if _, ok := pm.Resolve(Path{"ledgers", "1"}); ok {
		t.Fatalf("expected Ledger binding to be removed by UnbindReceiver")
	}
	if _, ok := Locate(pm, "Account", a); ok {
		t.Fatalf("expected receiver index to be fully cleared")
	}
}

// TestConcurrentBindResolveUnbind exercises spec §10.4's concurrency
// requirement: overlapping Bind/Resolve/Unbind* calls across goroutines
// must never race pm's internal maps (run with -race) and must leave
// the map in a consistent state once every goroutine has finished.
func TestConcurrentBindResolveUnbind(t *testing.T) {
	pm := New(nil)
	const n = 64
	accounts := make([]*account, n)
	for i := range accounts {
		accounts[i] = &account{id: i}
	}

	var wg sync.WaitGroup
	for i, a := range accounts {
		wg.Add(1)
		go func(i int, a *account) {
			defer wg.Done()
			p := Path{"accounts", strconv.Itoa(i)}
			Bind(pm, p, "Account", a, nil)
			pm.Resolve(p)
			Locate(pm, "Account", a)
		}(i, a)
	}
	wg.Wait()

	for i, a := range accounts {
		p := Path{"accounts", strconv.Itoa(i)}
		match, ok := pm.Resolve(p)
		if !ok || match.Receiver.(*account) != a {
			t.Fatalf("receiver %d not resolvable after concurrent binds", i)
		}
	}

	wg = sync.WaitGroup{}
	for i, a := range accounts {
		wg.Add(1)
		go func(i int, a *account) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				pm.UnbindPath(Path{"accounts", strconv.Itoa(i)})
			case 1:
				UnbindService(pm, "Account", a)
			default:
				UnbindReceiver(pm, a)
			}
		}(i, a)
	}
	wg.Wait()

	for i := range accounts {
		if _, ok := pm.Resolve(Path{"accounts", strconv.Itoa(i)}); ok {
			t.Fatalf("receiver %d still resolvable after concurrent unbind", i)
		}
	}
}

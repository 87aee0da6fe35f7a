package agency

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type account struct {
	id uuid.UUID
}

func uuidDiscriminator() Discriminator[uuid.UUID] {
	return Discriminator[uuid.UUID]{
		Matches: func(seg string) bool { return strings.HasPrefix(seg, "acct/") },
		Decode: func(seg string) (uuid.UUID, error) {
			return uuid.Parse(strings.TrimPrefix(seg, "acct/"))
		},
		Encode: func(id uuid.UUID) string { return "acct/" + id.String() },
	}
}

func TestIndexedAgentCachesByKey(t *testing.T) {
	var constructed int
	ctor := func(container any, key uuid.UUID) (*account, Agency, func(), error) {
		constructed++
		return &account{id: key}, nil, nil, nil
	}
	a := NewStaticIndexedAgent[uuid.UUID, account]("Bank", uuidDiscriminator(), ctor)

	id := uuid.New()
	seg := "acct/" + id.String()
	m1, ok := a.Match(nil, Path{seg, "deposit"})
	if !ok {
		t.Fatalf("expected match")
	}
	if len(m1.ConsumedPrefix) != 1 || len(m1.RemainingTail) != 1 {
		t.Fatalf("unexpected split: %+v", m1)
	}
	m2, ok := a.Match(nil, Path{seg})
	if !ok {
		t.Fatalf("expected second match")
	}
	if m1.Receiver.(*account) != m2.Receiver.(*account) {
		t.Fatalf("expected cached receiver identity")
	}
	if constructed != 1 {
		t.Fatalf("constructed = %d, want 1", constructed)
	}
}

func TestIndexedAgentRejectsNonMatchingSegment(t *testing.T) {
	ctor := func(container any, key uuid.UUID) (*account, Agency, func(), error) {
		return &account{id: key}, nil, nil, nil
	}
	a := NewStaticIndexedAgent[uuid.UUID, account]("Bank", uuidDiscriminator(), ctor)
	if _, ok := a.Match(nil, Path{"other/segment"}); ok {
		t.Fatalf("expected no match for unrecognised segment")
	}
}

func TestIndexedAgentRegisterCatchesUpExistingEntries(t *testing.T) {
	ctor := func(container any, key uuid.UUID) (*account, Agency, func(), error) {
		return &account{id: key}, nil, nil, nil
	}
	a := NewStaticIndexedAgent[uuid.UUID, account]("Bank", uuidDiscriminator(), ctor)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if _, ok := a.Match(nil, Path{"acct/" + id.String()}); !ok {
			t.Fatalf("expected match for %s", id)
		}
	}

	var seen []uuid.UUID
	a.Register(nil, func(r any) bool {
		seen = append(seen, r.(*account).id)
		return false
	})
	if len(seen) != len(ids) {
		t.Fatalf("seen = %v, want catch-up of %v", seen, ids)
	}
	for i, id := range ids {
		if seen[i] != id {
			t.Fatalf("catch-up order mismatch at %d: got %s, want %s", i, seen[i], id)
		}
	}
}

func TestStaticAgentInformsListenersOnCreate(t *testing.T) {
	ctor := func(container any, key uuid.UUID) (*account, Agency, func(), error) {
		return &account{id: key}, nil, nil, nil
	}
	static := NewStaticIndexedAgent[uuid.UUID, account]("Bank", uuidDiscriminator(), ctor)

	var informed int
	static.Register(nil, func(any) bool { informed++; return false })

	id := uuid.New()
	if _, ok := static.Match(nil, Path{"acct/" + id.String()}); !ok {
		t.Fatalf("expected match")
	}
	if informed != 1 {
		t.Fatalf("static agent should inform listeners of new entries, got %d", informed)
	}
}

func TestBoundAgentDoesNotInformListenersOnCreate(t *testing.T) {
	ctor := func(container any, key uuid.UUID) (*account, Agency, func(), error) {
		return &account{id: key}, nil, nil, nil
	}
	bound := NewBoundIndexedAgent[uuid.UUID, account]("Bank", uuidDiscriminator(), ctor, "the-container")

	var informed int
	bound.Register(nil, func(any) bool { informed++; return false })

	id := uuid.New()
	if _, ok := bound.Match(nil, Path{"acct/" + id.String()}); !ok {
		t.Fatalf("expected match")
	}
	if informed != 0 {
		t.Fatalf("bound agent must not inform listeners for entries created during match, got %d", informed)
	}
}

func TestSingletonAgentConsumesNoSegment(t *testing.T) {
	var constructed int
	ctor := func(container any) (*account, Agency, func(), error) {
		constructed++
		return &account{}, nil, nil, nil
	}
	a := NewStaticSingletonAgent[account]("Vault", ctor)

	m, ok := a.Match("container-a", Path{"balance"})
	if !ok {
		t.Fatalf("expected match")
	}
	if len(m.ConsumedPrefix) != 0 || len(m.RemainingTail) != 1 {
		t.Fatalf("singleton should consume no segments: %+v", m)
	}
	if _, ok := a.Match("container-a", Path{"balance"}); !ok {
		t.Fatalf("expected second match")
	}
	if constructed != 1 {
		t.Fatalf("constructed = %d, want 1 (cached per container)", constructed)
	}
}

func TestChainTriesAgentsInOrder(t *testing.T) {
	first := NewStaticIndexedAgent[uuid.UUID, account]("First", uuidDiscriminator(), func(any, uuid.UUID) (*account, Agency, func(), error) {
		return nil, nil, nil, fmt.Errorf("first always declines")
	})
	second := NewStaticSingletonAgent[account]("Second", func(any) (*account, Agency, func(), error) {
		return &account{}, nil, nil, nil
	})
	chain := NewChain(first, second)

	res, ok := chain.Resolve(nil, Path{"whatever"})
	if !ok {
		t.Fatalf("expected chain to fall through to second agent")
	}
	if res.TypeID != "Second" {
		t.Fatalf("TypeID = %q, want Second", res.TypeID)
	}
}

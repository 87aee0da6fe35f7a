package name

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParentLeaf(t *testing.T) {
	n := MustNew("carp", "bank", "Account")
	if got, want := n.Leaf(), "Account"; got != want {
		t.Errorf("Leaf() = %q, want %q", got, want)
	}
	parent := n.Parent()
	if diff := cmp.Diff([]string{"carp", "bank"}, parent.Words()); diff != "" {
		t.Errorf("Parent().Words() mismatch (-want +got):\n%s", diff)
	}
	if n.IsLeaf() {
		t.Errorf("IsLeaf() = true for multi-word name")
	}
	if !MustNew("Account").IsLeaf() {
		t.Errorf("IsLeaf() = false for single-word name")
	}
	if !parent.Parent().Parent().Empty() {
		t.Errorf("Parent of a two-word name should reduce to empty after one more Parent()")
	}
}

func TestResolve(t *testing.T) {
	module := MustNew("carp", "bank")
	leaf := MustNew("Account")
	got := module.Resolve(leaf)
	if want := "carp.bank.Account"; got.String() != want {
		t.Errorf("Resolve() = %q, want %q", got.String(), want)
	}
}

func TestProjections(t *testing.T) {
	n := MustNew("words-with-hyphens")
	if got, want := n.AsNativeClassName(), "WordsWithHyphens"; got != want {
		t.Errorf("AsNativeClassName() = %q, want %q", got, want)
	}
	if got, want := n.AsNativeMethodName(), "wordsWithHyphens"; got != want {
		t.Errorf("AsNativeMethodName() = %q, want %q", got, want)
	}
	if got, want := n.AsNativeConstantName(), "WORDS_WITH_HYPHENS"; got != want {
		t.Errorf("AsNativeConstantName() = %q, want %q", got, want)
	}
}

func TestEqualAndLess(t *testing.T) {
	a := MustNew("a", "b")
	b := MustNew("a", "b")
	c := MustNew("a", "c")
	if !a.Equal(b) {
		t.Errorf("expected structural equality")
	}
	if !a.Less(c) {
		t.Errorf("expected %q < %q", a, c)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Errorf("expected error for empty name")
	}
	if _, err := New("1bad"); err == nil {
		t.Errorf("expected error for word starting with a digit")
	}
}

package idl

import "github.com/carp-rpc/carp/internal/idl/name"

// Linker implements LinkContext over a fixed set of fully qualified
// modules, the way a whole compilation unit resolves References across
// module boundaries at codec-derivation time (spec §4.1: "Reference:
// delegate to the type the name resolves to at link time").
type Linker struct {
	modules []Module
}

// NewLinker builds a Linker over already-qualified modules. Callers
// are responsible for qualifying each module first; Linker itself does
// no qualification.
func NewLinker(modules ...Module) *Linker {
	return &Linker{modules: append([]Module(nil), modules...)}
}

// Lookup implements LinkContext.
func (l *Linker) Lookup(qualified name.External) (Type, bool) {
	for _, m := range l.modules {
		if t, ok := m.Lookup(qualified); ok {
			return t, true
		}
	}
	return nil, false
}

package idl

import (
	"sort"

	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// Enumeration is Enumeration(constants): an ordered, duplicate-free set
// of leaf names. Iteration order is preserved across copy, persistence
// and emit (spec §3); equality is insensitive to order (constants form
// a set), so Equal sorts before comparing while Constants() keeps the
// declared order for codegen.
type Enumeration struct {
	constants []string
	// Doc is the enumeration's documentation comment (see Structure.Doc).
	Doc string
}

// NewEnumeration validates that constants contains no duplicates before
// building the node.
func NewEnumeration(constants []string) (Enumeration, error) {
	seen := make(map[string]bool, len(constants))
	for _, c := range constants {
		if seen[c] {
			return Enumeration{}, typeModelErrf("enumeration: duplicate constant %q", c)
		}
		seen[c] = true
	}
	return Enumeration{constants: append([]string(nil), constants...)}, nil
}

// Constants returns the declared constants in declaration order.
func (e Enumeration) Constants() []string { return append([]string(nil), e.constants...) }

func (Enumeration) Kind() Kind { return KindEnumeration }

func (e Enumeration) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindEnumeration))
	if e.Doc != "" {
		props.Set(prefix+"doc", e.Doc)
	}
	props.SetCount(prefix+"const.", len(e.constants))
	for i, c := range e.constants {
		props.Set(Sub(prefix+"const.", i)+"name", c)
	}
}

func (e Enumeration) Qualify(name.External, QualificationContext, Reporter) (Type, error) {
	return e, nil
}

func (Enumeration) MustDefineInNative() bool { return true }

func (Enumeration) GatherReferences(name.External, ReferenceSink) {}

func (e Enumeration) GetEncoder(LinkContext) (codec.Codec, error) {
	return codec.Enum(e.constants), nil
}

// Equal compares two enumerations as sets of constants, per spec §3.
func (e Enumeration) Equal(o Enumeration) bool {
	if len(e.constants) != len(o.constants) {
		return false
	}
	a := append([]string(nil), e.constants...)
	b := append([]string(nil), o.constants...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LoadEnumeration reconstructs an Enumeration from its flat properties.
func LoadEnumeration(prefix string, props Properties) (Type, error) {
	n, err := props.Count(prefix + "const.")
	if err != nil {
		return nil, err
	}
	constants := make([]string, n)
	for i := 0; i < n; i++ {
		v, err := props.MustGet(Sub(prefix+"const.", i) + "name")
		if err != nil {
			return nil, err
		}
		constants[i] = v
	}
	e, err := NewEnumeration(constants)
	if err != nil {
		return nil, err
	}
	e.Doc, _ = props.Get(prefix + "doc")
	return e, nil
}

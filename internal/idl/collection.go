package idl

import (
	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// Sequence is Sequence(elem): an ordered, JSON-array-backed collection.
type Sequence struct {
	Elem Type
}

func (Sequence) Kind() Kind { return KindSequence }

func (s Sequence) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindSequence))
	s.Elem.Describe(prefix+"elem.", props)
}

func (s Sequence) Qualify(self name.External, qctx QualificationContext, rep Reporter) (Type, error) {
	elem, err := s.Elem.Qualify(self, qctx, rep)
	if err != nil {
		return nil, err
	}
	if elem == s.Elem {
		return s, nil
	}
	return Sequence{Elem: elem}, nil
}

func (Sequence) MustDefineInNative() bool { return false }

func (s Sequence) GatherReferences(referrer name.External, sink ReferenceSink) {
	s.Elem.GatherReferences(referrer, sink)
}

func (s Sequence) GetEncoder(lctx LinkContext) (codec.Codec, error) {
	elem, err := s.Elem.GetEncoder(lctx)
	if err != nil {
		return codec.Codec{}, err
	}
	return codec.Sequence(elem), nil
}

// LoadSequence reconstructs a Sequence, recursing through lctx for its
// element type.
func LoadSequence(prefix string, props Properties, lctx LoadContext) (Type, error) {
	elem, err := lctx.LoadChild(prefix+"elem.", props)
	if err != nil {
		return nil, err
	}
	return Sequence{Elem: elem}, nil
}

// bitsetWidth reports whether elem is a small-integer range acceptable
// as a bitset index (spec §3 invariant), returning its width (max+1)
// when it is.
func bitsetWidth(elem Type) (int, bool) {
	i, ok := elem.(Integer)
	if !ok || i.Min == nil || i.Max == nil {
		return 0, false
	}
	if *i.Min != 0 || *i.Max < 0 || *i.Max > 4096 {
		return 0, false
	}
	return int(*i.Max) + 1, true
}

// Set is Set(elem): unordered, unique-membership collection. When elem
// is a small-integer range, the wire representation is a bitset
// (codec.BitsetSet); the decoded in-memory value is then a []int of the
// members, not a bitset. Otherwise it behaves like Sequence.
type Set struct {
	Elem Type
}

func (Set) Kind() Kind { return KindSet }

func (s Set) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindSet))
	s.Elem.Describe(prefix+"elem.", props)
}

func (s Set) Qualify(self name.External, qctx QualificationContext, rep Reporter) (Type, error) {
	elem, err := s.Elem.Qualify(self, qctx, rep)
	if err != nil {
		return nil, err
	}
	if elem == s.Elem {
		return s, nil
	}
	return Set{Elem: elem}, nil
}

func (Set) MustDefineInNative() bool { return false }

func (s Set) GatherReferences(referrer name.External, sink ReferenceSink) {
	s.Elem.GatherReferences(referrer, sink)
}

func (s Set) GetEncoder(lctx LinkContext) (codec.Codec, error) {
	if width, ok := bitsetWidth(s.Elem); ok {
		return codec.BitsetSet(width), nil
	}
	elem, err := s.Elem.GetEncoder(lctx)
	if err != nil {
		return codec.Codec{}, err
	}
	return codec.Set(elem), nil
}

// LoadSet reconstructs a Set, recursing through lctx for its element type.
func LoadSet(prefix string, props Properties, lctx LoadContext) (Type, error) {
	elem, err := lctx.LoadChild(prefix+"elem.", props)
	if err != nil {
		return nil, err
	}
	return Set{Elem: elem}, nil
}

package idl

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// StructureMember is one member of a Structure: its type and whether it
// is required.
type StructureMember struct {
	Type     Type
	Required bool
}

// Structure is Structure(members): an ordered mapping from leaf name to
// (type, required). Member order is preserved across copy, persistence
// and emit, and equality IS sensitive to it — Structure is the one
// composite where order is semantically significant, so this holds an
// *orderedmap.OrderedMap rather than a plain map.
type Structure struct {
	Members *orderedmap.OrderedMap[string, StructureMember]
	// Doc is the structure's documentation comment, markdown source as
	// written in the IDL (SPEC_FULL.md §11: rendered to a plain
	// Go doc comment by internal/gen/doc.go). Empty when undocumented.
	Doc string
}

// NewStructure builds a Structure from an ordered member list.
func NewStructure(order []string, members map[string]StructureMember) Structure {
	om := orderedmap.New[string, StructureMember]()
	for _, name := range order {
		om.Set(name, members[name])
	}
	return Structure{Members: om}
}

func (Structure) Kind() Kind { return KindStructure }

func (s Structure) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindStructure))
	if s.Doc != "" {
		props.Set(prefix+"doc", s.Doc)
	}
	props.SetCount(prefix+"member.", s.Members.Len())
	i := 0
	for pair := s.Members.Oldest(); pair != nil; pair = pair.Next() {
		sub := Sub(prefix+"member.", i)
		props.Set(sub+"name", pair.Key)
		if pair.Value.Required {
			props.Set(sub+"optional", "no")
		} else {
			props.Set(sub+"optional", "yes")
		}
		pair.Value.Type.Describe(sub, props)
		i++
	}
}

func (s Structure) Qualify(self name.External, qctx QualificationContext, rep Reporter) (Type, error) {
	changed := false
	next := orderedmap.New[string, StructureMember]()
	for pair := s.Members.Oldest(); pair != nil; pair = pair.Next() {
		qt, err := pair.Value.Type.Qualify(self, qctx, rep)
		if err != nil {
			return nil, err
		}
		if qt != pair.Value.Type {
			changed = true
		}
		next.Set(pair.Key, StructureMember{Type: qt, Required: pair.Value.Required})
	}
	if !changed {
		return s, nil
	}
	return Structure{Members: next, Doc: s.Doc}, nil
}

func (Structure) MustDefineInNative() bool { return true }

func (s Structure) GatherReferences(referrer name.External, sink ReferenceSink) {
	for pair := s.Members.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Type.GatherReferences(referrer, sink)
	}
}

func (s Structure) GetEncoder(lctx LinkContext) (codec.Codec, error) {
	members := make([]codec.Member, 0, s.Members.Len())
	for pair := s.Members.Oldest(); pair != nil; pair = pair.Next() {
		c, err := pair.Value.Type.GetEncoder(lctx)
		if err != nil {
			return codec.Codec{}, err
		}
		members = append(members, codec.Member{Name: pair.Key, Required: pair.Value.Required, Codec: c})
	}
	return codec.Struct(members, codec.NewRecordBuilder), nil
}

// OrderedNames returns the declared member order, used by source
// generation to emit accessors/builder setters in a stable sequence.
func (s Structure) OrderedNames() []string {
	names := make([]string, 0, s.Members.Len())
	for pair := s.Members.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// LoadStructure reconstructs a Structure, recursing through lctx for
// each member's type.
func LoadStructure(prefix string, props Properties, lctx LoadContext) (Type, error) {
	n, err := props.Count(prefix + "member.")
	if err != nil {
		return nil, err
	}
	order := make([]string, n)
	members := make(map[string]StructureMember, n)
	for i := 0; i < n; i++ {
		sub := Sub(prefix+"member.", i)
		mname, err := props.MustGet(sub + "name")
		if err != nil {
			return nil, err
		}
		opt, _ := props.Get(sub + "optional")
		mtype, err := lctx.LoadChild(sub, props)
		if err != nil {
			return nil, err
		}
		order[i] = mname
		members[mname] = StructureMember{Type: mtype, Required: opt != "yes"}
	}
	s := NewStructure(order, members)
	s.Doc, _ = props.Get(prefix + "doc")
	return s, nil
}

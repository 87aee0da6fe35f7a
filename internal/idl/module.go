package idl

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// Module is Module(name, imports, types): the unit of compilation and
// the top-level persisted file format of spec §6. Imports map a local
// leaf name to the fully qualified module it stands for; Types map a
// leaf name to the type declared under it.
type Module struct {
	Name    name.External
	Imports *orderedmap.OrderedMap[string, name.External]
	Types   *orderedmap.OrderedMap[string, Type]
}

// NewModule builds a Module from ordered import and type declarations.
func NewModule(n name.External, importOrder []string, imports map[string]name.External, typeOrder []string, types map[string]Type) Module {
	im := orderedmap.New[string, name.External]()
	for _, leaf := range importOrder {
		im.Set(leaf, imports[leaf])
	}
	ts := orderedmap.New[string, Type]()
	for _, leaf := range typeOrder {
		ts.Set(leaf, types[leaf])
	}
	return Module{Name: n, Imports: im, Types: ts}
}

func (Module) Kind() Kind { return KindModule }

// Describe writes the flat, line-oriented module file described by spec
// §6: "import.count=<n>", "import.<i>.name=...", "import.<i>.target=...",
// "type.count=<n>", "type.<i>.name=...", plus the named type's own
// describe output under the same "type.<i>." prefix.
func (m Module) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindModule))
	props.Set(prefix+"name", m.Name.String())
	props.SetCount(prefix+"import.", m.Imports.Len())
	i := 0
	for pair := m.Imports.Oldest(); pair != nil; pair = pair.Next() {
		sub := Sub(prefix+"import.", i)
		props.Set(sub+"name", pair.Key)
		props.Set(sub+"target", pair.Value.String())
		i++
	}
	props.SetCount(prefix+"type.", m.Types.Len())
	i = 0
	for pair := m.Types.Oldest(); pair != nil; pair = pair.Next() {
		sub := Sub(prefix+"type.", i)
		props.Set(sub+"name", pair.Key)
		pair.Value.Describe(sub, props)
		i++
	}
}

// Qualify resolves every Reference reachable from the module's own
// types, in declaration order, against qctx. The module's own name does
// not change; only its member types may.
func (m Module) Qualify(self name.External, qctx QualificationContext, rep Reporter) (Type, error) {
	changed := false
	next := orderedmap.New[string, Type]()
	for pair := m.Types.Oldest(); pair != nil; pair = pair.Next() {
		memberSelf := m.Name.Resolve(name.MustNew(pair.Key))
		qt, err := pair.Value.Qualify(memberSelf, qctx, rep)
		if err != nil {
			return nil, err
		}
		switch orig := pair.Value.(type) {
		case Enumeration:
			// Enumeration.Qualify always returns its receiver; the node
			// holds a slice, so it cannot be compared with !=.
		case Interface:
			// Interface.Qualify returns its receiver, Calls map included,
			// when nothing changed; the node holds a slice, so it cannot
			// be compared with != either.
			if qt.(Interface).Calls != orig.Calls {
				changed = true
			}
		default:
			if qt != pair.Value {
				changed = true
			}
		}
		next.Set(pair.Key, qt)
	}
	if !changed {
		return m, nil
	}
	return Module{Name: m.Name, Imports: m.Imports, Types: next}, nil
}

func (Module) MustDefineInNative() bool { return false }

func (m Module) GatherReferences(_ name.External, sink ReferenceSink) {
	for pair := m.Types.Oldest(); pair != nil; pair = pair.Next() {
		referrer := m.Name.Resolve(name.MustNew(pair.Key))
		pair.Value.GatherReferences(referrer, sink)
	}
}

// GetEncoder is not meaningful for a Module itself — only its member
// types are ever encoded on the wire.
func (m Module) GetEncoder(LinkContext) (codec.Codec, error) {
	return codec.Codec{}, typeModelErrf("module %q has no codec of its own", m.Name)
}

// Lookup implements LinkContext for a single module in isolation,
// resolving a qualified name against this module's own declared types.
// Multi-module linking composes several of these (see internal/idl's
// link orchestration).
func (m Module) Lookup(qualified name.External) (Type, bool) {
	if !qualified.Parent().Equal(m.Name) {
		return nil, false
	}
	t, ok := m.Types.Get(qualified.Leaf())
	return t, ok
}

// LoadModule reconstructs a Module from its flat properties.
func LoadModule(prefix string, props Properties, lctx LoadContext) (Type, error) {
	n, err := props.MustGet(prefix + "name")
	if err != nil {
		return nil, err
	}
	modName, err := name.Parse(n)
	if err != nil {
		return nil, typeModelErrf("module: %v", err)
	}

	ni, err := props.Count(prefix + "import.")
	if err != nil {
		return nil, err
	}
	imports := orderedmap.New[string, name.External]()
	for i := 0; i < ni; i++ {
		sub := Sub(prefix+"import.", i)
		leaf, err := props.MustGet(sub + "name")
		if err != nil {
			return nil, err
		}
		target, err := props.MustGet(sub + "target")
		if err != nil {
			return nil, err
		}
		tn, err := name.Parse(target)
		if err != nil {
			return nil, typeModelErrf("module import %q: %v", leaf, err)
		}
		imports.Set(leaf, tn)
	}

	nt, err := props.Count(prefix + "type.")
	if err != nil {
		return nil, err
	}
	types := orderedmap.New[string, Type]()
	for i := 0; i < nt; i++ {
		sub := Sub(prefix+"type.", i)
		leaf, err := props.MustGet(sub + "name")
		if err != nil {
			return nil, err
		}
		t, err := lctx.LoadChild(sub, props)
		if err != nil {
			return nil, err
		}
		types.Set(leaf, t)
	}

	return Module{Name: modName, Imports: imports, Types: types}, nil
}

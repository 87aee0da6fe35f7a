package idl

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/carp-rpc/carp/internal/idl/name"
)

// Builtins holds names resolvable without an import. The closed type
// family has no named built-in declarations today (primitives are
// inlined directly into the type tree, never referenced by name), so
// the default set is empty; it exists as an extension point for the
// qualification algorithm's third lookup tier (spec §4.1 step 1).
var Builtins = map[string]name.External{}

// ModuleQualifier implements QualificationContext for a single module
// being qualified against its own imports and locally defined types,
// then built-ins, in that order (spec §4.1 step 1).
type ModuleQualifier struct {
	ModuleName  name.External
	Imports     *orderedmap.OrderedMap[string, name.External]
	LocalLeaves map[string]bool
}

// NewModuleQualifier builds a qualifier from a Module's own imports and
// type declarations.
func NewModuleQualifier(m Module) *ModuleQualifier {
	locals := make(map[string]bool, m.Types.Len())
	for pair := m.Types.Oldest(); pair != nil; pair = pair.Next() {
		locals[pair.Key] = true
	}
	return &ModuleQualifier{ModuleName: m.Name, Imports: m.Imports, LocalLeaves: locals}
}

// Resolve implements QualificationContext.
func (q *ModuleQualifier) Resolve(short name.External) (name.External, bool) {
	if !short.IsLeaf() {
		return short, true
	}
	leaf := short.Leaf()
	if target, ok := q.Imports.Get(leaf); ok {
		return target, true
	}
	if q.LocalLeaves[leaf] {
		return q.ModuleName.Resolve(short), true
	}
	if b, ok := Builtins[leaf]; ok {
		return b, true
	}
	return name.External{}, false
}

// reportedUnresolved collects diagnostics from a qualification pass; it
// implements Reporter.
type reportedUnresolved struct {
	entries []UnresolvedReference
}

// UnresolvedReference names a Reference that step 1 of qualification
// could not resolve against imports, local types or built-ins.
type UnresolvedReference struct {
	Name name.External
	Site SourceSite
}

func (r *reportedUnresolved) ReportUnresolved(n name.External, site SourceSite) {
	r.entries = append(r.entries, UnresolvedReference{Name: n, Site: site})
}

// QualifyModule qualifies m against its own imports and local types,
// returning the rewritten module plus any unresolved references
// encountered along the way. A non-empty return slice means the module
// is not yet fully qualified; callers should report it positionally
// rather than treating it as a fatal error (spec §4.1, §7: "a failure
// in the type model at compile time is reported positionally ... and
// does not abort a whole module").
func QualifyModule(m Module) (Module, []UnresolvedReference, error) {
	qctx := NewModuleQualifier(m)
	rep := &reportedUnresolved{}
	qt, err := m.Qualify(m.Name, qctx, rep)
	if err != nil {
		return Module{}, nil, err
	}
	return qt.(Module), rep.entries, nil
}

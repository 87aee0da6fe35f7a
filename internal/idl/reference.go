package idl

import (
	"strconv"

	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// Reference is Reference(name, source_site): a late-bound name, resolved
// to a fully qualified name during qualification and to a Type at link
// time (spec §3, §4.1).
type Reference struct {
	Name name.External
	Site SourceSite
}

func (Reference) Kind() Kind { return KindReference }

func (r Reference) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindReference))
	props.Set(prefix+"name", r.Name.String())
	if r.Site.File != "" {
		props.Set(prefix+"site.file", r.Site.File)
		props.Set(prefix+"site.line", itoa(r.Site.Line))
	}
}

// Qualify expands a leaf reference against imports, then locally
// defined names (enclosing module prefixed), then built-ins (spec
// §4.1 step 1). A Reference that is already multi-word is assumed
// qualified and returned unchanged, matching "a Reference whose name is
// a leaf before qualification must either match ... otherwise it is
// reported and left unresolved" (only leaves are subject to lookup).
func (r Reference) Qualify(self name.External, qctx QualificationContext, rep Reporter) (Type, error) {
	if !r.Name.IsLeaf() {
		return r, nil
	}
	qualified, ok := qctx.Resolve(r.Name)
	if !ok {
		if rep != nil {
			rep.ReportUnresolved(r.Name, r.Site)
		}
		return r, nil
	}
	if qualified.Equal(r.Name) {
		return r, nil
	}
	return Reference{Name: qualified, Site: r.Site}, nil
}

func (Reference) MustDefineInNative() bool { return false }

func (r Reference) GatherReferences(referrer name.External, sink ReferenceSink) {
	sink.Edge(referrer, r.Name)
}

// GetEncoder delegates to the type the name resolves to at link time
// (spec §4.1). A Reference that has not been qualified, or that does
// not resolve in lctx, is a NameResolution error — by link time every
// Reference in a fully qualified module must resolve.
func (r Reference) GetEncoder(lctx LinkContext) (codec.Codec, error) {
	target, ok := lctx.Lookup(r.Name)
	if !ok {
		return codec.Codec{}, nameResolutionErrf("unresolved reference %q", r.Name)
	}
	return target.GetEncoder(lctx)
}

// LoadReference reconstructs a Reference from its flat properties.
func LoadReference(prefix string, props Properties) (Type, error) {
	n, err := props.MustGet(prefix + "name")
	if err != nil {
		return nil, err
	}
	qn, err := name.Parse(n)
	if err != nil {
		return nil, typeModelErrf("reference: %v", err)
	}
	r := Reference{Name: qn}
	if f, ok := props.Get(prefix + "site.file"); ok {
		r.Site.File = f
	}
	if l, ok := props.Get(prefix + "site.line"); ok {
		line, err := strconv.Atoi(l)
		if err != nil {
			return nil, typeModelErrf("reference: bad site.line %q: %v", l, err)
		}
		r.Site.Line = line
	}
	return r, nil
}

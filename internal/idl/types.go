// Package idl implements CARP's closed type-node family (spec §3, §4.1):
// Boolean, Integer, Real, String, UUID, Sequence, Set, Enumeration,
// Structure, Interface, Reference and Module, each supporting
// qualification, persistence, codec derivation and native code emission.
package idl

import (
	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// Kind tags the persisted and in-memory variant of a Type, per the
// factory keys of spec §6.
type Kind string

const (
	KindBoolean     Kind = "bool"
	KindInteger     Kind = "int"
	KindReal        Kind = "real"
	KindString      Kind = "string"
	KindUUID        Kind = "uuid"
	KindSequence    Kind = "seq"
	KindSet         Kind = "set"
	KindEnumeration Kind = "enum"
	KindStructure   Kind = "struct"
	KindInterface   Kind = "iface"
	KindReference   Kind = "ref"
	KindModule      Kind = "module"
)

// LoadContext is threaded through Load, giving composite types a way to
// recursively construct their children via the factory registry.
type LoadContext interface {
	LoadChild(prefix string, props Properties) (Type, error)
}

// QualificationContext maps a short (possibly already-qualified) name to
// its fully qualified form, or reports that none exists (spec §4.1).
type QualificationContext interface {
	// Resolve returns the fully qualified name for a short name, or
	// ok=false if nothing in imports, local definitions or built-ins
	// matches.
	Resolve(short name.External) (name.External, bool)
}

// Reporter receives unqualified-reference diagnostics during
// qualification (spec §4.1 step 1): "If none match, report (name,
// source_site) and keep the Reference unresolved."
type Reporter interface {
	ReportUnresolved(n name.External, site SourceSite)
}

// SourceSite is an opaque location attached to a Reference for
// diagnostics; CARP's lexer/grammar are out of scope (spec §1), so this
// is whatever the already-parsed tree carried over, rendered on demand.
type SourceSite struct {
	File string
	Line int
}

func (s SourceSite) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	if s.Line <= 0 {
		return s.File
	}
	return s.File + ":" + itoa(s.Line)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// LinkContext resolves a fully qualified name to its Type at runtime,
// the way Reference.GetEncoder needs to "delegate to the type the name
// resolves to at link time" (spec §4.1).
type LinkContext interface {
	Lookup(qualified name.External) (Type, bool)
}

// ReferenceSink receives graph edges emitted by GatherReferences: an
// edge from `referrer` to the type referenced by `target`.
type ReferenceSink interface {
	Edge(referrer name.External, target name.External)
}

// Type is the contract every node of the closed family implements (spec
// §4.1). Qualify returns the receiver unchanged when no replacement is
// needed, and a new node otherwise — never mutates the receiver.
type Type interface {
	Kind() Kind
	Describe(prefix string, props Properties)
	Qualify(selfName name.External, qctx QualificationContext, rep Reporter) (Type, error)
	GetEncoder(lctx LinkContext) (codec.Codec, error)
	MustDefineInNative() bool
	GatherReferences(referrer name.External, sink ReferenceSink)
}

// Load reconstructs a Type from its flat properties using the factory
// registry keyed by the "type" tag (spec §6).
func Load(prefix string, props Properties, lctx LoadContext) (Type, error) {
	tag, err := props.MustGet(prefix + "type")
	if err != nil {
		return nil, err
	}
	factory, ok := factories[Kind(tag)]
	if !ok {
		return nil, typeModelErrf("unknown type tag %q at %q", tag, prefix)
	}
	return factory(prefix, props, lctx)
}

type factoryFunc func(prefix string, props Properties, lctx LoadContext) (Type, error)

// factories is the closed registry discovery mechanism of spec §6: a
// small, exhaustive match is preferred over plugin registration (spec
// §9, Design Notes) — this map exists only because Go has no native
// sum-type switch, not as an extension point.
var factories = map[Kind]factoryFunc{
	KindBoolean:     func(p string, props Properties, _ LoadContext) (Type, error) { return LoadBoolean(p, props) },
	KindUUID:        func(p string, props Properties, _ LoadContext) (Type, error) { return LoadUUIDType(p, props) },
	KindInteger:     func(p string, props Properties, _ LoadContext) (Type, error) { return LoadInteger(p, props) },
	KindReal:        func(p string, props Properties, _ LoadContext) (Type, error) { return LoadReal(p, props) },
	KindString:      func(p string, props Properties, _ LoadContext) (Type, error) { return LoadString(p, props) },
	KindSequence:    LoadSequence,
	KindSet:         LoadSet,
	KindEnumeration: func(p string, props Properties, _ LoadContext) (Type, error) { return LoadEnumeration(p, props) },
	KindStructure:   LoadStructure,
	KindInterface:   LoadInterface,
	KindReference:   func(p string, props Properties, _ LoadContext) (Type, error) { return LoadReference(p, props) },
	KindModule:      LoadModule,
}

package idl

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// ResponseSpec is a Structure-like tuple of named parameters, describing
// one response variant of a call (spec §3).
type ResponseSpec struct {
	Parameters Structure
}

func (r ResponseSpec) describe(prefix string, props Properties) {
	r.Parameters.Describe(prefix, props)
}

func (r ResponseSpec) qualify(self name.External, qctx QualificationContext, rep Reporter) (ResponseSpec, error) {
	qt, err := r.Parameters.Qualify(self, qctx, rep)
	if err != nil {
		return ResponseSpec{}, err
	}
	return ResponseSpec{Parameters: qt.(Structure)}, nil
}

func (r ResponseSpec) gatherReferences(referrer name.External, sink ReferenceSink) {
	r.Parameters.GatherReferences(referrer, sink)
}

func loadResponseSpec(prefix string, props Properties, lctx LoadContext) (ResponseSpec, error) {
	st, err := LoadStructure(prefix, props, lctx)
	if err != nil {
		return ResponseSpec{}, err
	}
	return ResponseSpec{Parameters: st.(Structure)}, nil
}

// CallSpec is CallSpec(parameters, responses): a call's argument tuple
// and its ordered mapping of response-variant name to ResponseSpec. An
// empty Responses map marks a fire-and-forget call (spec §4.4).
type CallSpec struct {
	Parameters Structure
	Responses  *orderedmap.OrderedMap[string, ResponseSpec]
}

func (c CallSpec) describe(prefix string, props Properties) {
	c.Parameters.Describe(prefix+"params.", props)
	props.SetCount(prefix+"rsp.", c.Responses.Len())
	i := 0
	for pair := c.Responses.Oldest(); pair != nil; pair = pair.Next() {
		sub := Sub(prefix+"rsp.", i)
		props.Set(sub+"name", pair.Key)
		pair.Value.describe(sub, props)
		i++
	}
}

func (c CallSpec) qualify(self name.External, qctx QualificationContext, rep Reporter) (CallSpec, bool, error) {
	changed := false
	qp, err := c.Parameters.Qualify(self, qctx, rep)
	if err != nil {
		return CallSpec{}, false, err
	}
	if qp != c.Parameters {
		changed = true
	}
	next := orderedmap.New[string, ResponseSpec]()
	for pair := c.Responses.Oldest(); pair != nil; pair = pair.Next() {
		qr, err := pair.Value.qualify(self, qctx, rep)
		if err != nil {
			return CallSpec{}, false, err
		}
		if qr.Parameters != pair.Value.Parameters {
			changed = true
		}
		next.Set(pair.Key, qr)
	}
	return CallSpec{Parameters: qp.(Structure), Responses: next}, changed, nil
}

func (c CallSpec) gatherReferences(referrer name.External, sink ReferenceSink) {
	c.Parameters.GatherReferences(referrer, sink)
	for pair := c.Responses.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.gatherReferences(referrer, sink)
	}
}

func loadCallSpec(prefix string, props Properties, lctx LoadContext) (CallSpec, error) {
	params, err := LoadStructure(prefix+"params.", props, lctx)
	if err != nil {
		return CallSpec{}, err
	}
	n, err := props.Count(prefix + "rsp.")
	if err != nil {
		return CallSpec{}, err
	}
	responses := orderedmap.New[string, ResponseSpec]()
	for i := 0; i < n; i++ {
		sub := Sub(prefix+"rsp.", i)
		rname, err := props.MustGet(sub + "name")
		if err != nil {
			return CallSpec{}, err
		}
		rs, err := loadResponseSpec(sub, props, lctx)
		if err != nil {
			return CallSpec{}, err
		}
		responses.Set(rname, rs)
	}
	return CallSpec{Parameters: params.(Structure), Responses: responses}, nil
}

// Interface is Interface(ancestors, calls): an ordered sequence of
// ancestor references plus an ordered mapping of call name to CallSpec.
// QualifiedName is set once the owning Module has been qualified and
// keys the callback URIs this interface's codec establishes; it is not
// part of the persisted form (spec §6 only persists ancestors/calls).
type Interface struct {
	Ancestors     []Reference
	Calls         *orderedmap.OrderedMap[string, CallSpec]
	QualifiedName name.External
	// Doc is the interface's documentation comment (see Structure.Doc).
	Doc string
}

func (Interface) Kind() Kind { return KindInterface }

func (i Interface) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindInterface))
	if i.Doc != "" {
		props.Set(prefix+"doc", i.Doc)
	}
	props.SetCount(prefix+"ancestor.", len(i.Ancestors))
	for idx, a := range i.Ancestors {
		a.Describe(Sub(prefix+"ancestor.", idx), props)
	}
	props.SetCount(prefix+"call.", i.Calls.Len())
	idx := 0
	for pair := i.Calls.Oldest(); pair != nil; pair = pair.Next() {
		sub := Sub(prefix+"call.", idx)
		props.Set(sub+"name", pair.Key)
		pair.Value.describe(sub, props)
		idx++
	}
}

func (i Interface) Qualify(self name.External, qctx QualificationContext, rep Reporter) (Type, error) {
	changed := false
	ancestors := make([]Reference, len(i.Ancestors))
	for idx, a := range i.Ancestors {
		qt, err := a.Qualify(self, qctx, rep)
		if err != nil {
			return nil, err
		}
		qa := qt.(Reference)
		if !qa.Name.Equal(a.Name) {
			changed = true
		}
		ancestors[idx] = qa
	}
	calls := orderedmap.New[string, CallSpec]()
	for pair := i.Calls.Oldest(); pair != nil; pair = pair.Next() {
		qc, callChanged, err := pair.Value.qualify(self, qctx, rep)
		if err != nil {
			return nil, err
		}
		if callChanged {
			changed = true
		}
		calls.Set(pair.Key, qc)
	}
	qualifiedName := self
	if !changed && i.QualifiedName.Equal(qualifiedName) {
		return i, nil
	}
	return Interface{Ancestors: ancestors, Calls: calls, QualifiedName: qualifiedName, Doc: i.Doc}, nil
}

func (Interface) MustDefineInNative() bool { return true }

func (i Interface) GatherReferences(referrer name.External, sink ReferenceSink) {
	for _, a := range i.Ancestors {
		a.GatherReferences(referrer, sink)
	}
	for pair := i.Calls.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.gatherReferences(referrer, sink)
	}
}

// GetEncoder returns the codec for the encoding of receivers *of* this
// interface type as callback URIs (spec §4.1, Interface case): "the
// encoder takes a receiver, calls establish_callback ... and emits it
// as a JSON string; the decoder turns the URI into a proxy".
func (i Interface) GetEncoder(LinkContext) (codec.Codec, error) {
	typeID := i.QualifiedName.String()
	return codec.Codec{
		Encode: func(ectx codec.EncodingContext, v any) (codec.Value, error) {
			uri, err := ectx.EstablishCallback(typeID, v)
			if err != nil {
				return codec.Value{}, err
			}
			return codec.String(uri), nil
		},
		Decode: func(dctx codec.DecodingContext, v codec.Value) (any, error) {
			uri, ok := v.Str()
			if !ok {
				return nil, codecDecodingErrf("interface codec: expected a JSON string URI")
			}
			return dctx.Elaborate(typeID, uri)
		},
	}, nil
}

// LoadInterface reconstructs an Interface, recursing through lctx for
// ancestor references and call parameter/response types.
func LoadInterface(prefix string, props Properties, lctx LoadContext) (Type, error) {
	na, err := props.Count(prefix + "ancestor.")
	if err != nil {
		return nil, err
	}
	ancestors := make([]Reference, na)
	for idx := 0; idx < na; idx++ {
		t, err := LoadReference(Sub(prefix+"ancestor.", idx), props)
		if err != nil {
			return nil, err
		}
		ancestors[idx] = t.(Reference)
	}
	nc, err := props.Count(prefix + "call.")
	if err != nil {
		return nil, err
	}
	calls := orderedmap.New[string, CallSpec]()
	for idx := 0; idx < nc; idx++ {
		sub := Sub(prefix+"call.", idx)
		cname, err := props.MustGet(sub + "name")
		if err != nil {
			return nil, err
		}
		cs, err := loadCallSpec(sub, props, lctx)
		if err != nil {
			return nil, err
		}
		calls.Set(cname, cs)
	}
	doc, _ := props.Get(prefix + "doc")
	return Interface{Ancestors: ancestors, Calls: calls, Doc: doc}, nil
}

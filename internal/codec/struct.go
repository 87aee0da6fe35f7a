package codec

// StructGetter exposes a structure value's members to the encoder.
// Record implements it; the structure types internal/gen emits do not.
// ok is false for an unset optional member, which the encoder then
// omits from the wire object.
type StructGetter interface {
	CarpGet(member string) (value any, ok bool)
}

// StructBuilder collects decoded members by name. Record implements it;
// the builders internal/gen emits do not. CarpBuild is called once,
// after every present member has been set; Struct's decoder has already
// checked the required members by then.
type StructBuilder interface {
	CarpSet(member string, v any) error
	CarpBuild() (any, error)
}

// Member describes one structure member for codec derivation: its
// declared name, whether it is required, and its element codec.
type Member struct {
	Name     string
	Required bool
	Codec    Codec
}

// Struct derives a codec for a Structure(members) type node. newBuilder
// produces a fresh StructBuilder for each Decode call.
func Struct(members []Member, newBuilder func() StructBuilder) Codec {
	return Codec{
		Encode: func(ectx EncodingContext, v any) (Value, error) {
			g, ok := v.(StructGetter)
			if !ok {
				return Value{}, encErr("expected a StructGetter, got %T", v)
			}
			fields := make([]ObjectField, 0, len(members))
			for _, m := range members {
				val, present := g.CarpGet(m.Name)
				if !present {
					if m.Required {
						return Value{}, encErr("required member %q has no value", m.Name)
					}
					continue
				}
				ev, err := m.Codec.Encode(ectx, val)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field(m.Name, ev))
			}
			return Object(fields...), nil
		},
		Decode: func(dctx DecodingContext, v Value) (any, error) {
			if !v.IsObject() {
				return nil, decErr("expected a JSON object")
			}
			b := newBuilder()
			for _, m := range members {
				raw, ok := v.Get(m.Name)
				if !ok || raw.IsNull() {
					if m.Required {
						return nil, decErr("missing required field %q", m.Name)
					}
					continue
				}
				dv, err := m.Codec.Decode(dctx, raw)
				if err != nil {
					return nil, err
				}
				if err := b.CarpSet(m.Name, dv); err != nil {
					return nil, decErr("member %q: %v", m.Name, err)
				}
			}
			return b.CarpBuild()
		},
	}
}

// Record is a generic StructGetter/StructBuilder backed by an ordered
// slice of fields. It stands in for a generated structure type wherever
// CARP's runtime (call parameters, response variants) needs a structural
// value without a compiled native type — order- and presence-preserving,
// unlike a plain map.
type Record struct {
	order  []string
	values map[string]any
	set    map[string]bool
}

// NewRecord returns an empty Record ready for CarpSet calls.
func NewRecord() *Record {
	return &Record{values: map[string]any{}, set: map[string]bool{}}
}

func (r *Record) CarpSet(member string, v any) error {
	if !r.set[member] {
		r.order = append(r.order, member)
	}
	r.set[member] = true
	r.values[member] = v
	return nil
}

func (r *Record) CarpBuild() (any, error) { return r, nil }

func (r *Record) CarpGet(member string) (any, bool) {
	if !r.set[member] {
		return nil, false
	}
	return r.values[member], true
}

// Get is the idiomatic accessor callers use once a Record has been
// decoded or built.
func (r *Record) Get(member string) (any, bool) { return r.CarpGet(member) }

// NewRecordBuilder adapts NewRecord to the newBuilder signature Struct
// expects.
func NewRecordBuilder() StructBuilder { return NewRecord() }

package idl

import (
	"strconv"

	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// Boolean is a no-field primitive type node.
type Boolean struct{}

func (Boolean) Kind() Kind                                 { return KindBoolean }
func (Boolean) Describe(prefix string, props Properties)   { props.Set(prefix+"type", string(KindBoolean)) }
func (b Boolean) Qualify(name.External, QualificationContext, Reporter) (Type, error) { return b, nil }
func (Boolean) MustDefineInNative() bool                   { return false }
func (Boolean) GatherReferences(name.External, ReferenceSink) {}
func (Boolean) GetEncoder(LinkContext) (codec.Codec, error) {
	return codec.Codec{
		Encode: func(_ codec.EncodingContext, v any) (codec.Value, error) {
			b, ok := v.(bool)
			if !ok {
				return codec.Value{}, typeModelErrf("boolean codec: expected bool, got %T", v)
			}
			return codec.Bool(b), nil
		},
		Decode: func(_ codec.DecodingContext, v codec.Value) (any, error) {
			b, ok := v.Bool()
			if !ok {
				return nil, codecDecodingErrf("boolean codec: expected JSON bool")
			}
			return b, nil
		},
	}, nil
}

// LoadBoolean reconstructs a Boolean (no fields to read beyond the tag).
func LoadBoolean(prefix string, props Properties) (Type, error) {
	return Boolean{}, nil
}

// UUIDType is a no-field primitive type node transporting RFC 4122 UUIDs.
type UUIDType struct{}

func (UUIDType) Kind() Kind                               { return KindUUID }
func (UUIDType) Describe(prefix string, props Properties) { props.Set(prefix+"type", string(KindUUID)) }
func (u UUIDType) Qualify(name.External, QualificationContext, Reporter) (Type, error) {
	return u, nil
}
func (UUIDType) MustDefineInNative() bool                     { return false }
func (UUIDType) GatherReferences(name.External, ReferenceSink) {}
func (UUIDType) GetEncoder(LinkContext) (codec.Codec, error)  { return codec.UUID(), nil }

// LoadUUIDType reconstructs a UUIDType.
func LoadUUIDType(prefix string, props Properties) (Type, error) {
	return UUIDType{}, nil
}

// Integer is Integer(min, max): an inclusive range, either bound may be
// nil for unbounded.
type Integer struct {
	Min *int64
	Max *int64
}

func (Integer) Kind() Kind { return KindInteger }

func (i Integer) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindInteger))
	if i.Min != nil {
		props.Set(prefix+"min", strconv.FormatInt(*i.Min, 10))
	}
	if i.Max != nil {
		props.Set(prefix+"max", strconv.FormatInt(*i.Max, 10))
	}
}

func (i Integer) Qualify(name.External, QualificationContext, Reporter) (Type, error) { return i, nil }
func (Integer) MustDefineInNative() bool                                              { return false }
func (Integer) GatherReferences(name.External, ReferenceSink)                         {}

func (i Integer) GetEncoder(LinkContext) (codec.Codec, error) {
	return codec.IntRange(i.Min, i.Max), nil
}

// NativeWidth picks the narrowest native Go integer type compatible with
// the range (spec §3 invariant), used by source generation when
// declaring struct fields.
func (i Integer) NativeWidth() string {
	fits := func(bits int, signed bool) bool {
		var lo, hi int64
		switch {
		case signed && bits == 8:
			lo, hi = -128, 127
		case signed && bits == 16:
			lo, hi = -32768, 32767
		case signed && bits == 32:
			lo, hi = -2147483648, 2147483647
		case signed && bits == 64:
			return true
		default:
			return false
		}
		if i.Min == nil || i.Max == nil {
			return bits == 64
		}
		return *i.Min >= lo && *i.Max <= hi
	}
	switch {
	case fits(8, true):
		return "int8"
	case fits(16, true):
		return "int16"
	case fits(32, true):
		return "int32"
	default:
		return "int64"
	}
}

// LoadInteger reconstructs an Integer from its flat properties.
func LoadInteger(prefix string, props Properties) (Type, error) {
	i := Integer{}
	if v, ok := props.Get(prefix + "min"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, typeModelErrf("integer: bad min %q: %v", v, err)
		}
		i.Min = &n
	}
	if v, ok := props.Get(prefix + "max"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, typeModelErrf("integer: bad max %q: %v", v, err)
		}
		i.Max = &n
	}
	return i, nil
}

// Real is Real(precision): decimal digits, or infinite precision when
// Infinite is set (Precision is then ignored).
type Real struct {
	Precision int
	Infinite  bool
}

func (Real) Kind() Kind { return KindReal }

func (r Real) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindReal))
	if r.Infinite {
		props.Set(prefix+"precision", "infinite")
		return
	}
	props.Set(prefix+"precision", strconv.Itoa(r.Precision))
}

func (r Real) Qualify(name.External, QualificationContext, Reporter) (Type, error) { return r, nil }
func (Real) MustDefineInNative() bool                                              { return false }
func (Real) GatherReferences(name.External, ReferenceSink)                         {}

func (r Real) GetEncoder(LinkContext) (codec.Codec, error) {
	if r.Infinite {
		return codec.Real(0), nil
	}
	return codec.Real(r.Precision), nil
}

// NativeWidth picks float32/float64/big decimal per the thresholds at
// 7 and 16 significant digits (spec §3).
func (r Real) NativeWidth() string {
	switch {
	case r.Infinite:
		return "*big.Float"
	case r.Precision <= codec.PrecisionSingle:
		return "float32"
	case r.Precision <= codec.PrecisionDouble:
		return "float64"
	default:
		return "*big.Float"
	}
}

// LoadReal reconstructs a Real from its flat properties.
func LoadReal(prefix string, props Properties) (Type, error) {
	v, err := props.MustGet(prefix + "precision")
	if err != nil {
		return nil, err
	}
	if v == "infinite" {
		return Real{Infinite: true}, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, typeModelErrf("real: bad precision %q: %v", v, err)
	}
	return Real{Precision: n}, nil
}

// String is String(pattern?): an optional regular expression constraint.
// CARP neither checks that the pattern is well-formed nor enforces it in
// the runtime codec; the pattern is only carried through persistence.
type String struct {
	Pattern string // empty means unconstrained
}

func (String) Kind() Kind { return KindString }

func (s String) Describe(prefix string, props Properties) {
	props.Set(prefix+"type", string(KindString))
	if s.Pattern != "" {
		props.Set(prefix+"pattern", s.Pattern)
	}
}

func (s String) Qualify(name.External, QualificationContext, Reporter) (Type, error) { return s, nil }
func (String) MustDefineInNative() bool                                              { return false }
func (String) GatherReferences(name.External, ReferenceSink)                         {}

func (s String) GetEncoder(LinkContext) (codec.Codec, error) {
	return codec.Codec{
		Encode: func(_ codec.EncodingContext, v any) (codec.Value, error) {
			str, ok := v.(string)
			if !ok {
				return codec.Value{}, typeModelErrf("string codec: expected string, got %T", v)
			}
			return codec.String(str), nil
		},
		Decode: func(_ codec.DecodingContext, v codec.Value) (any, error) {
			str, ok := v.Str()
			if !ok {
				return nil, codecDecodingErrf("string codec: expected JSON string")
			}
			return str, nil
		},
	}, nil
}

// LoadString reconstructs a String from its flat properties.
func LoadString(prefix string, props Properties) (Type, error) {
	pattern, _ := props.Get(prefix + "pattern")
	return String{Pattern: pattern}, nil
}

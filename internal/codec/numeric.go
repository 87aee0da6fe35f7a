package codec

import (
	"math"
	"strconv"
)

// IntRange derives a codec for an Integer(min, max) type node. Either
// bound may be nil to mean unbounded. The runtime value representation
// is always int64; the *declared* native width (int8/16/32/64) is a
// source-generation concern (see internal/gen), not a codec concern —
// Go's `any` boxing gives no runtime benefit to tracking width here.
func IntRange(min, max *int64) Codec {
	inRange := func(v int64) bool {
		if min != nil && v < *min {
			return false
		}
		if max != nil && v > *max {
			return false
		}
		return true
	}
	return Codec{
		Encode: func(_ EncodingContext, v any) (Value, error) {
			i, ok := asInt64(v)
			if !ok {
				return Value{}, encErr("expected an integer, got %T", v)
			}
			if !inRange(i) {
				return Value{}, encErr("integer %d out of range [%s,%s]", i, boundStr(min), boundStr(max))
			}
			return Int(i), nil
		},
		Decode: func(_ DecodingContext, v Value) (any, error) {
			i, ok := v.Int64()
			if !ok {
				return nil, decErr("expected a whole-number JSON value")
			}
			if !inRange(i) {
				return nil, decErr("integer %d out of range [%s,%s]", i, boundStr(min), boundStr(max))
			}
			return i, nil
		},
	}
}

func boundStr(b *int64) string {
	if b == nil {
		return "-inf/+inf"
	}
	return strconv.FormatInt(*b, 10)
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		if x == math.Trunc(x) {
			return int64(x), true
		}
	}
	return 0, false
}

// Precision thresholds (spec §3, §4.1): up to 7 significant digits maps
// to a native single-precision float, up to 16 to double precision;
// beyond that (or `infinite`) to an arbitrary-precision decimal. The
// runtime codec always works in float64; the threshold only drives
// which native type declare_native emits.
const (
	PrecisionSingle = 7
	PrecisionDouble = 16
)

// Real derives a codec for a Real(precision) type node. precision <= 0
// means "infinite" (arbitrary precision); the codec still transports a
// float64, trusting the caller not to exceed float64's own precision —
// CARP does not implement a big-decimal wire representation.
func Real(precision int) Codec {
	return Codec{
		Encode: func(_ EncodingContext, v any) (Value, error) {
			f, ok := asFloat64(v)
			if !ok {
				return Value{}, encErr("expected a real number, got %T", v)
			}
			return Number(f), nil
		},
		Decode: func(_ DecodingContext, v Value) (any, error) {
			f, ok := v.Float()
			if !ok {
				if i, ok := v.Int64(); ok {
					return float64(i), nil
				}
				return nil, decErr("expected a JSON number")
			}
			return f, nil
		},
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

package codec

import "math/big"

// Sequence derives a codec for Sequence(elem): a plain JSON array whose
// items are each run through the element codec.
func Sequence(elem Codec) Codec {
	return Codec{
		Encode: func(ectx EncodingContext, v any) (Value, error) {
			items, ok := v.([]any)
			if !ok {
				return Value{}, encErr("expected a sequence, got %T", v)
			}
			out := make([]Value, len(items))
			for i, it := range items {
				ev, err := elem.Encode(ectx, it)
				if err != nil {
					return Value{}, err
				}
				out[i] = ev
			}
			return Array(out...), nil
		},
		Decode: func(dctx DecodingContext, v Value) (any, error) {
			items, ok := v.Items()
			if !ok {
				return nil, decErr("expected a JSON array")
			}
			out := make([]any, len(items))
			for i, it := range items {
				dv, err := elem.Decode(dctx, it)
				if err != nil {
					return nil, err
				}
				out[i] = dv
			}
			return out, nil
		},
	}
}

// Set derives a codec for a general Set(elem): a plain JSON array, same
// as Sequence but with set (unordered, unique) value semantics left to
// the caller — the wire shape is identical.
func Set(elem Codec) Codec {
	return Sequence(elem)
}

// BitsetSet derives a codec for Set(elem) when elem is a small-integer
// range acceptable as a bitset index (spec §3 invariant, §4.1, §8): the
// value is a set of small integers in [0, width), transported either as
// a big integer (bit i set => bit i of the integer is 1) or as a JSON
// array of ints — the decoder accepts both, the encoder always chooses
// the big-integer form. That integer is a JSON number when it fits in an
// int64 and a JSON string of its decimal digits otherwise.
func BitsetSet(width int) Codec {
	return Codec{
		Encode: func(_ EncodingContext, v any) (Value, error) {
			members, ok := v.([]int)
			if !ok {
				return Value{}, encErr("expected a []int bitset value, got %T", v)
			}
			bits := new(big.Int)
			for _, m := range members {
				if m < 0 || m >= width {
					return Value{}, encErr("bitset member %d out of range [0,%d)", m, width)
				}
				bits.SetBit(bits, m, 1)
			}
			if bits.IsInt64() {
				return Int(bits.Int64()), nil
			}
			return String(bits.Text(10)), nil
		},
		Decode: func(_ DecodingContext, v Value) (any, error) {
			if items, ok := v.Items(); ok {
				out := make([]int, 0, len(items))
				for _, it := range items {
					i, ok := it.Int64()
					if !ok || i < 0 || int(i) >= width {
						return nil, decErr("bitset array element out of range [0,%d)", width)
					}
					out = append(out, int(i))
				}
				return out, nil
			}
			var s string
			if str, ok := v.Str(); ok {
				s = str
			} else if i, ok := v.Int64(); ok {
				s = fmtInt64(i)
			} else {
				return nil, decErr("expected a bitset integer or array")
			}
			bits, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, decErr("invalid bitset integer %q", s)
			}
			out := []int{}
			for i := 0; i < width; i++ {
				if bits.Bit(i) == 1 {
					out = append(out, i)
				}
			}
			return out, nil
		},
	}
}

func fmtInt64(i int64) string {
	return big.NewInt(i).Text(10)
}

package codec

// Enum derives a codec that exchanges strings for an Enumeration(constants)
// type node. `constants` lists the IDL names in declared order (the order
// native code generation tags constants with); the runtime codec looks
// values up by name in both directions.
//
// The native representation is the declared name itself (a string). The
// enumeration types internal/gen emits are int constants; this codec
// neither produces nor accepts them.
func Enum(constants []string) Codec {
	index := make(map[string]bool, len(constants))
	for _, c := range constants {
		index[c] = true
	}
	return Codec{
		Encode: func(_ EncodingContext, v any) (Value, error) {
			s, ok := v.(string)
			if !ok {
				return Value{}, encErr("expected an enumeration constant name, got %T", v)
			}
			if !index[s] {
				return Value{}, encErr("%q is not a declared constant of this enumeration", s)
			}
			return String(s), nil
		},
		Decode: func(_ DecodingContext, v Value) (any, error) {
			s, ok := v.Str()
			if !ok {
				return nil, decErr("expected a JSON string naming an enumeration constant")
			}
			if !index[s] {
				return nil, decErr("missing field: %q is not a declared constant of this enumeration", s)
			}
			return s, nil
		},
	}
}

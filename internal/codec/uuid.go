package codec

import (
	"strings"

	"github.com/google/uuid"
)

// UUID derives a codec for the UUID type node. Decoding is deliberately
// lenient (spec §9, Open Questions): non-hex characters are stripped and
// dashes reinserted at the canonical 8-4-4-4-12 positions before parsing,
// so that historical wire values survive even if they were, say,
// uppercase or missing their dashes.
func UUID() Codec {
	return Codec{
		Encode: func(_ EncodingContext, v any) (Value, error) {
			switch x := v.(type) {
			case uuid.UUID:
				return String(x.String()), nil
			case string:
				id, err := uuid.Parse(x)
				if err != nil {
					return Value{}, encErr("invalid UUID %q: %v", x, err)
				}
				return String(id.String()), nil
			default:
				return Value{}, encErr("expected a UUID, got %T", v)
			}
		},
		Decode: func(_ DecodingContext, v Value) (any, error) {
			s, ok := v.Str()
			if !ok {
				return nil, decErr("expected a JSON string UUID")
			}
			id, err := ParseLenientUUID(s)
			if err != nil {
				return nil, decErr("invalid UUID %q: %v", s, err)
			}
			return id, nil
		},
	}
}

// ParseLenientUUID implements the normalisation from spec §9: strip
// everything but hex digits, then reinsert dashes at 8-4-4-4-12.
func ParseLenientUUID(s string) (uuid.UUID, error) {
	var hex strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			hex.WriteRune(r)
		}
	}
	h := hex.String()
	if len(h) != 32 {
		return uuid.Parse(s) // fall through to the normal parser's error
	}
	normalized := h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
	return uuid.Parse(normalized)
}

package agency

// Discriminator recognises and converts a single path segment to/from
// a key of type K (spec §4.2: "a discriminator (pattern + encode/decode
// K<->string)").
type Discriminator[K comparable] struct {
	Matches func(segment string) bool
	Decode  func(segment string) (K, error)
	Encode  func(K) string
}

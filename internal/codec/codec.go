package codec

import (
	"github.com/carp-rpc/carp/internal/carperr"
)

// EncodingContext is threaded through every Encoder call. It is the hook
// an Interface codec uses to turn a local receiver into a callback URI
// (spec §4.1): "the encoder ... calls establish_callback(type, receiver)
// on the encoding context to obtain a URI".
type EncodingContext interface {
	// EstablishCallback registers (or finds) a path for a locally bound
	// receiver of the given interface type id, returning its URI.
	EstablishCallback(typeID string, receiver any) (string, error)
}

// DecodingContext is threaded through every Decoder call. It is the hook
// an Interface codec uses to turn a URI into a native proxy.
type DecodingContext interface {
	// Elaborate turns a URI into a native handle: either the local
	// receiver bound at that path, or a client-side proxy.
	Elaborate(typeID string, uri string) (any, error)
}

// Encoder converts a native value into the wire Value tree.
type Encoder func(ectx EncodingContext, v any) (Value, error)

// Decoder converts a wire Value tree into a native value.
type Decoder func(dctx DecodingContext, v Value) (any, error)

// Codec bundles an Encoder and a Decoder derived for the same type node.
type Codec struct {
	Encode Encoder
	Decode Decoder
}

// encErr and decErr build the two codec-layer error kinds from spec §7.
func encErr(format string, args ...any) error {
	return carperr.New(carperr.CodecEncoding, format, args...)
}

func decErr(format string, args ...any) error {
	return carperr.New(carperr.CodecDecoding, format, args...)
}

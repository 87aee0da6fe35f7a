package dispatch

import (
	"github.com/carp-rpc/carp/internal/carperr"
	"github.com/carp-rpc/carp/internal/codec"
)

// HTTPSender issues the outbound POST a ClientTranslator call needs
// (spec §4.5: "an HTTP client supplier"). Presence supplies the
// net/http-backed implementation; a fire-and-forget call's response
// value may be codec.Null.
type HTTPSender interface {
	Send(uri string, body codec.Value) (codec.Value, error)
}

// FingerprintSource supplies the peer→fingerprint table a client call
// attaches to its request (spec §4.5's fingerprint repository).
type FingerprintSource interface {
	Fingerprints() PeerTable
}

// ResponseReader decodes one named response variant back into the
// generated response union (spec §4.4: "Client side is symmetric").
type ResponseReader struct {
	Codec codec.Codec
	Build func(value any) any
}

// ClientCall is one method-index entry of a ClientTranslator. An empty
// Responses marks the call fire-and-forget on the client side too.
type ClientCall struct {
	Name       string
	ParamCodec codec.Codec
	Responses  map[string]ResponseReader
}

// ClientTranslator is the proxy-side counterpart of ServerTranslator
// (spec §4.4): one per interface type, mapping a method name to the
// codec and response table an invocation on a proxy needs.
type ClientTranslator struct {
	TypeID string
	calls  map[string]*ClientCall
}

// NewClientTranslator builds a ClientTranslator from its call table.
func NewClientTranslator(typeID string, calls ...*ClientCall) *ClientTranslator {
	byName := make(map[string]*ClientCall, len(calls))
	for _, c := range calls {
		byName[c.Name] = c
	}
	return &ClientTranslator{TypeID: typeID, calls: byName}
}

// Call encodes args, collects fingerprints, sends the request through
// sender, and decodes the tagged response into the generated response
// union value (spec §4.4: "encodes arguments (collecting fingerprints of
// receivers passed by reference), sends over HTTP, decodes the response
// tagged by rsp-type"). A fire-and-forget call returns (nil, nil).
func (ct *ClientTranslator) Call(ectx codec.EncodingContext, dctx codec.DecodingContext, sender HTTPSender, fp FingerprintSource, uri string, callName string, args any) (any, error) {
	call, ok := ct.calls[callName]
	if !ok {
		return nil, carperr.New(carperr.DispatchUnknownCall, "unknown call %q on %s", callName, ct.TypeID)
	}

	req, err := call.ParamCodec.Encode(ectx, args)
	if err != nil {
		return nil, carperr.Wrap(carperr.CodecEncoding, err, "encoding arguments for %q", callName)
	}

	var prints PeerTable
	if fp != nil {
		prints = fp.Fingerprints()
	}
	envelope := Request{Prints: prints, ReqType: callName, Req: req}.Encode()

	body, err := sender.Send(uri, envelope)
	if err != nil {
		return nil, carperr.NewInternal(err, "sending %q to %s", callName, uri)
	}

	if len(call.Responses) == 0 {
		return nil, nil
	}

	rsp, err := DecodeResponse(body)
	if err != nil {
		return nil, err
	}
	reader, ok := call.Responses[rsp.RspType]
	if !ok {
		return nil, carperr.New(carperr.DispatchResponseMismatch, "unrecognised response %q for %q", rsp.RspType, callName)
	}
	value, err := reader.Codec.Decode(dctx, rsp.Rsp)
	if err != nil {
		return nil, carperr.Wrap(carperr.CodecDecoding, err, "decoding response %q", rsp.RspType)
	}
	return reader.Build(value), nil
}

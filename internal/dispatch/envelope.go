// Package dispatch implements ServerTranslator and ClientTranslator
// (spec §4.4): per-interface dispatch tables built once from a
// compiled Interface's calls, and the five-step Invoke algorithm that
// drives a request through them.
package dispatch

import (
	"sort"

	"github.com/carp-rpc/carp/internal/carperr"
	"github.com/carp-rpc/carp/internal/codec"
)

// Fingerprint is one entry of the peer→fingerprint side-table carried on
// every wire envelope (spec §6: `{"peer": "host:port", "print": "..."}`).
type Fingerprint struct {
	Peer  string
	Print string
}

// PeerTable is the ordered table spec §4.4 step 1 decodes a request's
// "prints" into, and step 5 re-encodes under the same name.
type PeerTable []Fingerprint

// Lookup returns the fingerprint a peer presented, if any.
func (t PeerTable) Lookup(peer string) (string, bool) {
	for _, f := range t {
		if f.Peer == peer {
			return f.Print, true
		}
	}
	return "", false
}

// Request is a parsed inbound envelope (spec §6): `{prints, req-type, req}`.
type Request struct {
	Prints  PeerTable
	ReqType string
	Req     codec.Value
}

// Response is the envelope a successful call with at least one response
// writer produces (spec §6): `{prints, rsp-type, rsp}`.
type Response struct {
	Prints  PeerTable
	RspType string
	Rsp     codec.Value
}

// DecodeRequest parses a wire envelope already decoded as far as the
// generic JSON value model (spec §4.4 step 1: "decode prints into a
// peer→fingerprint table").
func DecodeRequest(body codec.Value) (Request, error) {
	prints, err := decodePeerTable(fieldOrNull(body, "prints"))
	if err != nil {
		return Request{}, err
	}
	reqType, ok := fieldString(body, "req-type")
	if !ok {
		return Request{}, carperr.New(carperr.CodecDecoding, "envelope missing req-type")
	}
	return Request{Prints: prints, ReqType: reqType, Req: fieldOrNull(body, "req")}, nil
}

// Encode renders a Response as its wire envelope.
func (r Response) Encode() codec.Value {
	return codec.Object(
		codec.Field("prints", encodePeerTable(r.Prints)),
		codec.Field("rsp-type", codec.String(r.RspType)),
		codec.Field("rsp", r.Rsp),
	)
}

// Encode renders a Request as its wire envelope, the shape a
// ClientTranslator sends.
func (r Request) Encode() codec.Value {
	return codec.Object(
		codec.Field("prints", encodePeerTable(r.Prints)),
		codec.Field("req-type", codec.String(r.ReqType)),
		codec.Field("req", r.Req),
	)
}

// DecodeResponse parses a wire envelope into a Response, the shape a
// ClientTranslator receives back.
func DecodeResponse(body codec.Value) (Response, error) {
	prints, err := decodePeerTable(fieldOrNull(body, "prints"))
	if err != nil {
		return Response{}, err
	}
	rspType, ok := fieldString(body, "rsp-type")
	if !ok {
		return Response{}, carperr.New(carperr.CodecDecoding, "envelope missing rsp-type")
	}
	return Response{Prints: prints, RspType: rspType, Rsp: fieldOrNull(body, "rsp")}, nil
}

func fieldOrNull(v codec.Value, name string) codec.Value {
	f, ok := v.Get(name)
	if !ok {
		return codec.Null
	}
	return f
}

func fieldString(v codec.Value, name string) (string, bool) {
	f, ok := v.Get(name)
	if !ok {
		return "", false
	}
	return f.Str()
}

func decodePeerTable(v codec.Value) (PeerTable, error) {
	if v.IsNull() {
		return nil, nil
	}
	items, ok := v.Items()
	if !ok {
		return nil, carperr.New(carperr.CodecDecoding, "prints: expected a JSON array")
	}
	table := make(PeerTable, 0, len(items))
	for _, item := range items {
		peer, ok := fieldString(item, "peer")
		if !ok {
			return nil, carperr.New(carperr.CodecDecoding, "prints: entry missing peer")
		}
		print, ok := fieldString(item, "print")
		if !ok {
			return nil, carperr.New(carperr.CodecDecoding, "prints: entry missing print")
		}
		table = append(table, Fingerprint{Peer: peer, Print: print})
	}
	return table, nil
}

func encodePeerTable(t PeerTable) codec.Value {
	items := make([]codec.Value, 0, len(t))
	for _, f := range t {
		items = append(items, codec.Object(
			codec.Field("peer", codec.String(f.Peer)),
			codec.Field("print", codec.String(f.Print)),
		))
	}
	return codec.Array(items...)
}

func encodeParams(params map[string]string) codec.Value {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]codec.ObjectField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, codec.Field(k, codec.String(params[k])))
	}
	return codec.Object(fields...)
}

package presence

import (
	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/dispatch"
)

// Proxy is the non-short-circuited half of Elaborate (spec §4.5,
// GLOSSARY "Elaborate"): an elaborated remote interface, addressed by
// URI and driven through a ClientTranslator. Generated code wraps a
// Proxy with the interface's own native method signatures; this type
// only carries the machinery those methods delegate to.
type Proxy struct {
	typeID       string
	uri          string
	translator   *dispatch.ClientTranslator
	sender       dispatch.HTTPSender
	fingerprints dispatch.FingerprintSource
}

// TypeID is the interface type this proxy was elaborated as.
func (p *Proxy) TypeID() string { return p.typeID }

// URI is the address Elaborate produced this proxy from.
func (p *Proxy) URI() string { return p.uri }

// Call drives one method invocation through the proxy's
// ClientTranslator, the single primitive every generated native method
// delegates to.
func (p *Proxy) Call(ectx codec.EncodingContext, dctx codec.DecodingContext, callName string, args any) (any, error) {
	return p.translator.Call(ectx, dctx, p.sender, p.fingerprints, p.uri, callName, args)
}

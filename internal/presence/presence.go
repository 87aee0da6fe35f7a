// Package presence implements Presence (spec §4.5): the user-facing
// façade that couples a PathMap to translator caches, placement, and
// HTTP collaborators, and that satisfies codec.EncodingContext and
// codec.DecodingContext so generated interface codecs can turn local
// receivers into callback URIs and URIs back into native handles.
package presence

import (
	"net/http"
	"strings"
	"sync"

	"github.com/carp-rpc/carp/internal/agency"
	"github.com/carp-rpc/carp/internal/carperr"
	"github.com/carp-rpc/carp/internal/dispatch"
	"github.com/carp-rpc/carp/internal/pathmap"
)

// ClientSupplier hands out an HTTPSender for a given destination URI
// (spec §4.5, §6: "an HTTP client supplier").
type ClientSupplier interface {
	Client(uri string) dispatch.HTTPSender
}

// Placement is the base-URI-plus-server-registration collaborator of
// spec §4.5: where this process's receivers live, and how to wire a
// handler for them. The builder registers Presence's own Handler under
// the root once it is built; Placement only needs to know where to put
// it.
type Placement interface {
	BaseURI() string
	RegisterHandler(path string, handler http.Handler)
}

// FingerprintRepository is the optional peer-fingerprint collaborator
// of spec §4.5 and the GLOSSARY's "Fingerprint" entry.
type FingerprintRepository interface {
	dispatch.FingerprintSource
	Record(peer, print string)
}

// proxyKey identifies a cached Proxy by the (type, URI) pair spec §4.5
// says the proxy cache is keyed on.
type proxyKey struct {
	typeID string
	uri    string
}

// Presence is the façade of spec §4.5.
type Presence struct {
	runtime           *pathmap.Runtime
	paths             *pathmap.PathMap
	placement         Placement
	clients           ClientSupplier
	fingerprints      FingerprintRepository
	executor          dispatch.Executor
	localShortCircuit bool
	flavor            Flavor

	mu                 sync.Mutex
	serverTranslators  map[string]*dispatch.ServerTranslator
	clientTranslators  map[string]*dispatch.ClientTranslator
	proxies            map[proxyKey]*Proxy
}

func newPresence(cfg Config, flavor Flavor, rt *pathmap.Runtime) *Presence {
	return &Presence{
		runtime:           rt,
		paths:             pathmap.New(rt),
		placement:         cfg.Placement,
		clients:           cfg.Clients,
		fingerprints:      cfg.Fingerprints,
		executor:          cfg.Executor,
		localShortCircuit: cfg.LocalShortCircuitOrDefault(),
		flavor:            flavor,
		serverTranslators: make(map[string]*dispatch.ServerTranslator),
		clientTranslators: make(map[string]*dispatch.ClientTranslator),
		proxies:           make(map[proxyKey]*Proxy),
	}
}

// Flavor reports which of the three builder outcomes produced p.
func (p *Presence) Flavor() Flavor { return p.flavor }

// Close stops p's Runtime background goroutines. Safe to call on a
// Presence that shares a Runtime with others only if it owns it; the
// builder always constructs a fresh Runtime per Presence.
func (p *Presence) Close() {
	if p.runtime != nil {
		p.runtime.Close()
	}
}

// Executor returns the configured fire-and-forget executor, or nil if
// CallHandler should fall back to its own inline default.
func (p *Presence) Executor() dispatch.Executor { return p.executor }

// RegisterServerTranslator installs the dispatch table generated code
// builds for a locally-implementable interface type.
func (p *Presence) RegisterServerTranslator(typeID string, st *dispatch.ServerTranslator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.serverTranslators[typeID] = st
}

// ServerTranslatorFor returns the registered ServerTranslator for
// typeID, if any.
func (p *Presence) ServerTranslatorFor(typeID string) (*dispatch.ServerTranslator, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.serverTranslators[typeID]
	return st, ok
}

// RegisterClientTranslator installs the dispatch table generated code
// builds for an interface type this process may call as a client.
func (p *Presence) RegisterClientTranslator(typeID string, ct *dispatch.ClientTranslator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientTranslators[typeID] = ct
}

// Bind installs receiver at path under typeID (spec §4.5 "bind": "a
// thin wrapper around PathMap").
func Bind[R any](p *Presence, path pathmap.Path, typeID string, receiver *R, ag agency.Agency) {
	pathmap.Bind(p.paths, path, typeID, receiver, ag)
}

// UnbindPath removes whatever is bound at path.
func (p *Presence) UnbindPath(path pathmap.Path) {
	p.paths.UnbindPath(path)
}

// UnbindService removes receiver's binding under typeID.
func UnbindService[R any](p *Presence, typeID string, receiver *R) {
	pathmap.UnbindService(p.paths, typeID, receiver)
}

// UnbindReceiver removes every binding of receiver, across all types.
func UnbindReceiver[R any](p *Presence, receiver *R) {
	pathmap.UnbindReceiver(p.paths, receiver)
}

// Expose derives the public URI of a locally bound receiver (spec §4.5,
// GLOSSARY "Expose"), binding it at a fresh anonymous path first if it
// is not already bound under typeID.
func Expose[R any](p *Presence, typeID string, receiver *R, ag agency.Agency) (string, error) {
	path := pathmap.Recognize(p.paths, typeID, receiver, ag)
	return p.uriFor(path)
}

func (p *Presence) uriFor(path pathmap.Path) (string, error) {
	if p.placement == nil {
		return "", carperr.New(carperr.TypeModel, "presence: no placement configured, cannot derive a URI")
	}
	base := strings.TrimRight(p.placement.BaseURI(), "/")
	return base + "/" + path.String(), nil
}

// EstablishCallback implements codec.EncodingContext (spec §4.1): it
// finds the URI of an already-bound receiver. It cannot bind a fresh
// one itself — receiver has already been erased to any by the time a
// struct or interface codec calls this, and weak.Make's generic
// constructor needs the receiver's concrete pointer type at compile
// time (see pathmap.LocateAny). A receiver must have been passed to the
// generic Expose (or bound with Bind) before any value holding it
// reaches an encoder.
func (p *Presence) EstablishCallback(typeID string, receiver any) (string, error) {
	path, ok := pathmap.LocateAny(p.paths, typeID, receiver)
	if !ok {
		return "", carperr.New(carperr.TypeModel, "presence: %s receiver was never exposed before being encoded", typeID)
	}
	return p.uriFor(path)
}

// Elaborate implements codec.DecodingContext (spec §4.1, §4.5): it turns
// a URI into a native handle, short-circuiting to the local receiver
// when uri names a path under this Presence's own base and
// local-short-circuit is enabled (spec §8 Scenario 5).
func (p *Presence) Elaborate(typeID string, uri string) (any, error) {
	if p.localShortCircuit {
		if path, ok := p.localPath(uri); ok {
			if match, found := p.paths.Resolve(path); found && len(match.Tail) == 0 && match.TypeID == typeID {
				return match.Receiver, nil
			}
		}
	}
	return p.proxyFor(typeID, uri)
}

// localPath reports whether uri is rooted at this Presence's base URI,
// and if so the path beneath it.
func (p *Presence) localPath(uri string) (pathmap.Path, bool) {
	if p.placement == nil {
		return nil, false
	}
	base := strings.TrimRight(p.placement.BaseURI(), "/")
	if base == "" || !strings.HasPrefix(uri, base+"/") {
		return nil, false
	}
	rest := strings.TrimPrefix(uri, base+"/")
	return pathmap.ParsePath(rest), true
}

func (p *Presence) proxyFor(typeID string, uri string) (*Proxy, error) {
	key := proxyKey{typeID: typeID, uri: uri}

	p.mu.Lock()
	if cached, ok := p.proxies[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	ct, ok := p.clientTranslators[typeID]
	p.mu.Unlock()
	if !ok {
		return nil, carperr.New(carperr.TypeModel, "presence: no ClientTranslator registered for %s", typeID)
	}
	if p.clients == nil {
		return nil, carperr.New(carperr.TypeModel, "presence: no client supplier configured, cannot elaborate %s", uri)
	}

	proxy := &Proxy{
		typeID:       typeID,
		uri:          uri,
		translator:   ct,
		sender:       p.clients.Client(uri),
		fingerprints: p.fingerprints,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.proxies[key]; ok {
		return cached, nil
	}
	p.proxies[key] = proxy
	return proxy, nil
}

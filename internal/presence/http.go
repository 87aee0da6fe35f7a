package presence

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/carp-rpc/carp/internal/carperr"
	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/dispatch"
	"github.com/carp-rpc/carp/internal/pathmap"
)

// Handler returns the single HTTP entry point spec §6 describes: every
// inbound request, whatever path it names, is resolved through p's
// PathMap and dispatched through the receiver's ServerTranslator. A
// Placement implementation registers this once, typically at "/".
func (p *Presence) Handler() http.Handler {
	return http.HandlerFunc(p.serveHTTP)
}

func (p *Presence) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	path := pathmap.ParsePath(trimLeadingSlash(r.URL.Path))
	match, found := p.paths.Resolve(path)
	if !found || len(match.Tail) != 0 {
		writeJSON(w, http.StatusNotFound, dispatch.ErrorBody(carperr.New(carperr.RoutingNotFound, "no receiver at %s", r.URL.Path)))
		return
	}

	st, ok := p.ServerTranslatorFor(match.TypeID)
	if !ok {
		writeJSON(w, http.StatusNotFound, dispatch.ErrorBody(carperr.New(carperr.RoutingNotFound, "no translator registered for %s", match.TypeID)))
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.ErrorBody(carperr.Wrap(carperr.CodecDecoding, err, "reading request body")))
		return
	}
	var body codec.Value
	if err := body.UnmarshalJSON(raw); err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.ErrorBody(carperr.Wrap(carperr.CodecDecoding, err, "parsing request body")))
		return
	}
	req, err := dispatch.DecodeRequest(body)
	if err != nil {
		writeError(w, err)
		return
	}

	rsp, err := st.Invoke(p, p, match.Receiver, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if rsp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, rsp.Encode())
}

func trimLeadingSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

// writeError converts err to its HTTP status and body, logging Internal
// errors once at the point of conversion with the correlation id the
// client also receives (spec §6, §10.1).
func writeError(w http.ResponseWriter, err error) {
	var carpErr *carperr.Error
	if errors.As(err, &carpErr) && carpErr.Kind == carperr.Internal {
		slog.Error("internal error", "error-id", carpErr.ID.String(), "err", carpErr)
	}
	writeJSON(w, dispatch.StatusCode(err), dispatch.ErrorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v codec.Value) {
	body, err := v.MarshalJSON()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// HTTPPlacement is the net/http-backed Placement of spec §6: a fixed
// base URI plus a mux receiving Presence's single handler.
type HTTPPlacement struct {
	base string
	mux  *http.ServeMux
}

// NewHTTPPlacement builds a Placement whose receivers are addressed
// under baseURI, routed through mux.
func NewHTTPPlacement(baseURI string, mux *http.ServeMux) *HTTPPlacement {
	return &HTTPPlacement{base: baseURI, mux: mux}
}

func (p *HTTPPlacement) BaseURI() string { return p.base }

func (p *HTTPPlacement) RegisterHandler(path string, handler http.Handler) {
	p.mux.Handle(path, handler)
}

// HTTPClientSupplier hands out net/http-backed HTTPSenders, one per
// destination URI (spec §4.5 "an HTTP client supplier"). Senders are
// cached per URI so keep-alive connections are reused across calls.
type HTTPClientSupplier struct {
	client *http.Client

	mu      sync.Mutex
	senders map[string]dispatch.HTTPSender
}

// NewHTTPClientSupplier wraps client (or http.DefaultClient, if nil).
func NewHTTPClientSupplier(client *http.Client) *HTTPClientSupplier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClientSupplier{client: client, senders: make(map[string]dispatch.HTTPSender)}
}

func (s *HTTPClientSupplier) Client(uri string) dispatch.HTTPSender {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sender, ok := s.senders[uri]; ok {
		return sender
	}
	sender := &httpSender{client: s.client}
	s.senders[uri] = sender
	return sender
}

// httpSender POSTs a request envelope's JSON rendering and parses the
// response body back into the value model (spec §6's wire format).
type httpSender struct {
	client *http.Client
}

func (s *httpSender) Send(uri string, body codec.Value) (codec.Value, error) {
	raw, err := body.MarshalJSON()
	if err != nil {
		return codec.Value{}, carperr.Wrap(carperr.CodecEncoding, err, "marshalling request to %s", uri)
	}
	resp, err := s.client.Post(uri, "application/json", bytes.NewReader(raw))
	if err != nil {
		return codec.Value{}, carperr.NewInternal(err, "sending request to %s", uri)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return codec.Value{}, carperr.NewInternal(err, "reading response from %s", uri)
	}
	if resp.StatusCode == http.StatusNoContent || len(respRaw) == 0 {
		return codec.Null, nil
	}
	var value codec.Value
	if err := value.UnmarshalJSON(respRaw); err != nil {
		return codec.Value{}, carperr.Wrap(carperr.CodecDecoding, err, "parsing response from %s", uri)
	}
	if resp.StatusCode/100 != 2 {
		return codec.Value{}, remoteError(resp.StatusCode, value)
	}
	return value, nil
}

// remoteError rebuilds an approximate local error from a non-2xx
// response body, for callers that only have an error return to work
// with (the original Kind does not survive the wire).
func remoteError(status int, body codec.Value) error {
	if msg, ok := fieldString(body, "app-error"); ok {
		message, _ := fieldString(body, "message")
		params := map[string]string{}
		if pv, ok := body.Get("params"); ok {
			if fields, ok := pv.Fields(); ok {
				for _, f := range fields {
					if s, ok := f.Value.Str(); ok {
						params[f.Name] = s
					}
				}
			}
		}
		return carperr.NewApplication(message, params)
	}
	switch status {
	case http.StatusBadRequest:
		return carperr.New(carperr.CodecDecoding, "remote call failed with status %d", status)
	case http.StatusNotFound:
		return carperr.New(carperr.RoutingNotFound, "remote call failed with status %d", status)
	}
	return carperr.NewInternal(nil, "remote call failed with status %d", status)
}

func fieldString(v codec.Value, name string) (string, bool) {
	f, ok := v.Get(name)
	if !ok {
		return "", false
	}
	return f.Str()
}

// InMemoryFingerprints is the default FingerprintRepository: a plain
// mutex-guarded map, adequate for a single process's peer table.
type InMemoryFingerprints struct {
	mu    sync.Mutex
	table map[string]string
}

// NewInMemoryFingerprints builds an empty repository.
func NewInMemoryFingerprints() *InMemoryFingerprints {
	return &InMemoryFingerprints{table: make(map[string]string)}
}

func (f *InMemoryFingerprints) Record(peer, print string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table[peer] = print
}

func (f *InMemoryFingerprints) Fingerprints() dispatch.PeerTable {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := make(dispatch.PeerTable, 0, len(f.table))
	for peer, print := range f.table {
		table = append(table, dispatch.Fingerprint{Peer: peer, Print: print})
	}
	return table
}

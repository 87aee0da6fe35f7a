package dispatch

import (
	"errors"
	"log/slog"

	"github.com/carp-rpc/carp/internal/carperr"
	"github.com/carp-rpc/carp/internal/codec"
)

// ResponseWriter is one response variant of a call (spec §4.4: "for each
// response writer in declared order, if its predicate matches the
// returned value, encode through its params"). Predicate and Accessor
// are generated from a response union's per-variant test/accessor pair;
// Codec is the ResponseSpec's own Structure codec.
type ResponseWriter struct {
	Name      string
	Predicate func(result any) bool
	Accessor  func(result any) any
	Codec     codec.Codec
}

// Executor runs a fire-and-forget call off the synchronous request path
// (spec §4.4 step 4, §5: "dispatch to a bounded thread pool").
type Executor interface {
	Submit(fn func())
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Submit(fn func()) { f(fn) }

// inlineExecutor runs the submitted call synchronously. It is the
// CallHandler default when no Executor is configured, which keeps
// Invoke usable standalone in tests without a Presence around it.
type inlineExecutor struct{}

func (inlineExecutor) Submit(fn func()) { fn() }

// Invoker calls the receiver's native method with decoded parameters
// (spec §4.4: "otherwise invoke the receiver").
type Invoker func(receiver any, params any) (any, error)

// CallHandler is one `call_name -> handler` entry of a ServerTranslator's
// dispatch table (spec §4.4: "parameters: [(name, decoder)], responses:
// [ResponseWriter...], executor?"). An empty Responses marks the call
// fire-and-forget.
type CallHandler struct {
	Name       string
	ParamCodec codec.Codec
	Invoke     Invoker
	Responses  []ResponseWriter
	Executor   Executor
}

func (h *CallHandler) fireAndForget() bool { return len(h.Responses) == 0 }

func (h *CallHandler) executor() Executor {
	if h.Executor == nil {
		return inlineExecutor{}
	}
	return h.Executor
}

// ServerTranslator is the per-interface-type dispatch table of spec §4.4:
// "a map call_name -> CallHandler", inspected once when a translator is
// built for an Interface and cached by type (spec §3, Translators).
type ServerTranslator struct {
	TypeID string
	calls  map[string]*CallHandler
}

// NewServerTranslator builds a dispatch table from its call handlers.
func NewServerTranslator(typeID string, handlers ...*CallHandler) *ServerTranslator {
	calls := make(map[string]*CallHandler, len(handlers))
	for _, h := range handlers {
		calls[h.Name] = h
	}
	return &ServerTranslator{TypeID: typeID, calls: calls}
}

// Invoke runs the five-step algorithm of spec §4.4 against a parsed
// request envelope, already routed to receiver by PathMap.resolve.
func (st *ServerTranslator) Invoke(ectx codec.EncodingContext, dctx codec.DecodingContext, receiver any, req Request) (*Response, error) {
	handler, ok := st.calls[req.ReqType]
	if !ok {
		return nil, carperr.New(carperr.DispatchUnknownCall, "unknown call %q on %s", req.ReqType, st.TypeID)
	}

	params, err := handler.ParamCodec.Decode(dctx, req.Req)
	if err != nil {
		return nil, carperr.Wrap(carperr.CodecDecoding, err, "decoding arguments for %q", req.ReqType)
	}

	if handler.fireAndForget() {
		handler.executor().Submit(func() {
			if _, err := handler.Invoke(receiver, params); err != nil {
				slog.Error("fire-and-forget call failed", "call", req.ReqType, "type", st.TypeID, "err", err)
			}
		})
		return nil, nil
	}

	result, err := handler.Invoke(receiver, params)
	if err != nil {
		var appErr *carperr.Error
		if errors.As(err, &appErr) && appErr.Kind == carperr.ApplicationStructured {
			return nil, err
		}
		return nil, carperr.NewInternal(err, "invoking %q", req.ReqType)
	}

	for _, w := range handler.Responses {
		if !w.Predicate(result) {
			continue
		}
		v := w.Accessor(result)
		rv, err := w.Codec.Encode(ectx, v)
		if err != nil {
			return nil, carperr.Wrap(carperr.CodecEncoding, err, "encoding response %q", w.Name)
		}
		return &Response{RspType: w.Name, Rsp: rv}, nil
	}
	return nil, carperr.New(carperr.DispatchResponseMismatch, "no response writer matched for %q", req.ReqType)
}

// StatusCode maps a dispatch-layer error to the HTTP status spec §6
// assigns it. Callers that succeed choose 200 (a response matched) or
// 204 (fire-and-forget) themselves; this only covers the error cases.
func StatusCode(err error) int {
	kind, ok := carperr.KindOf(err)
	if !ok {
		return 500
	}
	switch kind {
	case carperr.CodecDecoding, carperr.DispatchUnknownCall:
		return 400
	case carperr.RoutingNotFound:
		return 404
	case carperr.ApplicationStructured:
		return 422
	default:
		return 500
	}
}

// ErrorBody renders the JSON body spec §6 assigns a failed call: the
// `app-error` shape for ApplicationStructured, `{"error": "<uuid>"}` for
// Internal, and a plain message otherwise.
func ErrorBody(err error) codec.Value {
	var carpErr *carperr.Error
	if errors.As(err, &carpErr) {
		switch carpErr.Kind {
		case carperr.ApplicationStructured:
			return codec.Object(
				codec.Field("app-error", codec.String("bad-status-mod")),
				codec.Field("params", encodeParams(carpErr.Params)),
				codec.Field("message", codec.String(carpErr.Message)),
			)
		case carperr.Internal:
			return codec.Object(codec.Field("error", codec.String(carpErr.ID.String())))
		}
	}
	return codec.Object(codec.Field("error", codec.String(err.Error())))
}

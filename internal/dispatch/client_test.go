package dispatch_test

import (
	"testing"

	"github.com/carp-rpc/carp/internal/codec"
	"github.com/carp-rpc/carp/internal/dispatch"
)

// loopbackSender drives a ClientTranslator straight into a
// ServerTranslator, the way an in-process short-circuited Presence
// would (spec §4.5 Scenario 5), without any real HTTP transport.
type loopbackSender struct {
	st       *dispatch.ServerTranslator
	receiver any
}

func (s loopbackSender) Send(uri string, body codec.Value) (codec.Value, error) {
	req, err := dispatch.DecodeRequest(body)
	if err != nil {
		return codec.Value{}, err
	}
	rsp, err := s.st.Invoke(noopCtx{}, noopCtx{}, s.receiver, req)
	if err != nil {
		return codec.Value{}, err
	}
	if rsp == nil {
		return codec.Null, nil
	}
	return rsp.Encode(), nil
}

func TestClientServerRoundTrip(t *testing.T) {
	handler := bankDepositHandler(t, func(receiver any, params any) (any, error) {
		amount, _ := params.(*codec.Record).Get("amount")
		if amount.(int64) > 100 {
			return &depositResult{variant: "refused", reason: "frozen"}, nil
		}
		return &depositResult{variant: "ok", balance: 77}, nil
	})
	st := dispatch.NewServerTranslator("carp-rpc.example.Bank", handler)
	sender := loopbackSender{st: st, receiver: struct{}{}}

	ct := dispatch.NewClientTranslator("carp-rpc.example.Bank", &dispatch.ClientCall{
		Name:       "deposit",
		ParamCodec: depositParamsCodec(),
		Responses: map[string]dispatch.ResponseReader{
			"ok": {
				Codec: mustCodec(t, okStructure()),
				Build: func(value any) any {
					balance, _ := value.(*codec.Record).Get("balance")
					return &depositResult{variant: "ok", balance: balance.(int64)}
				},
			},
			"refused": {
				Codec: mustCodec(t, refusedStructure()),
				Build: func(value any) any {
					reason, _ := value.(*codec.Record).Get("reason")
					return &depositResult{variant: "refused", reason: reason.(string)}
				},
			},
		},
	})

	args := codec.NewRecord()
	_ = args.CarpSet("amount", int64(10))
	result, err := ct.Call(noopCtx{}, noopCtx{}, sender, nil, "/d/acct/1", "deposit", args)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	dr := result.(*depositResult)
	if dr.variant != "ok" || dr.balance != 77 {
		t.Fatalf("result = %+v, want ok/77", dr)
	}

	args = codec.NewRecord()
	_ = args.CarpSet("amount", int64(500))
	result, err = ct.Call(noopCtx{}, noopCtx{}, sender, nil, "/d/acct/1", "deposit", args)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	dr = result.(*depositResult)
	if dr.variant != "refused" || dr.reason != "frozen" {
		t.Fatalf("result = %+v, want refused/frozen", dr)
	}
}

func TestClientUnknownCall(t *testing.T) {
	ct := dispatch.NewClientTranslator("carp-rpc.example.Bank")
	_, err := ct.Call(noopCtx{}, noopCtx{}, loopbackSender{}, nil, "/x", "withdraw", nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
}

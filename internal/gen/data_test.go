package gen_test

import (
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/carp-rpc/carp/internal/gen"
	"github.com/carp-rpc/carp/internal/idl"
	"github.com/carp-rpc/carp/internal/idl/name"
)

func int64Ptr(v int64) *int64 { return &v }

func bankModule() idl.Module {
	bank := name.MustNew("bank")

	account := idl.NewStructure([]string{"owner", "balance"}, map[string]idl.StructureMember{
		"owner":   {Type: idl.String{}, Required: true},
		"balance": {Type: idl.Integer{Min: int64Ptr(0), Max: int64Ptr(1_000_000)}, Required: true},
	})
	account.Doc = "An account holder's balance."

	calls := orderedmap.New[string, idl.CallSpec]()
	responses := orderedmap.New[string, idl.ResponseSpec]()
	responses.Set("ok", idl.ResponseSpec{Parameters: idl.NewStructure([]string{"balance"}, map[string]idl.StructureMember{
		"balance": {Type: idl.Integer{}, Required: true},
	})})
	responses.Set("refused", idl.ResponseSpec{Parameters: idl.NewStructure([]string{"reason"}, map[string]idl.StructureMember{
		"reason": {Type: idl.String{}, Required: true},
	})})
	calls.Set("deposit", idl.CallSpec{
		Parameters: idl.NewStructure([]string{"amount"}, map[string]idl.StructureMember{
			"amount": {Type: idl.Integer{Min: int64Ptr(0), Max: int64Ptr(1_000_000)}, Required: true},
		}),
		Responses: responses,
	})
	bankIface := idl.Interface{
		Calls:         calls,
		QualifiedName: bank.Resolve(name.MustNew("Bank")),
		Doc:           "A simple deposit-only bank.",
	}

	return idl.NewModule(bank, nil, nil,
		[]string{"Account", "Bank"},
		map[string]idl.Type{
			"Account": account,
			"Bank":    bankIface,
		})
}

func TestBuildModuleDataStructures(t *testing.T) {
	data, err := gen.BuildModuleData(bankModule(), "bank")
	if err != nil {
		t.Fatalf("BuildModuleData: %v", err)
	}
	if len(data.Structures) != 1 {
		t.Fatalf("expected 1 structure, got %d", len(data.Structures))
	}
	acc := data.Structures[0]
	if acc.Name != "Account" {
		t.Fatalf("structure name = %q, want Account", acc.Name)
	}
	if len(acc.Doc) == 0 {
		t.Fatalf("expected non-empty doc for Account")
	}
	if len(acc.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(acc.Members))
	}
	owner := acc.Members[0]
	if owner.FieldName != "owner" || owner.Accessor != "Owner" || owner.Setter != "WithOwner" || owner.GoType != "string" {
		t.Fatalf("unexpected owner member data: %+v", owner)
	}
	balance := acc.Members[1]
	if balance.GoType != "int32" {
		t.Fatalf("balance GoType = %q, want int32 (fits [0,1000000])", balance.GoType)
	}
}

func TestBuildModuleDataInterfaceResponses(t *testing.T) {
	data, err := gen.BuildModuleData(bankModule(), "bank")
	if err != nil {
		t.Fatalf("BuildModuleData: %v", err)
	}
	if len(data.Interfaces) != 1 {
		t.Fatalf("expected 1 interface, got %d", len(data.Interfaces))
	}
	bank := data.Interfaces[0]
	if bank.Name != "Bank" {
		t.Fatalf("interface name = %q, want Bank", bank.Name)
	}
	if len(bank.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(bank.Calls))
	}
	deposit := bank.Calls[0]
	if deposit.Name != "Deposit" {
		t.Fatalf("call name = %q, want Deposit", deposit.Name)
	}
	if deposit.FireAndForget {
		t.Fatalf("deposit has responses, should not be fire-and-forget")
	}
	if deposit.ResponseTypeName != "BankDepositResponse" {
		t.Fatalf("response type name = %q, want BankDepositResponse", deposit.ResponseTypeName)
	}
	if len(deposit.Responses) != 2 {
		t.Fatalf("expected 2 response variants, got %d", len(deposit.Responses))
	}
	ok := deposit.Responses[0]
	if ok.Name != "Ok" || ok.Field != "ok" || ok.Tag != "ok" || ok.TypeName != "BankDepositResponseOk" {
		t.Fatalf("unexpected ok variant: %+v", ok)
	}
}

func TestBuildModuleDataRejectsAnonymousMember(t *testing.T) {
	bank := name.MustNew("bank")
	bad := idl.NewStructure([]string{"nested"}, map[string]idl.StructureMember{
		"nested": {Type: idl.NewStructure(nil, nil), Required: true},
	})
	mod := idl.NewModule(bank, nil, nil, []string{"Bad"}, map[string]idl.Type{"Bad": bad})
	if _, err := gen.BuildModuleData(mod, "bank"); err == nil {
		t.Fatalf("expected an error for an anonymous inline structure member")
	}
}

package gen

import (
	"fmt"

	"github.com/carp-rpc/carp/internal/idl"
	"github.com/carp-rpc/carp/internal/idl/name"
)

// MemberData is one Structure member, or one call parameter, projected
// for templates: a private field (FieldName) plus the exported
// accessor/builder-setter names spec §4.1's code-emission paragraph calls
// for ("private fields, public accessors ... a builder with fluent
// setters").
type MemberData struct {
	FieldName string
	Accessor  string
	Setter    string
	GoType    string
	Required  bool
}

// StructureData is a declared Structure, ready for the struct/accessor/
// builder template.
type StructureData struct {
	Name    string
	Doc     []string
	Members []MemberData
}

// ConstantData is one Enumeration constant.
type ConstantData struct {
	Name string
	Type string
}

// EnumerationData is a declared Enumeration.
type EnumerationData struct {
	Name      string
	Doc       []string
	Constants []ConstantData
}

// ResponseVariantData is one named variant of a CallSpec's response union
// (spec §3: "a nested response-union class with one concrete variant per
// response, plus per-variant predicate and accessor methods").
type ResponseVariantData struct {
	Name     string
	Field    string
	Tag      string
	TypeName string
	Members  []MemberData
}

// CallData is one Interface call.
type CallData struct {
	Name             string
	InterfaceName    string
	Params           []MemberData
	FireAndForget    bool
	ResponseTypeName string
	Responses        []ResponseVariantData
}

// InterfaceData is a declared Interface.
type InterfaceData struct {
	Name      string
	Doc       []string
	Ancestors []string
	Calls     []CallData
}

// ModuleData is the top-level mustache context for one generated module
// file, built by BuildModuleData.
type ModuleData struct {
	PackageName  string
	ModuleName   string
	Structures   []StructureData
	Enumerations []EnumerationData
	Interfaces   []InterfaceData
	NeedsUUID    bool
}

// BuildModuleData projects a qualified idl.Module's top-level declared
// types into template data (spec §3: "emitting native source for those
// kinds that must be materialised as native types"). mod.Name must
// already be qualified; references to types declared in mod itself are
// rendered with their bare leaf name, references to types from other
// modules are rendered with their full qualified name (best effort —
// CARP generates one Go package per module and has no cross-module
// import-path configuration of its own).
func BuildModuleData(mod idl.Module, packageName string) (*ModuleData, error) {
	data := &ModuleData{PackageName: packageName, ModuleName: mod.Name.String()}
	for pair := mod.Types.Oldest(); pair != nil; pair = pair.Next() {
		leaf := pair.Key
		switch t := pair.Value.(type) {
		case idl.Structure:
			sd, err := buildStructureData(leaf, t, mod.Name, data)
			if err != nil {
				return nil, fmt.Errorf("gen: structure %q: %w", leaf, err)
			}
			data.Structures = append(data.Structures, sd)
		case idl.Enumeration:
			ed, err := buildEnumerationData(leaf, t)
			if err != nil {
				return nil, fmt.Errorf("gen: enumeration %q: %w", leaf, err)
			}
			data.Enumerations = append(data.Enumerations, ed)
		case idl.Interface:
			id, err := buildInterfaceData(leaf, t, mod.Name, data)
			if err != nil {
				return nil, fmt.Errorf("gen: interface %q: %w", leaf, err)
			}
			data.Interfaces = append(data.Interfaces, id)
		default:
			return nil, fmt.Errorf("gen: module %q declares %q at top level; only struct/enum/iface are emitted", mod.Name, t.Kind())
		}
	}
	return data, nil
}

func className(leaf string) (string, error) {
	n, err := name.New(leaf)
	if err != nil {
		return "", err
	}
	return n.AsNativeClassName(), nil
}

// referenceClassName renders a Reference's target as a Go type name,
// dropping the enclosing module prefix when the reference targets a type
// declared in the module currently being generated.
func referenceClassName(ref idl.Reference, moduleName name.External) (string, error) {
	if ref.Name.Parent().Equal(moduleName) {
		return className(ref.Name.Leaf())
	}
	return ref.Name.AsNativeClassName(), nil
}

// goType renders a member's declared Type as a Go type string, reporting
// whether it needs the uuid import. Only the closed family's leaf kinds
// that can appear as a member type are handled — a bare (unreferenced)
// Structure, Enumeration or Interface as a member type is rejected: spec
// §3's code emission only names declared types, so anonymous composite
// members are expected to always arrive wrapped in a Reference.
func goType(t idl.Type, moduleName name.External) (goType string, needsUUID bool, err error) {
	switch v := t.(type) {
	case idl.Boolean:
		return "bool", false, nil
	case idl.UUIDType:
		return "uuid.UUID", true, nil
	case idl.Integer:
		return v.NativeWidth(), false, nil
	case idl.Real:
		return v.NativeWidth(), false, nil
	case idl.String:
		return "string", false, nil
	case idl.Sequence:
		elem, needsUUID, err := goType(v.Elem, moduleName)
		if err != nil {
			return "", false, err
		}
		return "[]" + elem, needsUUID, nil
	case idl.Set:
		// The wire-level bitset optimisation (spec §3, §4.1, §8) is a
		// codec-layer concern; the generated accessor always sees an
		// element slice regardless of how Set.GetEncoder chooses to
		// transport it.
		elem, needsUUID, err := goType(v.Elem, moduleName)
		if err != nil {
			return "", false, err
		}
		return "[]" + elem, needsUUID, nil
	case idl.Reference:
		cls, err := referenceClassName(v, moduleName)
		return cls, false, err
	default:
		return "", false, fmt.Errorf("member type %q must be declared and used by reference", t.Kind())
	}
}

func buildMembers(s idl.Structure, moduleName name.External, data *ModuleData) ([]MemberData, error) {
	members := make([]MemberData, 0, s.Members.Len())
	for pair := s.Members.Oldest(); pair != nil; pair = pair.Next() {
		n, err := name.New(pair.Key)
		if err != nil {
			return nil, err
		}
		gt, needsUUID, err := goType(pair.Value.Type, moduleName)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", pair.Key, err)
		}
		if needsUUID {
			data.NeedsUUID = true
		}
		cls := n.AsNativeClassName()
		members = append(members, MemberData{
			FieldName: n.AsNativeMethodName(),
			Accessor:  cls,
			Setter:    "With" + cls,
			GoType:    gt,
			Required:  pair.Value.Required,
		})
	}
	return members, nil
}

func buildStructureData(leaf string, s idl.Structure, moduleName name.External, data *ModuleData) (StructureData, error) {
	cls, err := className(leaf)
	if err != nil {
		return StructureData{}, err
	}
	members, err := buildMembers(s, moduleName, data)
	if err != nil {
		return StructureData{}, err
	}
	return StructureData{Name: cls, Doc: FormatDoc(s.Doc), Members: members}, nil
}

func buildEnumerationData(leaf string, e idl.Enumeration) (EnumerationData, error) {
	cls, err := className(leaf)
	if err != nil {
		return EnumerationData{}, err
	}
	constants := make([]ConstantData, 0, len(e.Constants()))
	for _, c := range e.Constants() {
		cn, err := name.New(c)
		if err != nil {
			return EnumerationData{}, err
		}
		constants = append(constants, ConstantData{Name: cls + "_" + cn.AsNativeConstantName(), Type: cls})
	}
	return EnumerationData{Name: cls, Doc: FormatDoc(e.Doc), Constants: constants}, nil
}

func buildInterfaceData(leaf string, i idl.Interface, moduleName name.External, data *ModuleData) (InterfaceData, error) {
	cls, err := className(leaf)
	if err != nil {
		return InterfaceData{}, err
	}
	ancestors := make([]string, 0, len(i.Ancestors))
	for _, a := range i.Ancestors {
		acls, err := referenceClassName(a, moduleName)
		if err != nil {
			return InterfaceData{}, err
		}
		ancestors = append(ancestors, acls)
	}
	calls := make([]CallData, 0, i.Calls.Len())
	for pair := i.Calls.Oldest(); pair != nil; pair = pair.Next() {
		cn, err := name.New(pair.Key)
		if err != nil {
			return InterfaceData{}, err
		}
		params, err := buildMembers(pair.Value.Parameters, moduleName, data)
		if err != nil {
			return InterfaceData{}, fmt.Errorf("call %q: %w", pair.Key, err)
		}
		callName := cn.AsNativeClassName()
		responseTypeName := cls + callName + "Response"
		responses := make([]ResponseVariantData, 0, pair.Value.Responses.Len())
		for rp := pair.Value.Responses.Oldest(); rp != nil; rp = rp.Next() {
			rn, err := name.New(rp.Key)
			if err != nil {
				return InterfaceData{}, err
			}
			rmembers, err := buildMembers(rp.Value.Parameters, moduleName, data)
			if err != nil {
				return InterfaceData{}, fmt.Errorf("call %q response %q: %w", pair.Key, rp.Key, err)
			}
			variantName := rn.AsNativeClassName()
			responses = append(responses, ResponseVariantData{
				Name:     variantName,
				Field:    rn.AsNativeMethodName(),
				Tag:      rp.Key,
				TypeName: responseTypeName + variantName,
				Members:  rmembers,
			})
		}
		calls = append(calls, CallData{
			Name:             callName,
			InterfaceName:    cls,
			Params:           params,
			FireAndForget:    pair.Value.Responses.Len() == 0,
			ResponseTypeName: responseTypeName,
			Responses:        responses,
		})
	}
	return InterfaceData{Name: cls, Doc: FormatDoc(i.Doc), Ancestors: ancestors, Calls: calls}, nil
}

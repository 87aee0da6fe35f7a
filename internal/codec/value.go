// Package codec implements the JSON value model and the encoder/decoder
// machinery that CARP's type nodes derive against it (spec §4.1, §8).
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is CARP's JSON value tree: null, bool, number, string, array or
// object. Type nodes never touch encoding/json's `any` decoding directly;
// every codec converts to and from this closed shape, so the shape of
// "JSON" that CARP speaks is defined once, here.
type Value struct {
	kind  valueKind
	b     bool
	num   float64
	str   string
	arr   []Value
	obj   []ObjectField
	isInt bool
	i     int64
}

// ObjectField is one key/value pair of a JSON object, kept in the order
// it was built so Structure encoders (spec §3 invariants) can round-trip
// declared member order.
type ObjectField struct {
	Name  string
	Value Value
}

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

// Null is the JSON null value.
var Null = Value{kind: kindNull}

// Bool wraps a JSON boolean.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// Number wraps a JSON number backed by a float64.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

// Int wraps a JSON number known to be an exact integer, preserving
// precision beyond float64 for big integer set-bitset encodings.
func Int(i int64) Value { return Value{kind: kindNumber, num: float64(i), isInt: true, i: i} }

// String wraps a JSON string.
func String(s string) Value { return Value{kind: kindString, str: s} }

// Array wraps a JSON array.
func Array(items ...Value) Value { return Value{kind: kindArray, arr: items} }

// Object wraps a JSON object, preserving field order.
func Object(fields ...ObjectField) Value { return Value{kind: kindObject, obj: fields} }

// Field is a convenience constructor for ObjectField.
func Field(name string, v Value) ObjectField { return ObjectField{Name: name, Value: v} }

func (v Value) IsNull() bool   { return v.kind == kindNull }
func (v Value) IsBool() bool   { return v.kind == kindBool }
func (v Value) IsNumber() bool { return v.kind == kindNumber }
func (v Value) IsString() bool { return v.kind == kindString }
func (v Value) IsArray() bool  { return v.kind == kindArray }
func (v Value) IsObject() bool { return v.kind == kindObject }

func (v Value) Bool() (bool, bool)     { return v.b, v.kind == kindBool }
func (v Value) Float() (float64, bool) { return v.num, v.kind == kindNumber }
func (v Value) Str() (string, bool)    { return v.str, v.kind == kindString }
func (v Value) Items() ([]Value, bool) { return v.arr, v.kind == kindArray }

// Int64 reports the value as an int64 when it is a whole number,
// regardless of whether it was built via Int or Number.
func (v Value) Int64() (int64, bool) {
	if v.kind != kindNumber {
		return 0, false
	}
	if v.isInt {
		return v.i, true
	}
	if v.num != float64(int64(v.num)) {
		return 0, false
	}
	return int64(v.num), true
}

// Get looks up a field by name in an object value.
func (v Value) Get(name string) (Value, bool) {
	if v.kind != kindObject {
		return Value{}, false
	}
	for _, f := range v.obj {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Fields returns the object's fields in declared order.
func (v Value) Fields() ([]ObjectField, bool) { return v.obj, v.kind == kindObject }

// MarshalJSON renders the value to its wire bytes.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNull:
		return []byte("null"), nil
	case kindBool:
		return json.Marshal(v.b)
	case kindNumber:
		if v.isInt {
			return json.Marshal(v.i)
		}
		return json.Marshal(v.num)
	case kindString:
		return json.Marshal(v.str)
	case kindArray:
		buf := []byte{'['}
		for i, item := range v.arr {
			if i > 0 {
				buf = append(buf, ',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return append(buf, ']'), nil
	case kindObject:
		buf := []byte{'{'}
		for i, f := range v.obj {
			if i > 0 {
				buf = append(buf, ',')
			}
			key, err := json.Marshal(f.Name)
			if err != nil {
				return nil, err
			}
			buf = append(buf, key...)
			buf = append(buf, ':')
			b, err := f.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("codec: unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON parses wire bytes into the value tree, using
// json.Number to keep integers exact.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromAny(raw)
	return nil
}

func fromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null
	case bool:
		return Bool(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		f, _ := x.Float64()
		return Number(f)
	case string:
		return String(x)
	case []any:
		items := make([]Value, len(x))
		for i, it := range x {
			items[i] = fromAny(it)
		}
		return Array(items...)
	case map[string]any:
		// Plain maps lose field order, so an object parsed by
		// UnmarshalJSON does not keep the field order it had on the wire.
		fields := make([]ObjectField, 0, len(x))
		for k, val := range x {
			fields = append(fields, Field(k, fromAny(val)))
		}
		return Object(fields...)
	default:
		return Null
	}
}

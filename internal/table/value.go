package table

// value.go defines Value, the closed cell variant shared by every source.
//
// A cell is exactly one of: null, bool, number, string or an array of cells.
// Numbers keep their literal text so integers wider than 2^53 survive the
// trip from JSON to the materialized table.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
)

// String returns the kind name used in logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind  Kind
	b     bool
	text  string // number literal or string payload
	elems []Value
}

// Null returns the null cell.
func Null() Value { return Value{} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string cell.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Int returns a number cell holding an integer.
func Int(i int64) Value {
	return Value{kind: KindNumber, text: strconv.FormatInt(i, 10)}
}

// Float returns a number cell holding a float.
func Float(f float64) Value {
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Number returns a number cell from its literal text, as found in JSON.
func Number(literal string) Value { return Value{kind: KindNumber, text: literal} }

// Array returns an array cell. The elements are copied.
func Array(elems ...Value) Value {
	out := make([]Value, len(elems))
	copy(out, elems)
	return Value{kind: KindArray, elems: out}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null cell.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank reports whether v carries no data: null or the empty string.
// Spreadsheet providers return "" for empty cells, and CSV cannot tell the
// two apart, so both materialize as null.
func (v Value) IsBlank() bool {
	return v.kind == KindNull || (v.kind == KindString && v.text == "")
}

// BoolValue returns the boolean payload and whether v is a bool.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.text, v.kind == KindString }

// Elems returns the elements of an array cell, nil otherwise.
// The returned slice must not be modified.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.elems
}

// Text renders v the way it would appear in a CSV cell.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber, KindString:
		return v.text
	case KindArray:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	default:
		return v.text == o.text
	}
}

// GoString makes test failures readable.
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(v.text)
	default:
		return v.Text()
	}
}

// MarshalJSON encodes v as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindNumber:
		return []byte(v.text), nil
	case KindString:
		return json.Marshal(v.text)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %s", v.kind)
	}
}

// UnmarshalJSON decodes any JSON document into a Value. Objects have no
// cell representation and are kept as their JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts a decoded JSON value, or a value returned by a provider
// SDK, into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		return Number(t.String())
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = FromAny(e)
		}
		return Value{kind: KindArray, elems: elems}
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return String(fmt.Sprint(t))
		}
		return String(string(b))
	}
}

// Row converts one provider row into cells.
func Row(xs []any) []Value {
	row := make([]Value, len(xs))
	for i, x := range xs {
		row[i] = FromAny(x)
	}
	return row
}

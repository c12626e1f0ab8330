// Package records defines the typed, positional row model shared by the
// template parser, the clone generator, and the SQL emitter.
//
// A Row is aligned to a schema definition by position only; column names are
// never used to infer types. Each cell is a Value carrying its natural type as
// read from the source (integer, float, string, or null).
package records

import (
	"fmt"
	"strconv"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Int
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single typed cell. The zero Value is Null.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	S    string
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{Kind: Int, I: i} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{Kind: Float, F: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: String, S: s} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == Null }

// IsNumeric reports whether v holds an Int or a Float.
func (v Value) IsNumeric() bool { return v.Kind == Int || v.Kind == Float }

// Float64 returns the numeric value of v as float64. ok is false for null
// and string values.
func (v Value) Float64() (f float64, ok bool) {
	switch v.Kind {
	case Int:
		return float64(v.I), true
	case Float:
		return v.F, true
	}
	return 0, false
}

// AsInt coerces v to an integer, returning def when v is null or cannot be
// interpreted as a number. Floats truncate toward zero; numeric strings are
// parsed leniently (integer first, then float).
func (v Value) AsInt(def int64) int64 {
	switch v.Kind {
	case Int:
		return v.I
	case Float:
		return int64(v.F)
	case String:
		if i, err := strconv.ParseInt(v.S, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.S, 64); err == nil {
			return int64(f)
		}
	}
	return def
}

// Text returns a plain textual rendering of v, used for flat-file output.
// Null renders as the empty string.
func (v Value) Text() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Float:
		return strconv.FormatFloat(v.F, 'f', -1, 64)
	case String:
		return v.S
	}
	return ""
}

func (v Value) String() string {
	if v.Kind == Null {
		return "NULL"
	}
	if v.Kind == String {
		return strconv.Quote(v.S)
	}
	return v.Text()
}

// Row is a positional sequence of values aligned to a schema definition.
type Row []Value

// Clone returns a shallow copy of r. Values are immutable so a shallow copy
// is sufficient to make the result independently mutable.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

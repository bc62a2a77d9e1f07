package model

import "strconv"

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// KindOther covers booleans, null, nested objects and arrays, and
	// numbers that do not fit a float64.
	KindOther ValueKind = iota
	KindNumber
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Value is one raw sample value taken from a snapshot.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// NumberValue wraps a numeric sample.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// TextValue wraps a string sample.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// OtherValue marks a sample that is neither a number nor text.
func OtherValue() Value { return Value{Kind: KindOther} }

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindText:
		return v.Text
	default:
		return "<other>"
	}
}

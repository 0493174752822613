package domain

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies the type carried by a Value.
type Kind int

const (
	// KindInvalid is the zero Kind. The serializer rejects it.
	KindInvalid Kind = iota
	KindMissing
	KindNumber
	KindString
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	default:
		return "invalid"
	}
}

// Value is a single table cell.
type Value struct {
	kind Kind
	num  float64
	str  string
	date time.Time
}

// Number returns a numeric cell.
func Number(v float64) Value { return Value{kind: KindNumber, num: v} }

// Text returns a string cell.
func Text(s string) Value { return Value{kind: KindString, str: s} }

// Date returns a date cell.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// Missing returns a missing (NA) cell.
func Missing() Value { return Value{kind: KindMissing} }

func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is NA.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric payload and whether the cell is a number.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Str returns the string payload and whether the cell is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Time returns the date payload and whether the cell is a date.
func (v Value) Time() (time.Time, bool) { return v.date, v.kind == KindDate }

// Equal reports whether two cells hold the same value. Missing equals missing
// and NaN equals NaN, matching how the golden files were accepted.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindMissing:
		return true
	case KindNumber:
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return false
	}
}

// String renders the cell for diagnostics and row ordering. It is not the
// serialized form; see the csvfile adapter for that.
func (v Value) String() string {
	switch v.kind {
	case KindMissing:
		return "NA"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	case KindDate:
		return v.date.Format(time.RFC3339)
	default:
		return "<invalid>"
	}
}

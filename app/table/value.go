package table

import (
	"math"
	"strconv"
	"time"
)

// Kind is the declared type of a column
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindDateTime
	KindDuration
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDateTime:
		return "datetime"
	case KindDuration:
		return "duration"
	default:
		return "string"
	}
}

// DType returns the dtype name used by schema validation and previews.
func (k Kind) DType() string {
	switch k {
	case KindInteger:
		return "int64"
	case KindFloat:
		return "float64"
	case KindDateTime:
		return "datetime64[ns]"
	case KindDuration:
		return "timedelta64[ns]"
	default:
		return "object"
	}
}

// IsNumeric reports whether columns of this kind take part in correlation.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindFloat
}

type state uint8

const (
	statePresent state = iota
	stateMissing
	stateNoValue
)

// Value is a single cell. Which payload field is meaningful depends on the
// Kind of the owning column.
type Value struct {
	str   string
	i     int64
	f     float64
	t     time.Time
	d     time.Duration
	state state
}

// Missing returns the missing marker.
func Missing() Value { return Value{state: stateMissing} }

// NoTime returns the date-time "no value" sentinel. It is not a missing
// marker and never equals a present timestamp.
func NoTime() Value { return Value{state: stateNoValue} }

func String(s string) Value          { return Value{str: s} }
func Int(i int64) Value              { return Value{i: i} }
func Float(f float64) Value          { return Value{f: f} }
func Time(t time.Time) Value         { return Value{t: t} }
func Duration(d time.Duration) Value { return Value{d: d} }

func (v Value) IsMissing() bool { return v.state == stateMissing }
func (v Value) IsNoValue() bool { return v.state == stateNoValue }
func (v Value) IsPresent() bool { return v.state == statePresent }

func (v Value) Str() string             { return v.str }
func (v Value) Int() int64              { return v.i }
func (v Value) Float() float64          { return v.f }
func (v Value) Time() time.Time         { return v.t }
func (v Value) Duration() time.Duration { return v.d }

// Number returns the value as float64 for numeric kinds.
func (v Value) Number(kind Kind) (float64, bool) {
	if v.state != statePresent {
		return 0, false
	}
	switch kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		if math.IsNaN(v.f) {
			return 0, false
		}
		return v.f, true
	}
	return 0, false
}

// Equal compares two values of the same kind. Missing equals missing.
func (v Value) Equal(o Value, kind Kind) bool {
	if v.state != o.state {
		return false
	}
	if v.state != statePresent {
		return true
	}
	switch kind {
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindDateTime:
		return v.t.Equal(o.t)
	case KindDuration:
		return v.d == o.d
	default:
		return v.str == o.str
	}
}

// Format renders the value as text. Missing renders as "" and the
// date-time sentinel as "NaT".
func (v Value) Format(kind Kind) string {
	switch v.state {
	case stateMissing:
		return ""
	case stateNoValue:
		return "NaT"
	}
	switch kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindDuration:
		return v.d.String()
	default:
		return v.str
	}
}

// key appends a kind-tagged encoding usable as part of a map key.
func (v Value) key(dst []byte, kind Kind) []byte {
	switch v.state {
	case stateMissing:
		return append(dst, 0x00)
	case stateNoValue:
		return append(dst, 0x01)
	}
	dst = append(dst, 0x02)
	switch kind {
	case KindInteger:
		dst = strconv.AppendInt(dst, v.i, 10)
	case KindFloat:
		dst = strconv.AppendFloat(dst, v.f, 'g', -1, 64)
	case KindDateTime:
		dst = v.t.UTC().AppendFormat(dst, time.RFC3339Nano)
	case KindDuration:
		dst = strconv.AppendInt(dst, int64(v.d), 10)
	default:
		dst = strconv.AppendQuote(dst, v.str)
	}
	return dst
}

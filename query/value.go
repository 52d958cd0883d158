package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which SQL storage class a Value carries.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindReal
	KindText
)

// String returns the SQLite storage class name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInteger:
		return "INTEGER"
	case KindReal:
		return "REAL"
	case KindText:
		return "TEXT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a SQL literal: exactly one of NULL, INTEGER, REAL or TEXT.
// The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the NULL literal.
func Null() Value { return Value{kind: KindNull} }

// Integer returns an INTEGER literal.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Real returns a REAL literal.
func Real(f float64) Value { return Value{kind: KindReal, f: f} }

// Text returns a TEXT literal.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Kind reports the storage class of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// ValueOf converts a Go value into a Value.
//
// Accepted inputs are nil, every signed and unsigned integer type, finite
// float32/float64, string and Value. Anything else, including NaN and
// infinities, fails with ErrUnsupportedValue.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case string:
		return Text(v), nil
	case int:
		return Integer(int64(v)), nil
	case int8:
		return Integer(int64(v)), nil
	case int16:
		return Integer(int64(v)), nil
	case int32:
		return Integer(int64(v)), nil
	case int64:
		return Integer(v), nil
	case uint:
		return unsignedValue(uint64(v))
	case uint8:
		return Integer(int64(v)), nil
	case uint16:
		return Integer(int64(v)), nil
	case uint32:
		return Integer(int64(v)), nil
	case uint64:
		return unsignedValue(v)
	case float32:
		return realValue(float64(v))
	case float64:
		return realValue(v)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
	}
}

func unsignedValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows INTEGER", ErrUnsupportedValue, u)
	}
	return Integer(int64(u)), nil
}

func realValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: %v has no SQL literal", ErrUnsupportedValue, f)
	}
	return Real(f), nil
}

// Literal renders v as SQL source text.
func (v Value) Literal() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		// A bare "3" would be read back as INTEGER.
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case KindText:
		return "'" + strings.ReplaceAll(v.s, "'", "''") + "'"
	default:
		panic(fmt.Sprintf("query: unknown value kind %d", int(v.kind)))
	}
}

// String implements fmt.Stringer using the SQL literal form.
func (v Value) String() string { return v.Literal() }

// Literal converts x with ValueOf and renders it.
func Literal(x any) (string, error) {
	v, err := ValueOf(x)
	if err != nil {
		return "", err
	}
	return v.Literal(), nil
}

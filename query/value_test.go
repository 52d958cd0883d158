package query

import (
	"errors"
	"math"
	"testing"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint8", uint8(255), "255"},
		{"max uint64 that fits", uint64(math.MaxInt64), "9223372036854775807"},
		{"float", 1.5, "1.5"},
		{"whole float keeps point", 3.0, "3.0"},
		{"float32", float32(0.25), "0.25"},
		{"large float", 1e21, "1e+21"},
		{"text", "John", "'John'"},
		{"empty text", "", "''"},
		{"quote doubled", "O'Brien", "'O''Brien'"},
		{"value passthrough", Integer(9), "9"},
		{"null value", Null(), "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(tt.in)
			if err != nil {
				t.Fatalf("Literal(%v) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Literal(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLiteralUnsupported(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"bool", true},
		{"bytes", []byte("x")},
		{"struct", struct{}{}},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
		{"overflow", uint64(math.MaxUint64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Literal(tt.in); !errors.Is(err, ErrUnsupportedValue) {
				t.Errorf("Literal(%v) error = %v, want ErrUnsupportedValue", tt.in, err)
			}
		})
	}
}

func TestValueKind(t *testing.T) {
	var zero Value
	if !zero.IsNull() || zero.Kind() != KindNull {
		t.Errorf("zero Value kind = %v, want NULL", zero.Kind())
	}

	v, err := ValueOf(int16(3))
	if err != nil {
		t.Fatalf("ValueOf(int16) error = %v", err)
	}
	if v.Kind() != KindInteger || v.Kind().String() != "INTEGER" {
		t.Errorf("ValueOf(int16).Kind() = %v, want INTEGER", v.Kind())
	}

	v, err = ValueOf("x")
	if err != nil {
		t.Fatalf("ValueOf(string) error = %v", err)
	}
	if v.Kind() != KindText {
		t.Errorf("ValueOf(string).Kind() = %v, want TEXT", v.Kind())
	}
	if got := v.String(); got != "'x'" {
		t.Errorf("String() = %q, want %q", got, "'x'")
	}

	if got := Real(1).Kind().String(); got != "REAL" {
		t.Errorf("Real(1).Kind() = %q, want REAL", got)
	}
}

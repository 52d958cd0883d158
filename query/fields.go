package query

import (
	"fmt"
	"sort"
	"strings"
)

// Fields is an ordered column to value mapping. Keys returns the order in
// which columns are rendered into VALUES and SET clauses.
//
// *entry.Entry implements Fields.
type Fields interface {
	Keys() []string
	Get(column string) (any, bool)
}

// Map adapts a plain map to Fields. Columns are rendered in name order so
// that the generated SQL is deterministic.
type Map map[string]any

// Keys returns the map keys sorted by name.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored for column.
func (m Map) Get(column string) (any, bool) {
	v, ok := m[column]
	return v, ok
}

// assignments renders "col1 = v1, col2 = v2".
func assignments(data Fields) (string, error) {
	keys := data.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := data.Get(k)
		lit, err := Literal(v)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", k, err)
		}
		parts = append(parts, k+" = "+lit)
	}
	return strings.Join(parts, ", "), nil
}

// columnsAndValues renders "(col1, col2) VALUES (v1, v2)", or
// "DEFAULT VALUES" when data is empty.
func columnsAndValues(data Fields) (string, error) {
	keys := data.Keys()
	if len(keys) == 0 {
		return "DEFAULT VALUES", nil
	}
	lits := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := data.Get(k)
		lit, err := Literal(v)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", k, err)
		}
		lits = append(lits, lit)
	}
	return "(" + strings.Join(keys, ", ") + ") VALUES (" + strings.Join(lits, ", ") + ")", nil
}

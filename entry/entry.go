// Package entry provides Entry, a row of a table held as a column to value
// mapping together with the table it came from and the column that
// identifies it.
package entry

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Entry is one row of a table.
//
// Keys keep the order in which they were first set, so rows read from the
// database keep their column order. Assignments are not checked against the
// table schema; that happens when the entry is written back.
type Entry struct {
	table   string
	idField string
	keys    []string
	data    map[string]any
}

// New returns an empty entry for table. idField may be empty, as it must be
// for entries built by hand for insertion.
func New(table, idField string) *Entry {
	return &Entry{
		table:   table,
		idField: idField,
		data:    make(map[string]any),
	}
}

// FromRow zips columns with the values of row at the same position.
func FromRow(row []any, columns []string, table, idField string) (*Entry, error) {
	if len(row) != len(columns) {
		return nil, fmt.Errorf("row has %d values but %d columns were named", len(row), len(columns))
	}
	e := New(table, idField)
	for i, col := range columns {
		e.Set(col, row[i])
	}
	return e, nil
}

// FromMap builds an entry from data, ordering keys by name.
func FromMap(data map[string]any, table, idField string) *Entry {
	e := New(table, idField)
	for _, k := range slices.Sorted(maps.Keys(data)) {
		e.Set(k, data[k])
	}
	return e
}

// Table returns the name of the owning table.
func (e *Entry) Table() string { return e.table }

// IDField returns the name of the identifying column, or "".
func (e *Entry) IDField() string { return e.idField }

// SetIDField sets the identifying column.
func (e *Entry) SetIDField(field string) { e.idField = field }

// ID returns the value of the identifying column.
func (e *Entry) ID() (any, bool) {
	if e.idField == "" {
		return nil, false
	}
	return e.Get(e.idField)
}

// Get returns the value stored under key.
func (e *Entry) Get(key string) (any, bool) {
	v, ok := e.data[key]
	return v, ok
}

// Has reports whether key is set.
func (e *Entry) Has(key string) bool {
	_, ok := e.data[key]
	return ok
}

// Set stores value under key.
func (e *Entry) Set(key string, value any) {
	if _, ok := e.data[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.data[key] = value
}

// Delete removes key.
func (e *Entry) Delete(key string) {
	if _, ok := e.data[key]; !ok {
		return
	}
	delete(e.data, key)
	e.keys = slices.DeleteFunc(e.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (e *Entry) Keys() []string {
	return slices.Clone(e.keys)
}

// Len returns the number of keys.
func (e *Entry) Len() int { return len(e.keys) }

// Map returns a copy of the data.
func (e *Entry) Map() map[string]any {
	return maps.Clone(e.data)
}

// Clone returns a deep copy of the entry's bookkeeping; values are shared.
func (e *Entry) Clone() *Entry {
	c := New(e.table, e.idField)
	for _, k := range e.keys {
		c.Set(k, e.data[k])
	}
	return c
}

// Equal reports whether both entries have the same table, id field and data.
// Key order is ignored.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.table == other.table &&
		e.idField == other.idField &&
		reflect.DeepEqual(e.data, other.data)
}

// String renders the entry as
// Entry(table: people, id_field: id, data: {id: 1, name: 'John'}).
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entry(table: %s, id_field: %s, data: {", e.table, e.idField)
	for i, k := range e.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", k, formatValue(e.data[k]))
	}
	b.WriteString("})")
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + x + "'"
	case []byte:
		return fmt.Sprintf("x'%x'", x)
	default:
		return fmt.Sprint(x)
	}
}

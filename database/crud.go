package database

import (
	"context"
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/sqlite-integrated/entry"
	"github.com/nerrad567/sqlite-integrated/query"
)

// FillNull sets every column of the entry's table that e lacks to nil.
func (d *Database) FillNull(ctx context.Context, e *entry.Entry) error {
	if e == nil {
		return ErrNilEntry
	}
	cols, err := d.ColumnNames(ctx, e.Table())
	if err != nil {
		return err
	}
	for _, c := range cols {
		if !e.Has(c) {
			e.Set(c, nil)
		}
	}
	return nil
}

// AddEntry inserts data into table and returns the rowid the engine
// assigned.
//
// data must hold a value for every column except the id column, which is
// always left to the engine. With fillNull set, missing columns are
// inserted as NULL instead of failing with ErrIncompleteEntry. The check
// happens before anything is written. Nil data counts as empty.
func (d *Database) AddEntry(ctx context.Context, table string, data query.Fields, fillNull bool) (int64, error) {
	if data == nil {
		data = query.Map{}
	}
	cols, err := d.TableColumns(ctx, table)
	if err != nil {
		return 0, err
	}
	idField := idFieldOf(cols, d.cfg.DefaultIDField)

	e := entry.New(table, "")
	for _, k := range data.Keys() {
		if k == idField {
			continue
		}
		v, _ := data.Get(k)
		e.Set(k, v)
	}

	if err := checkCoverage(e, cols, idField, fillNull, false); err != nil {
		return 0, err
	}

	res, err := d.InsertInto(table).Values(e).Run(ctx, nil)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertID()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}

	if l := d.SQLLogger(); l != nil {
		l.InfoContext(ctx, "added entry", "table", table, "id", id, "entry", e.String())
	}
	return id, nil
}

// GetEntryByID returns the row of table whose idField equals id. An empty
// idField means the table's id column.
//
// Errors:
//   - ErrNoIDField if no id column can be determined
//   - ErrNotFound if no row matches
//   - ErrDuplicateID if more than one row matches
func (d *Database) GetEntryByID(ctx context.Context, table string, id any, idField string) (*entry.Entry, error) {
	field, err := d.resolveIDField(ctx, table, idField)
	if err != nil {
		return nil, err
	}

	text, args, err := builder.
		Select("*").
		From(quoteIdent(table)).
		Where(sq.Eq{quoteIdent(field): id}).
		Limit(2).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building entry query: %w", err)
	}

	rows, err := d.QueryxContext(ctx, text, args...)
	if err != nil {
		return nil, &query.ExecError{SQL: text, Err: err}
	}
	d.logExecuted(ctx, text)

	columns, found, err := d.collectRows(rows)
	if err != nil {
		return nil, &query.ExecError{SQL: text, Err: err}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s.%s = %v", ErrNotFound, table, field, id)
	case 1:
		return entry.FromRow(found[0], columns, table, field)
	default:
		return nil, fmt.Errorf("%w: %s.%s = %v", ErrDuplicateID, table, field, id)
	}
}

// UpdateEntry writes e back to its table, matching on its id field.
//
// Unless part is set, e must hold every column of the table; fillNull sets
// missing columns to NULL first. e itself is not modified.
func (d *Database) UpdateEntry(ctx context.Context, e *entry.Entry, part, fillNull bool) error {
	if e == nil {
		return ErrNilEntry
	}
	table := e.Table()
	cols, err := d.TableColumns(ctx, table)
	if err != nil {
		return err
	}

	idField, id, err := d.entryID(ctx, e)
	if err != nil {
		return err
	}

	set := e.Clone()
	set.Delete(idField)
	if err := checkCoverage(set, cols, idField, fillNull, part); err != nil {
		return err
	}

	if _, err := d.Update(table).Set(set).Where(idField, id).Run(ctx, nil); err != nil {
		return err
	}

	if l := d.SQLLogger(); l != nil {
		l.InfoContext(ctx, "updated entry", "table", table, "entry", e.String())
	}
	return nil
}

// DeleteEntry deletes the row e was read from.
func (d *Database) DeleteEntry(ctx context.Context, e *entry.Entry) error {
	if e == nil {
		return ErrNilEntry
	}
	idField, id, err := d.entryID(ctx, e)
	if err != nil {
		return err
	}
	_, err = d.DeleteFrom(e.Table()).Where(idField, id).Run(ctx, nil)
	return err
}

// DeleteEntryByID deletes the row of table whose id column equals id.
func (d *Database) DeleteEntryByID(ctx context.Context, table string, id any) error {
	idField, err := d.resolveIDField(ctx, table, "")
	if err != nil {
		return err
	}
	_, err = d.DeleteFrom(table).Where(idField, id).Run(ctx, nil)
	return err
}

// entryID returns the id column and value of e.
func (d *Database) entryID(ctx context.Context, e *entry.Entry) (string, any, error) {
	idField, err := d.resolveIDField(ctx, e.Table(), e.IDField())
	if err != nil {
		return "", nil, err
	}
	id, ok := e.Get(idField)
	if !ok {
		return "", nil, fmt.Errorf("%w: entry of %s has no value for %s", ErrNoIDField, e.Table(), idField)
	}
	return idField, id, nil
}

// checkCoverage compares the keys of e with the table columns other than
// idField. Unknown keys always fail. Missing columns fail unless fillNull
// is set, in which case they are set to nil, or part is set.
func checkCoverage(e *entry.Entry, cols []Column, idField string, fillNull, part bool) error {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}

	var unknown []string
	for _, k := range e.Keys() {
		if !slices.Contains(names, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s not in table %s (columns: %s)",
			ErrUnknownColumn, strings.Join(unknown, ", "), e.Table(), strings.Join(names, ", "))
	}

	var missing []string
	for _, n := range names {
		if n == idField || e.Has(n) {
			continue
		}
		if fillNull {
			e.Set(n, nil)
			continue
		}
		missing = append(missing, n)
	}
	if len(missing) > 0 && !part {
		return fmt.Errorf("%w: %s lacks %s (set fill null or partial update)",
			ErrIncompleteEntry, e.Table(), strings.Join(missing, ", "))
	}
	return nil
}

// collectRows drains rows into column names and value slices.
func (d *Database) collectRows(rows *sqlx.Rows) ([]string, [][]any, error) {
	defer d.CloseRows(rows) //nolint:errcheck // Read-only cursor

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	out := [][]any{}
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}

package database

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/nerrad567/sqlite-integrated/entry"
	"github.com/nerrad567/sqlite-integrated/query"
)

// GetTable returns the rows of table as a lazy sequence of entries. Only
// the getOnly columns are read when any are given.
//
// Nothing is queried until the sequence is ranged over. Each range issues
// a fresh query, so the sequence can be ranged over again to re-read the
// table. Breaking out of the loop releases the cursor.
func (d *Database) GetTable(ctx context.Context, table string, getOnly ...string) iter.Seq2[*entry.Entry, error] {
	return func(yield func(*entry.Entry, error) bool) {
		res, err := d.Select(getOnly...).From(table).Run(ctx, nil)
		if err != nil {
			yield(nil, err)
			return
		}
		for e, err := range res.Entries() {
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// GetTableRaw reads every row of table as value slices in column order,
// limited to the getOnly columns when any are given.
func (d *Database) GetTableRaw(ctx context.Context, table string, getOnly ...string) ([][]any, error) {
	names, err := d.ColumnNames(ctx, table)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, c := range getOnly {
		if !slices.Contains(names, c) {
			unknown = append(unknown, c)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s not in table %s (columns: %s)",
			ErrUnknownColumn, strings.Join(unknown, ", "), table, strings.Join(names, ", "))
	}

	selected := []string{"*"}
	if len(getOnly) > 0 {
		selected = make([]string, len(getOnly))
		for i, c := range getOnly {
			selected[i] = quoteIdent(c)
		}
	}
	text, args, err := builder.Select(selected...).From(quoteIdent(table)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building table query: %w", err)
	}

	rows, err := d.QueryxContext(ctx, text, args...)
	if err != nil {
		return nil, &query.ExecError{SQL: text, Err: err}
	}
	d.logExecuted(ctx, text)

	_, out, err := d.collectRows(rows)
	if err != nil {
		return nil, &query.ExecError{SQL: text, Err: err}
	}
	return out, nil
}

// CountRows returns the number of rows in table.
func (d *Database) CountRows(ctx context.Context, table string) (int64, error) {
	if err := d.requireTable(ctx, table); err != nil {
		return 0, err
	}
	text, args, err := builder.Select("COUNT(*)").From(quoteIdent(table)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int64
	if err := d.conn.GetContext(ctx, &n, text, args...); err != nil {
		return 0, &query.ExecError{SQL: text, Err: err}
	}
	return n, nil
}

// RunRawSQL runs text with args and returns any rows it produces.
// Statements that produce no rows return an empty slice.
func (d *Database) RunRawSQL(ctx context.Context, text string, args ...any) ([][]any, error) {
	rows, err := d.QueryxContext(ctx, text, args...)
	if err != nil {
		return nil, &query.ExecError{SQL: text, Err: err}
	}
	_, out, err := d.collectRows(rows)
	if err != nil {
		return nil, &query.ExecError{SQL: text, Err: err}
	}
	d.logExecuted(ctx, text)
	return out, nil
}

package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultSeparator is the field separator ExportCSV uses when given zero.
const DefaultSeparator = '\t'

// ExportCSV writes each table to dir/<table>.csv with a header row. With no
// tables named, every table is exported. A zero sep means tab separated.
// NULL values are written as empty fields.
func (d *Database) ExportCSV(ctx context.Context, dir string, sep rune, tables ...string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking export directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if sep == 0 {
		sep = DefaultSeparator
	}

	if len(tables) == 0 {
		if tables, err = d.TableNames(ctx); err != nil {
			return err
		}
	}

	for _, table := range tables {
		if err := d.exportTable(ctx, filepath.Join(dir, table+".csv"), table, sep); err != nil {
			return fmt.Errorf("exporting %s: %w", table, err)
		}
	}
	return nil
}

func (d *Database) exportTable(ctx context.Context, path, table string, sep rune) error {
	names, err := d.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	rows, err := d.GetTableRaw(ctx, table)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Close error surfaces through Flush

	w := csv.NewWriter(f)
	w.Comma = sep
	if err := w.Write(names); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(names))
	for _, row := range rows {
		for i, v := range row {
			record[i] = csvField(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	return f.Sync()
}

func csvField(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

package database

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const (
	overviewSeparator = " ║ "
	overviewRule      = "═"
	overviewCross     = "═╬═"
	overviewEllipsis  = "    .\n    .\n    .\n"
	overviewTailRows  = 5
)

// Overview writes every table and its columns to w. With more set, each
// column is described in full and each table shows its row count.
func (d *Database) Overview(ctx context.Context, w io.Writer, more bool) error {
	tables, err := d.TableNames(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		_, err := fmt.Fprintf(w, "There are no tables in sqlite database at %q.\n", d.Path())
		return err
	}

	var b strings.Builder
	b.WriteString("Tables\n")
	for _, table := range tables {
		cols, err := d.TableColumns(ctx, table)
		if err != nil {
			return err
		}
		b.WriteString("\t" + table)
		if more {
			n, err := d.CountRows(ctx, table)
			if err != nil {
				return err
			}
			fmt.Fprintf(&b, " (%s %s)", humanize.Comma(n), plural(n, "row", "rows"))
		}
		b.WriteString("\n")
		for _, c := range cols {
			b.WriteString("\t\t" + c.Name)
			if more {
				b.WriteString("\t\t[" + c.String() + "]")
			}
			b.WriteString("\n")
		}
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// TableOverview writes table to w as an aligned text grid. When the table
// has maxLen rows or more, only the first maxLen-5 and the last 5 rows are
// shown. maxLen <= 0 shows every row.
func (d *Database) TableOverview(ctx context.Context, w io.Writer, table string, maxLen int, getOnly ...string) error {
	rows, err := d.GetTableRaw(ctx, table, getOnly...)
	if err != nil {
		return err
	}
	fields := getOnly
	if len(fields) == 0 {
		if fields, err = d.ColumnNames(ctx, table); err != nil {
			return err
		}
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			cells[i][j] = cellText(v)
		}
	}

	widths := make([]int, len(fields))
	for j, f := range fields {
		widths[j] = runewidth.StringWidth(f)
	}
	for _, row := range cells {
		for j, c := range row {
			widths[j] = max(widths[j], runewidth.StringWidth(c))
		}
	}

	var b strings.Builder
	b.WriteString(formatRow(fields, widths) + "\n")
	rules := make([]string, len(widths))
	for j, n := range widths {
		rules[j] = strings.Repeat(overviewRule, n)
	}
	b.WriteString(strings.Join(rules, overviewCross) + "\n")

	if maxLen > 0 && len(cells) >= maxLen {
		head := max(maxLen-overviewTailRows, 0)
		for _, row := range cells[:head] {
			b.WriteString(formatRow(row, widths) + "\n")
		}
		b.WriteString(overviewEllipsis)
		for _, row := range cells[max(len(cells)-overviewTailRows, head):] {
			b.WriteString(formatRow(row, widths) + "\n")
		}
	} else {
		for _, row := range cells {
			b.WriteString(formatRow(row, widths) + "\n")
		}
	}

	_, err = io.WriteString(w, b.String())
	return err
}

func formatRow(row []string, widths []int) string {
	padded := make([]string, len(row))
	for i, s := range row {
		padded[i] = runewidth.FillRight(s, widths[i])
	}
	return strings.Join(padded, overviewSeparator)
}

// cellText renders a column value for display.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

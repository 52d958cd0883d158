package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// builder renders the facade's own parameterised reads.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// columnInfo is one row of pragma_table_info.
type columnInfo struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int            `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

// foreignKeyInfo is one row of pragma_foreign_key_list.
type foreignKeyInfo struct {
	ID       int            `db:"id"`
	Seq      int            `db:"seq"`
	Table    string         `db:"table"`
	From     string         `db:"from"`
	To       sql.NullString `db:"to"`
	OnUpdate string         `db:"on_update"`
	OnDelete string         `db:"on_delete"`
	Match    string         `db:"match"`
}

// CreateTable creates table name with cols. Columns are validated before
// any SQL is issued; a primary key must be INTEGER.
func (d *Database) CreateTable(ctx context.Context, name string, cols ...Column) error {
	text, err := createTableSQL(name, cols)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx, text)
	return err
}

// RenameTable renames a table.
func (d *Database) RenameTable(ctx context.Context, current, name string) error {
	if err := d.requireTable(ctx, current); err != nil {
		return err
	}
	_, err := d.exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(current), quoteIdent(name)))
	return err
}

// DeleteTable drops a table.
func (d *Database) DeleteTable(ctx context.Context, name string) error {
	if err := d.requireTable(ctx, name); err != nil {
		return err
	}
	_, err := d.exec(ctx, "DROP TABLE "+quoteIdent(name))
	return err
}

// AddColumn adds col to an existing table. Foreign key columns are
// rejected because SQLite cannot add them after creation.
func (d *Database) AddColumn(ctx context.Context, table string, col Column) error {
	if err := col.Validate(); err != nil {
		return err
	}
	if col.ForeignKey != nil {
		return fmt.Errorf("%w: column %s", ErrForeignKeyColumn, col.Name)
	}
	if err := d.requireTable(ctx, table); err != nil {
		return err
	}
	_, err := d.exec(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table), col.definition()))
	return err
}

// RenameColumn renames a column of table.
func (d *Database) RenameColumn(ctx context.Context, table, current, name string) error {
	if err := d.requireColumn(ctx, table, current); err != nil {
		return err
	}
	_, err := d.exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		quoteIdent(table), quoteIdent(current), quoteIdent(name)))
	return err
}

// DeleteColumn drops a column of table.
func (d *Database) DeleteColumn(ctx context.Context, table, column string) error {
	if err := d.requireColumn(ctx, table, column); err != nil {
		return err
	}
	_, err := d.exec(ctx, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(table), quoteIdent(column)))
	return err
}

// TableNames lists user tables in creation order.
func (d *Database) TableNames(ctx context.Context) ([]string, error) {
	if d.conn == nil {
		return nil, ErrClosed
	}
	text, args, err := builder.
		Select("name").
		From("sqlite_master").
		Where(sq.Eq{"type": "table"}).
		Where(sq.NotLike{"name": "sqlite_%"}).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building table query: %w", err)
	}

	names := []string{}
	if err := d.conn.SelectContext(ctx, &names, text, args...); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

// IsTable reports whether a table exists. Names compare case-insensitively,
// as SQLite does.
func (d *Database) IsTable(ctx context.Context, name string) (bool, error) {
	if d.conn == nil {
		return false, ErrClosed
	}
	text, args, err := builder.
		Select("COUNT(*)").
		From("sqlite_master").
		Where(sq.Eq{"type": "table"}).
		Where("name = ? COLLATE NOCASE", name).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building table query: %w", err)
	}

	var n int
	if err := d.conn.GetContext(ctx, &n, text, args...); err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return n > 0, nil
}

// TableColumns describes the columns of table in declaration order,
// including their foreign keys.
func (d *Database) TableColumns(ctx context.Context, table string) ([]Column, error) {
	if err := d.requireTable(ctx, table); err != nil {
		return nil, err
	}

	var infos []columnInfo
	if err := d.conn.SelectContext(ctx, &infos, "SELECT * FROM pragma_table_info(?)", table); err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	var keys []foreignKeyInfo
	if err := d.conn.SelectContext(ctx, &keys, "SELECT * FROM pragma_foreign_key_list(?)", table); err != nil {
		return nil, fmt.Errorf("reading foreign keys of %s: %w", table, err)
	}

	cols := make([]Column, 0, len(infos))
	for _, info := range infos {
		cols = append(cols, Column{
			Name:       info.Name,
			Type:       info.Type,
			NotNull:    info.NotNull == 1,
			Default:    info.Default.String,
			PrimaryKey: info.PK > 0,
			ID:         info.CID,
		})
	}
	for _, k := range keys {
		i := slices.IndexFunc(cols, func(c Column) bool { return c.Name == k.From })
		if i < 0 || cols[i].ForeignKey != nil {
			continue
		}
		cols[i].ForeignKey = &ForeignKey{
			Table:    k.Table,
			Column:   k.To.String,
			From:     k.From,
			OnUpdate: k.OnUpdate,
			OnDelete: k.OnDelete,
			Match:    k.Match,
		}
	}
	return cols, nil
}

// ColumnNames lists the column names of table in declaration order.
func (d *Database) ColumnNames(ctx context.Context, table string) ([]string, error) {
	cols, err := d.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

// IsColumn reports whether table has a column called name.
func (d *Database) IsColumn(ctx context.Context, table, name string) (bool, error) {
	names, err := d.ColumnNames(ctx, table)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// IDField returns the column identifying rows of table: its single primary
// key column, else the configured default id field if the table has it.
// It returns "" when neither applies.
func (d *Database) IDField(ctx context.Context, table string) (string, error) {
	cols, err := d.TableColumns(ctx, table)
	if err != nil {
		return "", err
	}
	return idFieldOf(cols, d.cfg.DefaultIDField), nil
}

func idFieldOf(cols []Column, fallback string) string {
	var keys []string
	for _, c := range cols {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	if len(keys) == 1 {
		return keys[0]
	}
	if fallback != "" && slices.ContainsFunc(cols, func(c Column) bool { return c.Name == fallback }) {
		return fallback
	}
	return ""
}

// resolveIDField picks the id column for table, preferring field when set.
func (d *Database) resolveIDField(ctx context.Context, table, field string) (string, error) {
	if field != "" {
		if err := d.requireColumn(ctx, table, field); err != nil {
			return "", err
		}
		return field, nil
	}
	id, err := d.IDField(ctx, table)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrNoIDField, table)
	}
	return id, nil
}

func (d *Database) requireTable(ctx context.Context, table string) error {
	ok, err := d.IsTable(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTable, table)
	}
	return nil
}

func (d *Database) requireColumn(ctx context.Context, table, column string) error {
	names, err := d.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	if !slices.Contains(names, column) {
		return fmt.Errorf("%w: %s not in table %s (columns: %s)",
			ErrUnknownColumn, column, table, strings.Join(names, ", "))
	}
	return nil
}

package database

import (
	"fmt"
	"strings"
)

// primaryKeyType is the only column type SQLite aliases to the rowid.
const primaryKeyType = "INTEGER"

// ForeignKey references a column of another table.
type ForeignKey struct {
	// Table is the referenced table.
	Table string

	// Column is the referenced column. Empty references the primary key.
	Column string

	// From is the referencing column. CreateTable fills it from the owning
	// Column's name.
	From string

	// OnUpdate and OnDelete are SQL actions such as CASCADE or SET NULL.
	OnUpdate string
	OnDelete string

	// Match is reported by introspection only.
	Match string
}

// SQL renders the table constraint for the key.
func (fk ForeignKey) SQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s", quoteIdent(fk.From), quoteIdent(fk.Table))
	if fk.Column != "" {
		fmt.Fprintf(&b, " (%s)", quoteIdent(fk.Column))
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + fk.OnUpdate)
	}
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + fk.OnDelete)
	}
	return b.String()
}

// Column describes one table column, either for CreateTable and AddColumn
// or as reported by TableColumns.
type Column struct {
	Name    string
	Type    string
	NotNull bool

	// Default is the SQL expression of the default value, such as 'none'
	// or 0. Empty means no default.
	Default string

	// PrimaryKey marks the rowid alias. The type must be INTEGER.
	PrimaryKey bool

	ForeignKey *ForeignKey

	// ID is the column position reported by introspection.
	ID int
}

// Validate checks the column can be declared.
func (c Column) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidColumn)
	}
	if strings.TrimSpace(c.Type) == "" {
		return fmt.Errorf("%w: column %s has no type", ErrInvalidColumn, c.Name)
	}
	if c.PrimaryKey && !strings.EqualFold(c.Type, primaryKeyType) {
		return fmt.Errorf("%w: column %s is %s", ErrPrimaryKeyType, c.Name, c.Type)
	}
	if c.ForeignKey != nil && strings.TrimSpace(c.ForeignKey.Table) == "" {
		return fmt.Errorf("%w: foreign key of column %s names no table", ErrInvalidColumn, c.Name)
	}
	return nil
}

// definition renders the column for CREATE TABLE and ADD COLUMN, without
// its foreign key.
func (c Column) definition() string {
	def := quoteIdent(c.Name) + " " + c.Type
	if c.PrimaryKey {
		def += " PRIMARY KEY"
	}
	if c.NotNull {
		def += " NOT NULL"
	}
	if c.Default != "" {
		def += " DEFAULT " + c.Default
	}
	return def
}

// String renders the column as Column(name, TYPE, NOT NULL, ...).
func (c Column) String() string {
	attrs := []string{c.Name, c.Type}
	if c.NotNull {
		attrs = append(attrs, "NOT NULL")
	}
	if c.Default != "" {
		attrs = append(attrs, "DEFAULT: "+c.Default)
	}
	if c.PrimaryKey {
		attrs = append(attrs, "PRIMARY KEY")
	}
	if c.ForeignKey != nil {
		attrs = append(attrs, c.ForeignKey.SQL())
	}
	return "Column(" + strings.Join(attrs, ", ") + ")"
}

// createTableSQL renders CREATE TABLE for name. Every column is validated
// first.
func createTableSQL(name string, cols []Column) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty table name", ErrInvalidColumn)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("%w: table %s has no columns", ErrInvalidColumn, name)
	}

	lines := make([]string, 0, len(cols))
	var keys []string
	for _, c := range cols {
		if err := c.Validate(); err != nil {
			return "", err
		}
		lines = append(lines, c.definition())
		if c.ForeignKey != nil {
			fk := *c.ForeignKey
			fk.From = c.Name
			keys = append(keys, fk.SQL())
		}
	}
	lines = append(lines, keys...)

	return "CREATE TABLE " + quoteIdent(name) + " (\n  " + strings.Join(lines, ",\n  ") + "\n)", nil
}

// quoteIdent quotes an identifier for DDL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

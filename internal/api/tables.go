package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sqlite-integrated/database"
)

// TableSummary is one table in the table listing.
type TableSummary struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// TableRows is the content of one table.
type TableRows struct {
	Table     string   `json:"table"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	NotNull    bool            `json:"not_null"`
	Default    string          `json:"default,omitempty"`
	PrimaryKey bool            `json:"primary_key"`
	ForeignKey *ForeignKeyInfo `json:"foreign_key,omitempty"`
}

// ForeignKeyInfo describes the reference held by a column.
type ForeignKeyInfo struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	OnUpdate string `json:"on_update"`
	OnDelete string `json:"on_delete"`
}

// EntryResponse is a single row looked up by id.
type EntryResponse struct {
	Table   string         `json:"table"`
	IDField string         `json:"id_field"`
	Data    map[string]any `json:"data"`
}

// handleListTables returns every table with its row count.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.db.TableNames(ctx)
	if err != nil {
		s.writeDatabaseError(w, r, err, "failed to list tables")
		return
	}

	tables := make([]TableSummary, 0, len(names))
	for _, name := range names {
		n, err := s.db.CountRows(ctx, name)
		if err != nil {
			s.writeDatabaseError(w, r, err, "failed to count rows")
			return
		}
		tables = append(tables, TableSummary{Name: name, Rows: n})
	}

	writeJSON(w, http.StatusOK, map[string]any{"tables": tables, "count": len(tables)})
}

// handleGetTable returns the rows of a table.
//
// Query parameters:
//   - only: comma separated columns to return (default: all)
//   - limit: maximum rows to return (default: overview.max_len, 0 for all)
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	table := chi.URLParam(r, "table")
	only := splitList(r.URL.Query().Get("only"))

	limit := s.overviewCfg.MaxLen
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.GetTableRaw(ctx, table, only...)
	if err != nil {
		s.writeDatabaseError(w, r, err, "failed to read table")
		return
	}

	columns := only
	if len(columns) == 0 {
		if columns, err = s.db.ColumnNames(ctx, table); err != nil {
			s.writeDatabaseError(w, r, err, "failed to read columns")
			return
		}
	}

	resp := TableRows{Table: table, Columns: columns, Rows: rows, Count: len(rows)}
	if limit > 0 && len(rows) > limit {
		resp.Rows = rows[:limit]
		resp.Truncated = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListColumns returns the column definitions of a table.
func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	s.mu.Lock()
	defer s.mu.Unlock()

	cols, err := s.db.TableColumns(r.Context(), table)
	if err != nil {
		s.writeDatabaseError(w, r, err, "failed to read columns")
		return
	}

	out := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = columnInfo(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table, "columns": out, "count": len(out)})
}

// handleGetEntry returns a single row by its id column.
//
// Query parameters:
//   - field: id column to match (default: the table's id column)
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id := parseID(chi.URLParam(r, "id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.db.GetEntryByID(r.Context(), table, id, r.URL.Query().Get("field"))
	if err != nil {
		s.writeDatabaseError(w, r, err, "failed to get entry")
		return
	}

	writeJSON(w, http.StatusOK, EntryResponse{
		Table:   e.Table(),
		IDField: e.IDField(),
		Data:    e.Map(),
	})
}

func columnInfo(c database.Column) ColumnInfo {
	info := ColumnInfo{
		ID:         c.ID,
		Name:       c.Name,
		Type:       c.Type,
		NotNull:    c.NotNull,
		Default:    c.Default,
		PrimaryKey: c.PrimaryKey,
	}
	if fk := c.ForeignKey; fk != nil {
		info.ForeignKey = &ForeignKeyInfo{
			Table:    fk.Table,
			Column:   fk.Column,
			OnUpdate: fk.OnUpdate,
			OnDelete: fk.OnDelete,
		}
	}
	return info
}

// parseID keeps integer ids typed so they match INTEGER columns exactly.
func parseID(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

// splitList splits a comma separated query parameter, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

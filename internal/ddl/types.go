package ddl

import (
	"strconv"
	"strings"
)

// ColumnDef describes a single column in a table definition. It intentionally
// uses simple, database-agnostic fields.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (TEXT, INTEGER)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the (possibly composite) primary key
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name and the ordered list of columns. Column order
// is significant: it drives both the CREATE TABLE column list and the
// positional alignment of INSERT value tuples.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// KeyColumns returns the primary key columns in declaration order.
func (t TableDef) KeyColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}

// Row is one normalized record keyed by column name. Columns absent from the
// map (or mapped to nil) are rendered as NULL.
type Row map[string]any

// Dialect selects the placeholder style used by parameterized statements.
type Dialect int

const (
	// SQLite uses positional "?" placeholders.
	SQLite Dialect = iota
	// Postgres uses numbered "$1" placeholders.
	Postgres
)

// Placeholder returns the bind marker for the 1-based argument position n.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// MaxParams is the most bind arguments one statement may carry: SQLite's
// default SQLITE_MAX_VARIABLE_NUMBER and the Postgres wire protocol's int16
// parameter count.
func (d Dialect) MaxParams() int {
	if d == Postgres {
		return 65535
	}
	return 32766
}

// RowsPerStatement caps batch so that batch rows of ncols columns fit in
// one bound statement. It always returns at least 1.
func (d Dialect) RowsPerStatement(batch, ncols int) int {
	if ncols <= 0 {
		return batch
	}
	if limit := d.MaxParams() / ncols; batch > limit {
		batch = limit
	}
	if batch < 1 {
		batch = 1
	}
	return batch
}

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// quoteIdent double-quotes an identifier, doubling any embedded quotes.
// Both SQLite and Postgres accept this form.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// quoteFQN quotes each dot-separated segment of a table name.
func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}

func quoteIdentList(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return strings.Join(out, ", ")
}

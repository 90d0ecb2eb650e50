package ddl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNothingToInsert signals an empty row set. Callers treat it as "skip this
// table" rather than emitting a malformed INSERT ... VALUES ().
var ErrNothingToInsert = errors.New("ddl: nothing to insert")

// BuildInsertSQL wraps pre-rendered value text (see BuildValueText) into
//
//	INSERT INTO "table" ("c1", "c2") VALUES <valueText>;
func BuildInsertSQL(table string, columns []string, valueText string) (string, error) {
	head, err := insertHead(table, columns)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(valueText) == "" {
		return "", ErrNothingToInsert
	}
	return head + valueText + ";", nil
}

// BuildInsertPlaceholders composes a multi-row INSERT that carries no values,
// only bind markers in the dialect's style:
//
//	INSERT INTO "t" ("a", "b") VALUES (?, ?), (?, ?)
//	INSERT INTO "t" ("a", "b") VALUES ($1, $2), ($3, $4)
//
// The matching arguments come from BindArgs with the same column order.
func BuildInsertPlaceholders(d Dialect, table string, columns []string, nrows int) (string, error) {
	head, err := insertHead(table, columns)
	if err != nil {
		return "", err
	}
	if nrows <= 0 {
		return "", ErrNothingToInsert
	}

	var b strings.Builder
	b.WriteString(head)
	n := 0
	for r := 0; r < nrows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			n++
			b.WriteString(d.Placeholder(n))
		}
		b.WriteByte(')')
	}
	return b.String(), nil
}

// BindArgs flattens rows into a positional argument slice aligned to columns,
// len(rows)*len(columns) long. Missing values become nil (bound as NULL).
func BindArgs(rows []Row, columns []string) ([]any, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("ddl: columns must not be empty")
	}
	if len(rows) == 0 {
		return nil, ErrNothingToInsert
	}

	known := columnSet(columns)
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if err := checkRowKeys(row, known); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		for _, col := range columns {
			v := row[col]
			if err := checkBindable(v); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, col, err)
			}
			args = append(args, v)
		}
	}
	return args, nil
}

// Chunk splits rows into consecutive batches of at most size rows.
func Chunk(rows []Row, size int) [][]Row {
	if size <= 0 || len(rows) <= size {
		if len(rows) == 0 {
			return nil
		}
		return [][]Row{rows}
	}
	out := make([][]Row, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

func insertHead(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("ddl: table must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("ddl: columns must not be empty for table %s", table)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteFQN(table), quoteIdentList(columns)), nil
}

// BuildCountSQL returns SELECT COUNT(*) FROM "table".
func BuildCountSQL(table string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("ddl: table must not be empty")
	}
	return "SELECT COUNT(*) FROM " + quoteFQN(table), nil
}

// BuildDeleteSQL returns DELETE FROM "table", used to clear a table before a
// full reload.
func BuildDeleteSQL(table string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("ddl: table must not be empty")
	}
	return "DELETE FROM " + quoteFQN(table), nil
}

package ddl

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NullLiteral is the token rendered for missing values.
const NullLiteral = "NULL"

// Literal renders a scalar Go value as a SQL literal.
//
// Rules:
//   - nil              → NULL
//   - string           → '...' with embedded single quotes doubled
//   - bool             → 1 / 0
//   - integers, floats → unquoted decimal text
//   - []byte           → X'hex'
//
// Strings containing a NUL byte, non-finite floats, and any other Go type
// (maps, slices, structs) are rejected: the normalizer is expected to have
// serialized composite values to text before they reach the builder.
func Literal(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return NullLiteral, nil
	case string:
		if strings.IndexByte(t, 0) >= 0 {
			return "", fmt.Errorf("ddl: string value contains NUL byte")
		}
		return "'" + strings.ReplaceAll(t, "'", "''") + "'", nil
	case bool:
		if t {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(t), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return formatFloat(float64(t), 32)
	case float64:
		return formatFloat(t, 64)
	case []byte:
		return "X'" + hex.EncodeToString(t) + "'", nil
	default:
		return "", fmt.Errorf("ddl: unsupported literal type %T", v)
	}
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("ddl: non-finite float %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

// checkBindable reports whether v can be passed as a bound argument. It
// applies the same type rules as Literal so both execution modes accept and
// reject the same rows.
func checkBindable(v any) error {
	switch t := v.(type) {
	case []byte, nil:
		return nil
	case string:
		if strings.IndexByte(t, 0) >= 0 {
			return fmt.Errorf("ddl: string value contains NUL byte")
		}
		return nil
	}
	_, err := Literal(v)
	return err
}

// BuildValueText renders rows as comma-joined, parenthesized literal tuples
// aligned to columns:
//
//	('a', 1, NULL),
//	('b', 2, 'it''s')
//
// Every tuple has exactly len(columns) values in column order; a row key
// that is not one of the columns is an error so data is never silently
// dropped. Empty input returns ErrNothingToInsert.
func BuildValueText(rows []Row, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("ddl: columns must not be empty")
	}
	if len(rows) == 0 {
		return "", ErrNothingToInsert
	}

	known := columnSet(columns)

	var b strings.Builder
	for i, row := range rows {
		if err := checkRowKeys(row, known); err != nil {
			return "", fmt.Errorf("row %d: %w", i, err)
		}
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteByte('(')
		for j, col := range columns {
			lit, err := Literal(row[col])
			if err != nil {
				return "", fmt.Errorf("row %d column %s: %w", i, col, err)
			}
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(lit)
		}
		b.WriteByte(')')
	}
	return b.String(), nil
}

func columnSet(columns []string) map[string]struct{} {
	out := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		out[c] = struct{}{}
	}
	return out
}

func checkRowKeys(row Row, known map[string]struct{}) error {
	for k := range row {
		if _, ok := known[k]; !ok {
			return fmt.Errorf("ddl: value for unknown column %q", k)
		}
	}
	return nil
}

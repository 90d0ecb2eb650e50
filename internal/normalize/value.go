package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/unicode/norm"

	"github.com/MemphisMeng/cricket-report-sub000/internal/schema"
)

// jsonAPI decodes numbers as json.Number so integer ids and counts keep full
// precision, and encodes maps with sorted keys so composite columns are
// byte-stable across runs.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// coerce converts a decoded JSON value to the Go type stored in a column of
// the given SQL type.
func coerce(v any, sqlType string) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any, []any:
		if sqlType == schema.Integer {
			return nil, fmt.Errorf("%s value in INTEGER column", kindOf(v))
		}
		return Canonical(t)
	case string:
		s := nfc(t)
		if sqlType == schema.Integer {
			i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("value %q is not an integer", s)
			}
			return i, nil
		}
		return s, nil
	case json.Number:
		if sqlType == schema.Integer {
			return numberInt(t)
		}
		return numberText(t)
	case float64:
		if sqlType == schema.Integer {
			return floatInt(t)
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		if sqlType == schema.Integer {
			if t {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return strconv.FormatBool(t), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Canonical renders a decoded JSON value as compact JSON with sorted object
// keys and NFC-normalized strings.
func Canonical(v any) (string, error) {
	s, err := jsonAPI.MarshalToString(nfcDeep(v))
	if err != nil {
		return "", fmt.Errorf("encode composite value: %w", err)
	}
	return s, nil
}

func numberText(n json.Number) (string, error) {
	s := n.String()
	if !strings.ContainsAny(s, "eE") {
		return s, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("value %s is not a number", s)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func numberInt(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("value %s is not a number", n)
	}
	return floatInt(f)
}

func floatInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	return int64(f), nil
}

func nfc(s string) string {
	return norm.NFC.String(s)
}

func nfcDeep(v any) any {
	switch t := v.(type) {
	case string:
		return nfc(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[nfc(k)] = nfcDeep(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = nfcDeep(x)
		}
		return out
	default:
		return v
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

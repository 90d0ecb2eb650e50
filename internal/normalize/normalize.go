// Package normalize flattens Cricsheet match documents into the rows of the
// three destination tables.
//
// A document is one decoded JSON object of the form
//
//	{"meta": {...}, "info": {...}, "innings": [{...}, ...]}
//
// Match columns are read from info.<column>, innings columns from
// innings[i].<column>, and player identities from info.registry.people.
// Every value is coerced to the SQL type the column registry declares for
// it:
//
//   - absent or null      → nil (rendered as NULL / bound as NULL)
//   - object or array     → compact JSON text with sorted keys
//   - TEXT column         → string (numbers without exponent, bools as "true"/"false")
//   - INTEGER column      → int64 (bools as 1/0); non-integral values are malformed
//
// All strings, including those nested inside composite values, are NFC
// normalized. Normalize is pure and safe for concurrent use.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
	"github.com/MemphisMeng/cricket-report-sub000/internal/schema"
)

// Gender partitions.
const (
	Female = "female"
	Male   = "male"
)

// Document is one match as handed over by the archive reader.
type Document struct {
	// GameID is the archive entry's file stem, e.g. "1082591".
	GameID string
	// Source names where the document came from (archive path + entry) and
	// is only used in error messages.
	Source string
	// Raw is the undecoded JSON body.
	Raw []byte
}

// Player is one identity pair taken from a match registry.
type Player struct {
	ID     string
	Name   string
	Gender string
}

// Row renders p as a player_universe row.
func (p Player) Row() ddl.Row {
	return ddl.Row{"name": p.Name, "player_id": p.ID, "gender": p.Gender}
}

// Result holds the flattened rows of one document.
type Result struct {
	Match   ddl.Row
	Innings []ddl.Row
	Players []Player
}

// ErrMalformed is matched by every *MalformedError.
var ErrMalformed = errors.New("malformed document")

// MalformedError reports a document that cannot be normalized. The run
// skips such documents and counts them.
type MalformedError struct {
	GameID string
	Source string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	var b strings.Builder
	b.WriteString("normalize: malformed document")
	if e.GameID != "" {
		fmt.Fprintf(&b, " %s", e.GameID)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

func (e *MalformedError) Unwrap() error { return e.Err }

// Normalize flattens doc. gender is the partition the document was
// downloaded under; info.gender takes precedence when present.
func Normalize(doc Document, gender string) (Result, error) {
	bad := func(reason string, err error) (Result, error) {
		return Result{}, &MalformedError{GameID: doc.GameID, Source: doc.Source, Reason: reason, Err: err}
	}

	gameID := nfc(strings.TrimSpace(doc.GameID))
	if gameID == "" {
		return bad("empty game id", nil)
	}

	var body any
	if err := jsonAPI.Unmarshal(doc.Raw, &body); err != nil {
		return bad("invalid JSON", err)
	}
	top, ok := body.(map[string]any)
	if !ok {
		return bad(fmt.Sprintf("top-level value is %s, want object", kindOf(body)), nil)
	}
	info, ok := top["info"].(map[string]any)
	if !ok {
		return bad("missing info object", nil)
	}

	matchDef := schema.MustLookup(schema.MatchResults)
	match, err := flatten(matchDef, info, "game_id")
	if err != nil {
		return bad("info", err)
	}
	match["game_id"] = gameID
	if match["gender"] == nil && gender != "" {
		match["gender"] = gender
	}

	var inningsRows []ddl.Row
	switch raw := top["innings"].(type) {
	case nil:
	case []any:
		inningsDef := schema.MustLookup(schema.Innings)
		inningsRows = make([]ddl.Row, 0, len(raw))
		for i, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				return bad(fmt.Sprintf("innings[%d] is %s, want object", i, kindOf(item)), nil)
			}
			row, err := flatten(inningsDef, obj, "game_id", "innings_order")
			if err != nil {
				return bad(fmt.Sprintf("innings[%d]", i), err)
			}
			row["game_id"] = gameID
			row["innings_order"] = int64(i + 1)
			inningsRows = append(inningsRows, row)
		}
	default:
		return bad(fmt.Sprintf("innings is %s, want array", kindOf(raw)), nil)
	}

	playerGender := gender
	if g, ok := match["gender"].(string); ok && g != "" {
		playerGender = g
	}
	players, err := registryPlayers(info, playerGender)
	if err != nil {
		return bad("registry", err)
	}

	return Result{Match: match, Innings: inningsRows, Players: players}, nil
}

// flatten copies src.<column> into a row for every column of def except the
// ones listed in skip, coercing each value to the column's declared type.
func flatten(def ddl.TableDef, src map[string]any, skip ...string) (ddl.Row, error) {
	row := make(ddl.Row, len(def.Columns))
	for _, c := range def.Columns {
		if contains(skip, c.Name) {
			continue
		}
		v, err := coerce(src[c.Name], c.SQLType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		row[c.Name] = v
	}
	return row, nil
}

// registryPlayers extracts info.registry.people, sorted by name so the
// output does not depend on map iteration order.
func registryPlayers(info map[string]any, gender string) ([]Player, error) {
	reg, ok := info["registry"].(map[string]any)
	if !ok {
		return nil, nil
	}
	people, ok := reg["people"].(map[string]any)
	if !ok {
		return nil, nil
	}

	out := make([]Player, 0, len(people))
	for name, rawID := range people {
		id, ok := rawID.(string)
		if !ok {
			return nil, fmt.Errorf("player %q: id is %s, want string", name, kindOf(rawID))
		}
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, Player{ID: nfc(id), Name: nfc(name), Gender: gender})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

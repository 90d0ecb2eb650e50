package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
)

// Dedupe policies.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// DeDup resolves rows that share the same key to one winner per key:
//
//   - "keep-first"   : the earliest occurrence (default)
//   - "keep-last"    : the latest occurrence
//   - "most-complete": the row with the most non-empty values; ties go to
//     the earlier row
//
// Rows missing a key column are passed through after the winners, in input
// order. Winners keep the relative order of their first appearance.
type DeDup struct {
	Keys   []string
	Policy string
}

// Winners returns the indices of the rows that survive, in the order their
// key first appeared, followed by the indices of rows missing a key column.
func (d DeDup) Winners(in []ddl.Row) []int {
	if len(d.Keys) == 0 {
		idx := make([]int, len(in))
		for i := range in {
			idx[i] = i
		}
		return idx
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = KeepFirst
	}

	type slot struct {
		winner int
		first  int // position of the key's first appearance, fixes output order
		score  int
	}
	winners := make(map[string]*slot, len(in))
	var passthrough []int

	for i, r := range in {
		key, ok := d.keyOf(r)
		if !ok {
			passthrough = append(passthrough, i)
			continue
		}
		prev, exists := winners[key]
		if !exists {
			winners[key] = &slot{winner: i, first: i, score: completeness(r)}
			continue
		}
		switch policy {
		case KeepLast:
			prev.winner = i
		case MostComplete:
			if s := completeness(r); s > prev.score {
				prev.winner, prev.score = i, s
			}
		}
	}

	slots := make([]*slot, 0, len(winners))
	for _, s := range winners {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].first < slots[j].first })

	out := make([]int, 0, len(slots)+len(passthrough))
	for _, s := range slots {
		out = append(out, s.winner)
	}
	return append(out, passthrough...)
}

func (d DeDup) keyOf(r ddl.Row) (string, bool) {
	var b strings.Builder
	for i, k := range d.Keys {
		v, ok := r[k]
		if !ok || v == nil {
			return "", false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if s, ok := v.(string); ok {
			b.WriteString(s)
		} else {
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String(), true
}

func completeness(r ddl.Row) int {
	n := 0
	for _, v := range r {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		n++
	}
	return n
}

// DedupePlayers keeps one identity per player id, chosen by policy. The
// default keeps the first identity seen.
func DedupePlayers(in []Player, policy string) []Player {
	idx := DeDup{Keys: []string{"player_id"}, Policy: policy}.Winners(PlayerRows(in))
	out := make([]Player, len(idx))
	for i, j := range idx {
		out[i] = in[j]
	}
	return out
}

// PlayerRows renders players as player_universe rows.
func PlayerRows(players []Player) []ddl.Row {
	rows := make([]ddl.Row, len(players))
	for i, p := range players {
		rows[i] = p.Row()
	}
	return rows
}

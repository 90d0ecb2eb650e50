package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
)

func player(id, name string, extra ...any) ddl.Row {
	r := ddl.Row{"player_id": id, "name": name}
	if len(extra) == 2 {
		r[extra[0].(string)] = extra[1]
	}
	return r
}

func pick(rows []ddl.Row, idx []int) []ddl.Row {
	out := make([]ddl.Row, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func TestDeDup_Policies(t *testing.T) {
	t.Parallel()

	in := []ddl.Row{
		player("a", "first"),
		player("b", "B"),
		player("a", "second", "gender", "female"),
		player("a", "third"),
	}

	tests := []struct {
		policy string
		want   []ddl.Row
	}{
		{policy: "", want: []ddl.Row{player("a", "first"), player("b", "B")}},
		{policy: KeepFirst, want: []ddl.Row{player("a", "first"), player("b", "B")}},
		{policy: KeepLast, want: []ddl.Row{player("a", "third"), player("b", "B")}},
		{policy: MostComplete, want: []ddl.Row{player("a", "second", "gender", "female"), player("b", "B")}},
	}

	for _, tt := range tests {
		t.Run("policy="+tt.policy, func(t *testing.T) {
			t.Parallel()
			got := DeDup{Keys: []string{"player_id"}, Policy: tt.policy}.Winners(in)
			assert.Equal(t, tt.want, pick(in, got))
		})
	}
}

func TestDeDup_CompositeKeyAndPassthrough(t *testing.T) {
	t.Parallel()

	in := []ddl.Row{
		{"game_id": "1", "innings_order": int64(1), "team": "A"},
		{"game_id": "1", "innings_order": int64(2), "team": "B"},
		{"game_id": "1", "innings_order": int64(1), "team": "dup"},
		{"team": "no key"},
	}
	got := DeDup{Keys: []string{"game_id", "innings_order"}}.Winners(in)

	assert.Equal(t, []int{0, 1, 3}, got)
}

func TestDedupePlayers_SharedAcrossPartitions(t *testing.T) {
	t.Parallel()

	female := []Player{{ID: "p1", Name: "Alice", Gender: Female}, {ID: "shared", Name: "Sam", Gender: Female}}
	male := []Player{{ID: "shared", Name: "Sam", Gender: Male}, {ID: "p2", Name: "Bob", Gender: Male}}

	got := DedupePlayers(append(female, male...), KeepFirst)

	assert.Equal(t, []Player{
		{ID: "p1", Name: "Alice", Gender: Female},
		{ID: "shared", Name: "Sam", Gender: Female},
		{ID: "p2", Name: "Bob", Gender: Male},
	}, got)
	assert.Equal(t, []ddl.Row{
		{"name": "Alice", "player_id": "p1", "gender": Female},
		{"name": "Sam", "player_id": "shared", "gender": Female},
		{"name": "Bob", "player_id": "p2", "gender": Male},
	}, PlayerRows(got))
}

func TestDedupePlayers_Policy(t *testing.T) {
	t.Parallel()

	in := []Player{
		{ID: "p1", Name: "Sam"},
		{ID: "p1", Name: "Sam", Gender: Female},
		{ID: "p1", Name: "S Smith"},
	}

	assert.Equal(t, []Player{in[0]}, DedupePlayers(in, ""))
	assert.Equal(t, []Player{in[2]}, DedupePlayers(in, KeepLast))
	assert.Equal(t, []Player{in[1]}, DedupePlayers(in, MostComplete))
}

package schema

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
)

func TestTables_Order(t *testing.T) {
	t.Parallel()

	var names []string
	for _, tbl := range Tables() {
		names = append(names, tbl.FQN)
	}
	assert.Equal(t, []string{MatchResults, Innings, PlayerUniverse}, names)
}

func TestTables_ColumnContract(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"balls_per_over", "bowl_out", "city", "dates", "event", "gender",
		"match_type", "match_type_number", "missing", "officials", "outcome",
		"overs", "player_of_match", "players", "registry", "season",
		"supersubs", "team_type", "teams", "toss", "venue", "game_id",
	}, MustLookup(MatchResults).ColumnNames())

	assert.Equal(t, []string{
		"team", "overs", "absent_hurt", "penalty_runs", "declared", "forfeited",
		"powerplays", "miscounted_overs", "target", "super_over", "game_id",
		"innings_order",
	}, MustLookup(Innings).ColumnNames())

	assert.Equal(t, []string{"name", "player_id", "gender"}, MustLookup(PlayerUniverse).ColumnNames())
}

func TestTables_Keys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"game_id"}, MustLookup(MatchResults).KeyColumns())
	assert.Equal(t, []string{"game_id", "innings_order"}, MustLookup(Innings).KeyColumns())
	assert.Equal(t, []string{"player_id"}, MustLookup(PlayerUniverse).KeyColumns())

	for _, tbl := range Tables() {
		for _, c := range tbl.Columns {
			if c.PrimaryKey {
				assert.False(t, c.Nullable, "%s.%s is a key and must be NOT NULL", tbl.FQN, c.Name)
			}
		}
	}
}

func TestTables_ReturnsCopies(t *testing.T) {
	t.Parallel()

	a := Tables()
	a[0].Columns[0].Name = "mutated"
	assert.Equal(t, "balls_per_over", Tables()[0].Columns[0].Name)
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	_, err := Lookup("nope")
	require.Error(t, err)
	assert.Panics(t, func() { MustLookup("nope") })
}

func TestColumnType(t *testing.T) {
	t.Parallel()

	inn := MustLookup(Innings)
	assert.Equal(t, Integer, ColumnType(inn, "innings_order"))
	assert.Equal(t, Text, ColumnType(inn, "target"))
	assert.Equal(t, "", ColumnType(inn, "city"))
}

// TestTables_CreateStatementsGolden pins the DDL emitted for every registered
// table.
func TestTables_CreateStatementsGolden(t *testing.T) {
	g := goldie.New(t)
	for _, tbl := range Tables() {
		sql, err := ddl.BuildCreateTableSQL(tbl)
		require.NoError(t, err)
		g.Assert(t, "create_"+tbl.FQN, []byte(sql))
	}
}

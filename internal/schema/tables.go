// Package schema is the column registry: the authoritative, ordered column
// list of each destination table and its key columns.
//
// The DDL builder, the DML builder, and the normalizer all read column order
// from here, so the CREATE TABLE column list and the INSERT value tuples can
// never drift apart. Tables() also fixes the creation and load order.
package schema

import (
	"fmt"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
)

// Table names.
const (
	MatchResults   = "match_results"
	Innings        = "innings"
	PlayerUniverse = "player_universe"
)

// SQL types used by the registry. Both SQLite and Postgres accept them.
const (
	Text    = "TEXT"
	Integer = "INTEGER"
)

func col(name, typ string) ddl.ColumnDef {
	return ddl.ColumnDef{Name: name, SQLType: typ, Nullable: true}
}

func key(name, typ string) ddl.ColumnDef {
	return ddl.ColumnDef{Name: name, SQLType: typ, PrimaryKey: true}
}

func matchResults() ddl.TableDef {
	return ddl.TableDef{
		FQN: MatchResults,
		Columns: []ddl.ColumnDef{
			col("balls_per_over", Integer),
			col("bowl_out", Text),
			col("city", Text),
			col("dates", Text),
			col("event", Text),
			col("gender", Text),
			col("match_type", Text),
			col("match_type_number", Integer),
			col("missing", Text),
			col("officials", Text),
			col("outcome", Text),
			col("overs", Integer),
			col("player_of_match", Text),
			col("players", Text),
			col("registry", Text),
			col("season", Text),
			col("supersubs", Text),
			col("team_type", Text),
			col("teams", Text),
			col("toss", Text),
			col("venue", Text),
			key("game_id", Text),
		},
	}
}

func innings() ddl.TableDef {
	return ddl.TableDef{
		FQN: Innings,
		Columns: []ddl.ColumnDef{
			col("team", Text),
			col("overs", Text),
			col("absent_hurt", Text),
			col("penalty_runs", Text),
			col("declared", Integer),
			col("forfeited", Integer),
			col("powerplays", Text),
			col("miscounted_overs", Text),
			col("target", Text),
			col("super_over", Integer),
			key("game_id", Text),
			key("innings_order", Integer),
		},
	}
}

func playerUniverse() ddl.TableDef {
	return ddl.TableDef{
		FQN: PlayerUniverse,
		Columns: []ddl.ColumnDef{
			col("name", Text),
			key("player_id", Text),
			col("gender", Text),
		},
	}
}

// Tables returns the registry in creation/load order: match_results, innings,
// player_universe. Each call returns fresh copies that callers may modify.
func Tables() []ddl.TableDef {
	return []ddl.TableDef{matchResults(), innings(), playerUniverse()}
}

// Lookup returns the definition of the named table.
func Lookup(name string) (ddl.TableDef, error) {
	for _, t := range Tables() {
		if t.FQN == name {
			return t, nil
		}
	}
	return ddl.TableDef{}, fmt.Errorf("schema: unknown table %q", name)
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) ddl.TableDef {
	t, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return t
}

// ColumnType returns the declared SQL type of column in def, or "" when the
// column is not part of the table.
func ColumnType(def ddl.TableDef, column string) string {
	for _, c := range def.Columns {
		if c.Name == column {
			return c.SQLType
		}
	}
	return ""
}

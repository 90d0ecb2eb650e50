package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/MemphisMeng/cricket-report-sub000/internal/config"
	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
	"github.com/MemphisMeng/cricket-report-sub000/internal/metrics"
	"github.com/MemphisMeng/cricket-report-sub000/internal/normalize"
	"github.com/MemphisMeng/cricket-report-sub000/internal/schema"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"
)

// tablePlan is everything the run knows about one destination table.
type tablePlan struct {
	def    ddl.TableDef
	rows   []ddl.Row
	create string
	// stmts clears the table and then inserts rows, in one transaction.
	stmts   []storage.Statement
	inserts int
}

// normalized is one document that survived Normalize.
type normalized struct {
	res    normalize.Result
	source string
	digest uint64
}

func (r *Runner) normalize(ctx context.Context, st *run) error {
	var docs []normalized
	for _, b := range st.batches {
		for _, doc := range b.Documents {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := normalize.Normalize(doc, b.Gender)
			if err != nil {
				if errors.Is(err, normalize.ErrMalformed) {
					st.summary.Skipped++
					st.log.WithError(err).Warn("malformed document skipped")
					continue
				}
				return err
			}
			docs = append(docs, normalized{res: res, source: doc.Source, digest: xxh3.Hash(doc.Raw)})
		}
	}

	// The same match can be listed in both partitions; the dedupe policy
	// picks which copy is loaded.
	matchRows := make([]ddl.Row, len(docs))
	for i, d := range docs {
		matchRows[i] = d.res.Match
	}
	matchDef := schema.MustLookup(schema.MatchResults)
	winners := normalize.DeDup{Keys: matchDef.KeyColumns(), Policy: r.opts.DedupePolicy}.Winners(matchRows)
	st.summary.Duplicates = len(docs) - len(winners)
	if st.summary.Duplicates > 0 {
		r.logDuplicates(st, docs, winners)
	}

	var (
		matches = make([]ddl.Row, 0, len(winners))
		innings []ddl.Row
		players []normalize.Player
	)
	for _, i := range winners {
		matches = append(matches, docs[i].res.Match)
		innings = append(innings, docs[i].res.Innings...)
		players = append(players, docs[i].res.Players...)
	}

	players = normalize.DedupePlayers(players, r.opts.DedupePolicy)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})

	byTable := map[string][]ddl.Row{
		schema.MatchResults:   matches,
		schema.Innings:        innings,
		schema.PlayerUniverse: normalize.PlayerRows(players),
	}

	st.tables = st.tables[:0]
	for _, def := range schema.Tables() {
		st.tables = append(st.tables, &tablePlan{def: def, rows: byTable[def.FQN]})
	}

	st.summary.Matches = len(matches)
	st.summary.Innings = len(innings)
	st.summary.Players = len(players)

	metrics.RecordDocuments(r.opts.Job, "normalized", int64(len(matches)))
	metrics.RecordDocuments(r.opts.Job, "malformed", int64(st.summary.Skipped))
	metrics.RecordDocuments(r.opts.Job, "duplicate", int64(st.summary.Duplicates))

	st.log.WithFields(logrus.Fields{
		"matches":    st.summary.Matches,
		"innings":    st.summary.Innings,
		"players":    st.summary.Players,
		"skipped":    st.summary.Skipped,
		"duplicates": st.summary.Duplicates,
	}).Info("documents normalized")
	return nil
}

// logDuplicates reports every copy of a match that lost to another one.
// Byte-identical copies are routine and logged at debug.
func (r *Runner) logDuplicates(st *run, docs []normalized, winners []int) {
	kept := make(map[any]int, len(winners))
	for _, i := range winners {
		kept[docs[i].res.Match["game_id"]] = i
	}
	for i, d := range docs {
		w, ok := kept[d.res.Match["game_id"]]
		if !ok || w == i {
			continue
		}
		log := st.log.WithFields(logrus.Fields{
			"game_id": d.res.Match["game_id"],
			"source":  d.source,
			"kept":    docs[w].source,
			"policy":  r.opts.DedupePolicy,
		})
		if d.digest == docs[w].digest {
			log.Debug("duplicate match skipped")
		} else {
			log.Warn("duplicate match with different content skipped")
		}
	}
}

func (r *Runner) buildDDL(_ context.Context, st *run) error {
	if r.opts.DumpSQL != nil {
		if _, err := fmt.Fprintf(r.opts.DumpSQL, "-- cricketdb run %s\n\n", st.id); err != nil {
			return fmt.Errorf("dump sql: %w", err)
		}
	}

	for _, t := range st.tables {
		q, err := ddl.BuildCreateTableSQL(t.def)
		if err != nil {
			return tableErr(t.def.FQN, err)
		}
		t.create = q
		if err := dump(r.opts.DumpSQL, q); err != nil {
			return tableErr(t.def.FQN, err)
		}
	}
	return nil
}

func (r *Runner) buildDML(_ context.Context, st *run) error {
	for _, t := range st.tables {
		cols := t.def.ColumnNames()

		del, err := ddl.BuildDeleteSQL(t.def.FQN)
		if err != nil {
			return tableErr(t.def.FQN, err)
		}
		t.stmts = []storage.Statement{{SQL: del}}
		if err := dump(r.opts.DumpSQL, del+";"); err != nil {
			return tableErr(t.def.FQN, err)
		}

		size := r.opts.BatchSize
		if r.opts.Mode == config.ModeBind {
			size = r.repo.Dialect().RowsPerStatement(size, len(cols))
			if size < r.opts.BatchSize {
				st.log.WithFields(logrus.Fields{"table": t.def.FQN, "batch_size": size}).
					Debug("batch size capped at the bind parameter limit")
			}
		}

		t.inserts = 0
		for _, chunk := range ddl.Chunk(t.rows, size) {
			stmt, err := r.buildInsert(t.def.FQN, cols, chunk)
			if err != nil {
				return tableErr(t.def.FQN, err)
			}
			t.stmts = append(t.stmts, stmt)
			t.inserts++

			if r.opts.DumpSQL == nil {
				continue
			}
			lit := stmt.SQL
			if len(stmt.Args) > 0 {
				if lit, err = literalInsert(t.def.FQN, cols, chunk); err != nil {
					return tableErr(t.def.FQN, err)
				}
			}
			if err := dump(r.opts.DumpSQL, lit); err != nil {
				return tableErr(t.def.FQN, err)
			}
		}

		st.log.WithFields(logrus.Fields{
			"table":      t.def.FQN,
			"rows":       len(t.rows),
			"statements": t.inserts,
		}).Debug("insert statements built")
	}
	return nil
}

// buildInsert renders one chunk in the configured mode.
func (r *Runner) buildInsert(table string, cols []string, rows []ddl.Row) (storage.Statement, error) {
	switch r.opts.Mode {
	case config.ModeBind:
		q, err := ddl.BuildInsertPlaceholders(r.repo.Dialect(), table, cols, len(rows))
		if err != nil {
			return storage.Statement{}, err
		}
		args, err := ddl.BindArgs(rows, cols)
		if err != nil {
			return storage.Statement{}, err
		}
		return storage.Statement{SQL: q, Args: args, Rows: int64(len(rows))}, nil
	case config.ModeLiteral:
		q, err := literalInsert(table, cols, rows)
		if err != nil {
			return storage.Statement{}, err
		}
		return storage.Statement{SQL: q, Rows: int64(len(rows))}, nil
	default:
		return storage.Statement{}, fmt.Errorf("unknown mode %q", r.opts.Mode)
	}
}

func literalInsert(table string, cols []string, rows []ddl.Row) (string, error) {
	text, err := ddl.BuildValueText(rows, cols)
	if err != nil {
		return "", err
	}
	return ddl.BuildInsertSQL(table, cols, text)
}

// dump writes one statement to w; a nil w is a no-op.
func dump(w io.Writer, stmt string) error {
	if w == nil {
		return nil
	}
	if _, err := io.WriteString(w, stmt+"\n\n"); err != nil {
		return fmt.Errorf("dump sql: %w", err)
	}
	return nil
}

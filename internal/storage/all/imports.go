// Package all enables every built-in storage backend. Import it for side
// effects only:
//
//	import _ "github.com/MemphisMeng/cricket-report-sub000/internal/storage/all"
//
// Kinds made available: "sqlite" (modernc.org/sqlite, default), "sqlite3"
// (mattn/go-sqlite3, cgo) and "postgres" (pgx v5). A binary that needs only
// a subset can blank-import the individual backend packages instead.
package all

import (
	_ "github.com/MemphisMeng/cricket-report-sub000/internal/storage/postgres"
	_ "github.com/MemphisMeng/cricket-report-sub000/internal/storage/sqlite"
	_ "github.com/MemphisMeng/cricket-report-sub000/internal/storage/sqlite3"
)

// Command cricketdb downloads the Cricsheet match archives and loads them
// into match_results, innings and player_universe tables.
//
//	cricketdb --db cricket.db
//	cricketdb --db postgres://etl@localhost/cricket --storage postgres --mode literal
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

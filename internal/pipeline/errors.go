package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of a run. Stages execute strictly in declaration
// order; a failure aborts the run at that stage.
type Stage string

const (
	StageDownload     Stage = "DOWNLOAD"
	StageNormalize    Stage = "NORMALIZE"
	StageBuildDDL     Stage = "BUILD_DDL"
	StageCreateTables Stage = "CREATE_TABLES"
	StageBuildDML     Stage = "BUILD_DML"
	StageInsert       Stage = "INSERT"
	StageDone         Stage = "DONE"
)

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{
		StageDownload, StageNormalize, StageBuildDDL, StageCreateTables,
		StageBuildDML, StageInsert, StageDone,
	}
}

// ErrDownloadTimeout marks a DOWNLOAD failure caused by the download deadline
// rather than by the upstream server.
var ErrDownloadTimeout = errors.New("download timed out")

// StageError is the single failure of an aborted run. Table is set for the
// per-table stages.
type StageError struct {
	Stage Stage
	Table string
	Err   error
}

func (e *StageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("pipeline: %s failed on table %s: %v", e.Stage, e.Table, e.Err)
	}
	return fmt.Sprintf("pipeline: %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// tableErr attaches a table name to err for the enclosing stage.
func tableErr(table string, err error) error {
	return &StageError{Table: table, Err: err}
}

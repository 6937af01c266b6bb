package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/csvimp/internal/atlas"
)

// DefaultProgressInterval is how many records pass between progress callbacks.
const DefaultProgressInterval = 1000

// Progress is passed to Options.OnProgress during a run.
type Progress struct {
	Current   int // records reached so far
	Total     int
	Processed int
	Ignored   int
	Errors    int
}

// Options configures an Engine.
type Options struct {
	// UseTransaction runs the whole import in one transaction with a
	// savepoint per record. Without it each statement commits on its own
	// and nothing can be rolled back.
	UseTransaction bool

	ProgressInterval int
	OnProgress       func(Progress)

	// Blobs loads files referenced by SetColumnFromDataFile fields.
	// Defaults to FileLoader.
	Blobs BlobLoader

	Logger *slog.Logger
}

// Engine executes maps against a data source, one record at a time.
// An Engine may be reused, but runs on the same Executor must not overlap.
type Engine struct {
	exec Executor
	opts Options
}

func NewEngine(exec Executor, opts Options) *Engine {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.Blobs == nil {
		opts.Blobs = FileLoader{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{exec: exec, opts: opts}
}

// Run imports every record of src using m.
//
// The returned error is non-nil only for run-level failures: configuration
// problems, a failed pre SQL statement (unless the map continues on error),
// a failed post SQL statement, or a failed transaction or savepoint call.
// Record failures are counted in the Report. Cancelling ctx stops the run at
// the next record boundary and rolls it back, even when the last record was
// already written; that is not an error.
func (e *Engine) Run(ctx context.Context, m *atlas.Map, src DataSource) (*Report, error) {
	rep := &Report{Outcome: OutcomeAborted}
	if err := checkRun(m, src); err != nil {
		return rep, err
	}

	rep.Map = m.Name
	rep.Table = m.Table
	rep.Action = m.Action.String()
	rep.Total = src.Rows()

	runID := RunIDFromContext(ctx)
	if runID == "" {
		runID = NewRunID()
	}
	log := e.opts.Logger.With(
		"run_id", runID,
		"map", m.Name,
		"table", m.Table,
		"action", rep.Action,
	)
	start := time.Now()
	log.Info("import started", "records", rep.Total, "transaction", e.opts.UseTransaction)

	tx := txControl{exec: e.exec, enabled: e.opts.UseTransaction}
	if err := tx.begin(ctx); err != nil {
		log.Error("begin transaction failed", "error", err)
		return rep, fmt.Errorf("begin transaction: %w", err)
	}

	if err := e.runPreSQL(ctx, tx, m, rep, log); err != nil {
		e.rollback(ctx, tx, log)
		return rep, err
	}

	for row := 0; row < rep.Total; row++ {
		if ctx.Err() != nil {
			rep.Canceled = true
			break
		}

		if err := tx.scoped(ctx, rowSavepoint, func() bool {
			return e.importRecord(ctx, m, src, row, rep, log)
		}); err != nil {
			if ctx.Err() != nil {
				rep.Canceled = true
				break
			}
			log.Error("savepoint failed, rolling back import", "record", row+1, "error", err)
			e.rollback(ctx, tx, log)
			rep.Outcome = OutcomeRolledBack
			return rep, err
		}

		if e.opts.OnProgress != nil && ((row+1)%e.opts.ProgressInterval == 0 || row+1 == rep.Total) {
			e.opts.OnProgress(Progress{
				Current:   row + 1,
				Total:     rep.Total,
				Processed: rep.Processed,
				Ignored:   rep.Ignored,
				Errors:    rep.Errors,
			})
		}
	}

	if ctx.Err() != nil {
		rep.Canceled = true
	}
	if rep.Canceled {
		e.rollback(ctx, tx, log)
		rep.Outcome = OutcomeRolledBack
		log.Info("import canceled", "reached", rep.Reached(), "duration", time.Since(start))
		return rep, nil
	}

	if strings.TrimSpace(m.PostSQL) != "" {
		if _, err := e.exec.Exec(ctx, m.PostSQL); err != nil {
			rep.PostSQLError = err.Error()
			log.Error("post sql failed, rolling back import", "error", err)
			e.rollback(ctx, tx, log)
			rep.Outcome = OutcomeRolledBack
			return rep, fmt.Errorf("%w: %v", ErrPostSQL, err)
		}
	}

	if err := tx.commit(ctx); err != nil {
		log.Error("commit failed", "error", err)
		e.rollback(ctx, tx, log)
		rep.Outcome = OutcomeRolledBack
		return rep, fmt.Errorf("%w: %v", ErrCommit, err)
	}

	rep.Outcome = OutcomeCommitted
	log.Info("import finished",
		"processed", rep.Processed,
		"ignored", rep.Ignored,
		"errors", rep.Errors,
		"duration", time.Since(start),
	)
	return rep, nil
}

func checkRun(m *atlas.Map, src DataSource) error {
	switch {
	case m == nil:
		return ErrNoMap
	case len(m.Fields) == 0:
		return fmt.Errorf("%w: %s", ErrNoFields, m.Name)
	case !m.Action.Valid():
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, m.Action)
	case src == nil || src.Rows() < 1:
		return ErrNoData
	}
	return nil
}

// runPreSQL executes the map's pre statement inside the presql savepoint.
// A failure is returned only when the map does not continue on error.
func (e *Engine) runPreSQL(ctx context.Context, tx txControl, m *atlas.Map, rep *Report, log *slog.Logger) error {
	if strings.TrimSpace(m.PreSQL) == "" {
		return nil
	}

	var execErr error
	if err := tx.scoped(ctx, preSQLSavepoint, func() bool {
		_, execErr = e.exec.Exec(ctx, m.PreSQL)
		return execErr == nil
	}); err != nil {
		return err
	}
	if execErr == nil {
		return nil
	}

	rep.PreSQLError = execErr.Error()
	if m.PreSQLContinueOnError {
		log.Warn("pre sql failed, continuing", "error", execErr)
		return nil
	}
	log.Error("pre sql failed, import aborted", "error", execErr)
	return fmt.Errorf("%w: %v", ErrPreSQL, execErr)
}

// importRecord resolves, builds and executes one record and records the
// result. It reports whether the record's savepoint should be kept.
func (e *Engine) importRecord(ctx context.Context, m *atlas.Map, src DataSource, row int, rep *Report, log *slog.Logger) bool {
	record := row + 1

	rec := resolveRecord(m, src, row, e.opts.Blobs, func(f atlas.Field, err error) {
		log.Warn("could not load file, using null", "record", record, "field", f.Name, "error", err)
	})

	stmt, err := buildStatement(e.exec.Dialect(), m, rec)
	if err != nil {
		var ignored ignoredError
		if errors.As(err, &ignored) {
			rep.addIgnored(record, ignored.Error())
			return true
		}
		rep.addError(record, err.Error())
		log.Debug("record failed", "record", record, "error", err)
		return false
	}

	if _, err := e.exec.Exec(ctx, stmt.SQL, stmt.Args()...); err != nil {
		rep.addError(record, err.Error())
		log.Debug("record failed", "record", record, "error", err, "sql", stmt.SQL, "params", stmt.Named())
		return false
	}

	rep.Processed++
	return true
}

func (e *Engine) rollback(ctx context.Context, tx txControl, log *slog.Logger) {
	if err := tx.rollback(ctx); err != nil {
		log.Error("rollback failed", "error", err)
	}
}

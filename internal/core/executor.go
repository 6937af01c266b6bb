package core

import (
	"context"
	"fmt"
)

// Executor runs statements against one database connection. Begin, Commit
// and Rollback bracket a whole run; the savepoint methods are only called
// between Begin and Commit/Rollback.
type Executor interface {
	Dialect() Dialect
	// Exec runs sql with positional args and returns the rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Savepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error
}

// Savepoint names.
const (
	preSQLSavepoint = "presql"
	rowSavepoint    = "csvinsert"
)

// txControl wraps an Executor's transaction calls. With enabled false every
// call is a no-op, so each statement commits on its own.
type txControl struct {
	exec    Executor
	enabled bool
}

func (t txControl) begin(ctx context.Context) error {
	if !t.enabled {
		return nil
	}
	return t.exec.Begin(ctx)
}

func (t txControl) commit(ctx context.Context) error {
	if !t.enabled {
		return nil
	}
	return t.exec.Commit(ctx)
}

// rollback ignores ctx cancellation so a canceled run can still undo its work.
func (t txControl) rollback(ctx context.Context) error {
	if !t.enabled {
		return nil
	}
	return t.exec.Rollback(context.WithoutCancel(ctx))
}

// scoped runs fn inside the named savepoint. When fn returns true the
// savepoint is released, otherwise it is rolled back and then released.
// The returned error only reports savepoint failures.
func (t txControl) scoped(ctx context.Context, name string, fn func() bool) (err error) {
	if !t.enabled {
		fn()
		return nil
	}

	if err := t.exec.Savepoint(ctx, name); err != nil {
		return fmt.Errorf("create savepoint %s: %w", name, err)
	}

	keep := false
	defer func() {
		cleanup := context.WithoutCancel(ctx)
		if !keep {
			if rbErr := t.exec.RollbackToSavepoint(cleanup, name); rbErr != nil && err == nil {
				err = fmt.Errorf("rollback to savepoint %s: %w", name, rbErr)
			}
		}
		if relErr := t.exec.ReleaseSavepoint(cleanup, name); relErr != nil && err == nil {
			err = fmt.Errorf("release savepoint %s: %w", name, relErr)
		}
	}()

	keep = fn()
	return nil
}

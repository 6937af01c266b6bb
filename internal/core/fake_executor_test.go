package core

import (
	"context"
	"fmt"
	"strings"
)

// recordingExecutor is an in-memory Executor that logs every call.
type recordingExecutor struct {
	dialect Dialect
	calls   []string
	execs   []Statement

	// failExec, when set, decides whether an Exec call fails.
	failExec   func(sql string, args []any) error
	failBegin  error
	failCommit error
	// onExec runs after each successful Exec.
	onExec func(n int)
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{dialect: Postgres}
}

func (r *recordingExecutor) Dialect() Dialect { return r.dialect }

func (r *recordingExecutor) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	r.calls = append(r.calls, "exec")
	if r.failExec != nil {
		if err := r.failExec(sql, args); err != nil {
			return 0, err
		}
	}

	params := make([]Param, len(args))
	for i, a := range args {
		params[i] = Param{Value: a}
	}
	r.execs = append(r.execs, Statement{SQL: sql, Params: params})
	if r.onExec != nil {
		r.onExec(len(r.execs))
	}
	return 1, nil
}

func (r *recordingExecutor) Begin(context.Context) error {
	r.calls = append(r.calls, "begin")
	return r.failBegin
}

func (r *recordingExecutor) Commit(context.Context) error {
	r.calls = append(r.calls, "commit")
	return r.failCommit
}

func (r *recordingExecutor) Rollback(context.Context) error {
	r.calls = append(r.calls, "rollback")
	return nil
}

func (r *recordingExecutor) Savepoint(_ context.Context, name string) error {
	r.calls = append(r.calls, "savepoint "+name)
	return nil
}

func (r *recordingExecutor) RollbackToSavepoint(_ context.Context, name string) error {
	r.calls = append(r.calls, "rollback to "+name)
	return nil
}

func (r *recordingExecutor) ReleaseSavepoint(_ context.Context, name string) error {
	r.calls = append(r.calls, "release "+name)
	return nil
}

func (r *recordingExecutor) sqls() []string {
	out := make([]string, len(r.execs))
	for i, s := range r.execs {
		out[i] = s.SQL
	}
	return out
}

// failOn fails any statement containing substr.
func failOn(substr, msg string) func(string, []any) error {
	return func(sql string, _ []any) error {
		if strings.Contains(sql, substr) {
			return fmt.Errorf("%s", msg)
		}
		return nil
	}
}

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/csvimp/internal/core"
)

var errNoTransaction = errors.New("no transaction in progress")

// pgxBeginner is the part of *pgxpool.Pool the executor uses.
type pgxBeginner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgExecutor runs statements through pgx. Outside a transaction every
// statement runs on whichever pool connection is free.
type PgExecutor struct {
	pool pgxBeginner
	tx   pgx.Tx
}

func NewPgExecutor(pool pgxBeginner) *PgExecutor {
	return &PgExecutor{pool: pool}
}

func (e *PgExecutor) Dialect() core.Dialect {
	return core.Postgres
}

func (e *PgExecutor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if e.tx != nil {
		tag, err = e.tx.Exec(ctx, sql, args...)
	} else {
		tag, err = e.pool.Exec(ctx, sql, args...)
	}
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (e *PgExecutor) Begin(ctx context.Context) error {
	if e.tx != nil {
		return errors.New("transaction already in progress")
	}
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return err
	}
	e.tx = tx
	return nil
}

func (e *PgExecutor) Commit(ctx context.Context) error {
	if e.tx == nil {
		return errNoTransaction
	}
	err := e.tx.Commit(ctx)
	e.tx = nil
	return err
}

func (e *PgExecutor) Rollback(ctx context.Context) error {
	if e.tx == nil {
		return errNoTransaction
	}
	err := e.tx.Rollback(ctx)
	e.tx = nil
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (e *PgExecutor) Savepoint(ctx context.Context, name string) error {
	return e.txExec(ctx, "SAVEPOINT "+pgx.Identifier{name}.Sanitize())
}

func (e *PgExecutor) RollbackToSavepoint(ctx context.Context, name string) error {
	return e.txExec(ctx, "ROLLBACK TO SAVEPOINT "+pgx.Identifier{name}.Sanitize())
}

func (e *PgExecutor) ReleaseSavepoint(ctx context.Context, name string) error {
	return e.txExec(ctx, "RELEASE SAVEPOINT "+pgx.Identifier{name}.Sanitize())
}

func (e *PgExecutor) txExec(ctx context.Context, sql string) error {
	if e.tx == nil {
		return errNoTransaction
	}
	_, err := e.tx.Exec(ctx, sql)
	return err
}

package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JonMunkholm/csvimp/internal/core"
)

// SQLExecutor runs statements through database/sql. The savepoint syntax
// is shared by PostgreSQL, MySQL and SQLite.
type SQLExecutor struct {
	db      *sql.DB
	dialect core.Dialect
	tx      *sql.Tx
}

func NewSQLExecutor(db *sql.DB, dialect core.Dialect) *SQLExecutor {
	return &SQLExecutor{db: db, dialect: dialect}
}

func (e *SQLExecutor) Dialect() core.Dialect {
	return e.dialect
}

func (e *SQLExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if e.tx != nil {
		res, err = e.tx.ExecContext(ctx, query, args...)
	} else {
		res, err = e.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Not every driver reports it; the statement itself succeeded.
		return 0, nil
	}
	return n, nil
}

func (e *SQLExecutor) Begin(ctx context.Context) error {
	if e.tx != nil {
		return errors.New("transaction already in progress")
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	e.tx = tx
	return nil
}

func (e *SQLExecutor) Commit(context.Context) error {
	if e.tx == nil {
		return errNoTransaction
	}
	err := e.tx.Commit()
	e.tx = nil
	return err
}

func (e *SQLExecutor) Rollback(context.Context) error {
	if e.tx == nil {
		return errNoTransaction
	}
	err := e.tx.Rollback()
	e.tx = nil
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (e *SQLExecutor) Savepoint(ctx context.Context, name string) error {
	return e.txExec(ctx, "SAVEPOINT "+e.dialect.QuoteIdent(name))
}

func (e *SQLExecutor) RollbackToSavepoint(ctx context.Context, name string) error {
	return e.txExec(ctx, "ROLLBACK TO SAVEPOINT "+e.dialect.QuoteIdent(name))
}

func (e *SQLExecutor) ReleaseSavepoint(ctx context.Context, name string) error {
	return e.txExec(ctx, "RELEASE SAVEPOINT "+e.dialect.QuoteIdent(name))
}

func (e *SQLExecutor) txExec(ctx context.Context, query string) error {
	if e.tx == nil {
		return errNoTransaction
	}
	_, err := e.tx.ExecContext(ctx, query)
	return err
}

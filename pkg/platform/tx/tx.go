// Package tx carries a SQL transaction through context so stores under one
// unit of work share a single transaction without plumbing handles through
// every call site. A repository resolves its querier per call: the transaction
// from context when present, its own pool otherwise.
package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// Querier is the subset of sql.DB and sql.Tx stores execute through.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From resolves the querier for the current call: the context transaction
// when one is present, the given pool otherwise.
func From(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return db
}

// Run executes fn inside one transaction. The transaction is injected into
// the context handed to fn; any error (or panic) rolls the transaction back,
// success commits it. Multi-step write paths (bulk creation, create with
// cascading configuration rows) go through here so partial writes never land.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) (err error) {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txn.Rollback()
			panic(p)
		}
		if err != nil {
			_ = txn.Rollback()
			return
		}
		err = txn.Commit()
	}()

	err = fn(WithTx(ctx, txn))
	return err
}

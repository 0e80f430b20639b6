package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"canvass/pkg/platform/tx"
)

// TxRunner runs a function inside one database transaction, placing the
// *sql.Tx in the context so stores that honor it share the commit.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner constructs a TxRunner over the shared connection pool.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx begins a transaction, runs fn with it in the context, and commits
// unless fn returns an error, in which case everything rolls back.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx.WithTx(ctx, dbtx)); err != nil {
		_ = dbtx.Rollback()
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

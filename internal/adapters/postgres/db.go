package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerDB is the connection pool behind the payment ledger
type LedgerDB struct {
	pool *pgxpool.Pool
}

func NewLedgerDB(pool *pgxpool.Pool) *LedgerDB {
	return &LedgerDB{pool: pool}
}

// Pool exposes the pool for single-statement reads and writes
func (l *LedgerDB) Pool() *pgxpool.Pool {
	return l.pool
}

// InTx runs fn inside one transaction. fn's error rolls the transaction
// back and is returned joined with any rollback failure.
func (l *LedgerDB) InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback ledger tx: %w", rbErr))
		}
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

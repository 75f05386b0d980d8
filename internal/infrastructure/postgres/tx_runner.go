package postgres

import (
	"context"
	"fmt"

	"github.com/ajg707/laurx-portal/internal/application/groups"
	"github.com/ajg707/laurx-portal/internal/domain/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ groups.TxRunner = (*TxRunner)(nil)

// TxRunner runs callbacks inside a PostgreSQL transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the runner on top of the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunGroups begins a transaction, calls fn with a group repository bound to it and
// commits, or rolls back if fn fails.
func (r *TxRunner) RunGroups(ctx context.Context, fn func(repo repository.CustomerGroupRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCustomerGroupRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

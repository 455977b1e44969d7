package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

var (
	_ inventory.AdjustmentTxRunner = (*TxRunner)(nil)
	_ inventory.TransferTxRunner   = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con límite de tiempo.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner construye el runner con el pool. timeout <= 0 usa 10s.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TxRunner{pool: pool, timeout: timeout}
}

// RunAdjustment inicia una transacción con los repos del motor de ajustes y hace Commit o Rollback.
func (r *TxRunner) RunAdjustment(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	adjustmentRepo repository.AdjustmentRepository,
) error) error {
	return r.run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(NewStockRepository(tx), NewProductRepository(tx), NewAdjustmentRepository(tx))
	})
}

// RunTransfer inicia una transacción con los repos del motor de traslados.
func (r *TxRunner) RunTransfer(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	transferRepo repository.TransferRepository,
) error) error {
	return r.run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(NewStockRepository(tx), NewProductRepository(tx), NewTransferRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return r.mapError(ctx, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	// statement_timeout local a la transacción: acota las consultas de los repos.
	if _, err := tx.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)", strconv.FormatInt(r.timeout.Milliseconds(), 10)); err != nil {
		return r.mapError(ctx, fmt.Errorf("statement timeout: %w", err))
	}

	if err := fn(ctx, tx); err != nil {
		return r.mapError(ctx, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return r.mapError(ctx, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// mapError traduce vencimiento de la transacción e interbloqueos a domain.ErrUnavailable;
// el resto de errores pasa sin cambios.
func (r *TxRunner) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: la transacción superó %s", domain.ErrUnavailable, r.timeout)
	case isRetryable(err):
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}

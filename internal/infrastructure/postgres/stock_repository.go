package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock de un producto en una sucursal; (nil, nil) si no hay registro.
func (r *StockRepo) Get(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	query := `
		SELECT product_id, branch_id, quantity, min_level, max_level, last_updated
		FROM branch_stock WHERE product_id = $1 AND branch_id = $2`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate crea el registro en cero si falta y lo bloquea hasta el fin de la transacción.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	insert := `
		INSERT INTO branch_stock (product_id, branch_id, quantity, min_level, max_level, last_updated)
		VALUES ($1, $2, 0, $3, $4, now())
		ON CONFLICT (product_id, branch_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, productID, branchID, entity.DefaultMinLevel, entity.DefaultMaxLevel); err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	query := `
		SELECT product_id, branch_id, quantity, min_level, max_level, last_updated
		FROM branch_stock WHERE product_id = $1 AND branch_id = $2
		FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, branchID))
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

// ApplyDelta suma delta en una sola sentencia. Delta positivo inserta o incrementa; delta
// negativo solo actualiza un registro existente y el CHECK quantity >= 0 rechaza el faltante.
func (r *StockRepo) ApplyDelta(ctx context.Context, productID, branchID string, delta int) (*entity.BranchStock, error) {
	var row pgx.Row
	if delta > 0 {
		query := `
			INSERT INTO branch_stock (product_id, branch_id, quantity, min_level, max_level, last_updated)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (product_id, branch_id)
			DO UPDATE SET quantity = branch_stock.quantity + EXCLUDED.quantity, last_updated = now()
			RETURNING product_id, branch_id, quantity, min_level, max_level, last_updated`
		row = r.q.QueryRow(ctx, query, productID, branchID, delta, entity.DefaultMinLevel, entity.DefaultMaxLevel)
	} else {
		query := `
			UPDATE branch_stock SET quantity = quantity + $3, last_updated = now()
			WHERE product_id = $1 AND branch_id = $2
			RETURNING product_id, branch_id, quantity, min_level, max_level, last_updated`
		row = r.q.QueryRow(ctx, query, productID, branchID, delta)
	}
	s, err := scanStock(row)
	if err != nil {
		switch {
		case isCheckViolation(err):
			return nil, fmt.Errorf("%w: delta %d", domain.ErrInsufficientStock, delta)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("%w: sin registro, delta %d", domain.ErrInsufficientStock, delta)
		}
		return nil, fmt.Errorf("apply stock delta: %w", err)
	}
	return s, nil
}

func scanStock(row scanner) (*entity.BranchStock, error) {
	var s entity.BranchStock
	if err := row.Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.MinLevel, &s.MaxLevel, &s.LastUpdated); err != nil {
		return nil, err
	}
	return &s, nil
}

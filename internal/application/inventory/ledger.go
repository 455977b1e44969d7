package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

// StockLedger es la única puerta de lectura y modificación de cantidades por producto+sucursal.
// Atado a un StockRepository de transacción, sus deltas confirman o revierten con ella.
type StockLedger struct {
	repo repository.StockRepository
}

// NewStockLedger construye el libro sobre el repositorio dado (pool o tx).
func NewStockLedger(repo repository.StockRepository) *StockLedger {
	return &StockLedger{repo: repo}
}

// Read devuelve el registro de stock o nil si el producto nunca tuvo stock en la sucursal.
func (l *StockLedger) Read(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	return l.repo.Get(ctx, productID, branchID)
}

// ReadQuantity devuelve la cantidad actual (0 si no existe registro).
func (l *StockLedger) ReadQuantity(ctx context.Context, productID, branchID string) (int, error) {
	s, err := l.repo.Get(ctx, productID, branchID)
	if err != nil {
		return 0, err
	}
	if s == nil {
		return 0, nil
	}
	return s.Quantity, nil
}

// LockQuantity bloquea el registro del par (creándolo en cero) y devuelve su cantidad.
// La lectura queda estable hasta el fin de la transacción.
func (l *StockLedger) LockQuantity(ctx context.Context, productID, branchID string) (int, error) {
	s, err := l.repo.GetForUpdate(ctx, productID, branchID)
	if err != nil {
		return 0, err
	}
	return s.Quantity, nil
}

// ApplyDelta suma delta (positivo o negativo) a la cantidad del par. Delta cero no toca el registro.
func (l *StockLedger) ApplyDelta(ctx context.Context, productID, branchID string, delta int) error {
	if delta == 0 {
		return nil
	}
	if _, err := l.repo.ApplyDelta(ctx, productID, branchID, delta); err != nil {
		return fmt.Errorf("producto %s en sucursal %s: %w", productID, branchID, err)
	}
	return nil
}

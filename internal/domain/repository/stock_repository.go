package repository

import (
	"context"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

// StockRepository es el almacenamiento del libro de stock por producto+sucursal.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve (nil, nil) si no existe registro para el par.
	Get(ctx context.Context, productID, branchID string) (*entity.BranchStock, error)
	// GetForUpdate crea el registro en cero si falta y lo bloquea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, branchID string) (*entity.BranchStock, error)
	// ApplyDelta suma delta de forma atómica (sin leer-y-escribir el registro completo).
	// Si no existe registro lo crea con los niveles por defecto y quantity=delta.
	// Devuelve domain.ErrInsufficientStock si el resultado quedaría negativo.
	ApplyDelta(ctx context.Context, productID, branchID string, delta int) (*entity.BranchStock, error)
}

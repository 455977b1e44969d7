package repository

import (
	"context"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

// BranchRepository puerto de lectura de sucursales (dato maestro externo).
// GetByID devuelve (nil, nil) si la sucursal no existe.
type BranchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
}

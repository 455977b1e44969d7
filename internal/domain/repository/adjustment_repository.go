package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

// NumberFinder busca el mayor número de documento emitido con un prefijo ("" si no hay).
type NumberFinder interface {
	LastNumber(ctx context.Context, prefix string) (string, error)
}

// AdjustmentFilter filtros de consulta de ajustes.
type AdjustmentFilter struct {
	CompanyID string
	BranchID  string
	ProductID string
	Type      string
	From      *time.Time
	To        *time.Time
	Reason    string // subcadena, sin distinguir mayúsculas
	CreatedBy string
	Search    string // número, motivo, notas o productos cuyo nombre/SKU coincida
	Limit     int
	Offset    int
	SortBy    string
	SortDesc  bool
}

// AdjustmentRepository puerto de persistencia de ajustes.
type AdjustmentRepository interface {
	NumberFinder
	// Create devuelve domain.ErrDuplicate si el número ya existe.
	Create(ctx context.Context, adj *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	List(ctx context.Context, f AdjustmentFilter) ([]*entity.Adjustment, int, error)
}

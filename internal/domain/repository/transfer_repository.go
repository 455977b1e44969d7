package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

// TransferFilter filtros de consulta de traslados.
type TransferFilter struct {
	CompanyID    string
	FromBranchID string
	ToBranchID   string
	// ScopeBranchID restringe a traslados donde la sucursal es origen o destino.
	ScopeBranchID string
	Status        string
	From          *time.Time
	To            *time.Time
	Search        string
	Limit         int
	Offset        int
	SortBy        string
	SortDesc      bool
}

// TransferRepository puerto de persistencia de traslados.
type TransferRepository interface {
	NumberFinder
	// Create devuelve domain.ErrDuplicate si el número ya existe.
	Create(ctx context.Context, t *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// GetByIDForUpdate bloquea el traslado hasta el fin de la transacción (SELECT FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	Update(ctx context.Context, t *entity.Transfer) error
	List(ctx context.Context, f TransferFilter) ([]*entity.Transfer, int, error)
}

package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-movimientos/internal/application/access"
	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

// StockUseCase consulta el libro de stock fuera de transacción.
type StockUseCase struct {
	ledger     *StockLedger
	branchRepo repository.BranchRepository
	guard      access.Guard
}

// NewStockUseCase construye el caso de uso de consulta de stock.
func NewStockUseCase(stockRepo repository.StockRepository, branchRepo repository.BranchRepository, guard access.Guard) *StockUseCase {
	return &StockUseCase{ledger: NewStockLedger(stockRepo), branchRepo: branchRepo, guard: guard}
}

// Get devuelve la cantidad del producto en la sucursal. Un par sin registro responde cantidad 0
// con los niveles por defecto.
func (uc *StockUseCase) Get(ctx context.Context, actor entity.Actor, branchID, productID string) (*dto.BranchStockResponse, error) {
	var problems []domain.FieldProblem
	checkUUID("branchId", branchID, &problems)
	checkUUID("productId", productID, &problems)
	if err := domain.NewValidationError(problems); err != nil {
		return nil, err
	}
	branch, err := uc.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil || branch.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, branchID)
	}
	if !uc.guard.HasBranchReadAccess(ctx, branch.ID, actor) {
		return nil, domain.ErrForbidden
	}

	s, err := uc.ledger.Read(ctx, productID, branch.ID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &entity.BranchStock{ProductID: productID, BranchID: branch.ID, MinLevel: entity.DefaultMinLevel, MaxLevel: entity.DefaultMaxLevel}
	}
	out := &dto.BranchStockResponse{
		ProductID: s.ProductID,
		BranchID:  s.BranchID,
		Quantity:  s.Quantity,
		MinLevel:  s.MinLevel,
		MaxLevel:  s.MaxLevel,
		LowStock:  s.IsLowStock(),
	}
	if !s.LastUpdated.IsZero() {
		updated := s.LastUpdated
		out.LastUpdated = &updated
	}
	return out, nil
}

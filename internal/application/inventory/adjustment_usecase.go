package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-movimientos/internal/application/access"
	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-movimientos/internal/domain/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

// AdjustmentUseCase crea y consulta ajustes de stock de una sucursal.
// El efecto en stock se aplica al crear (el estado queda como auditoría).
type AdjustmentUseCase struct {
	txRunner       AdjustmentTxRunner
	branchRepo     repository.BranchRepository
	adjustmentRepo repository.AdjustmentRepository
	guard          access.Guard
	numbers        *NumberGenerator
	metrics        MetricsRecorder
	log            *logger.Logger
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(
	txRunner AdjustmentTxRunner,
	branchRepo repository.BranchRepository,
	adjustmentRepo repository.AdjustmentRepository,
	guard access.Guard,
	numbers *NumberGenerator,
	metrics MetricsRecorder,
	log *logger.Logger,
) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		txRunner:       txRunner,
		branchRepo:     branchRepo,
		adjustmentRepo: adjustmentRepo,
		guard:          guard,
		numbers:        numbers,
		metrics:        metricsOrNoop(metrics),
		log:            log,
	}
}

// Create valida, verifica sucursal y permisos fuera de la transacción y luego, en una sola
// transacción, calcula las diferencias, aplica los deltas, reserva el número y guarda el ajuste.
// Si algún producto no existe se revierte todo: ni stock ni registro quedan modificados.
func (uc *AdjustmentUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateAdjustmentRequest) (*dto.AdjustmentResponse, error) {
	if err := validateAdjustmentRequest(in); err != nil {
		return nil, err
	}
	branch, err := uc.branchRepo.GetByID(ctx, in.Branch)
	if err != nil {
		return nil, err
	}
	if branch == nil || branch.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, in.Branch)
	}
	if !uc.guard.HasBranchWriteAccess(ctx, branch.ID, actor) {
		return nil, domain.ErrForbidden
	}

	var created *entity.Adjustment
	err = uc.numbers.WithRetry(ctx, "adjustment", func() error {
		return uc.txRunner.RunAdjustment(ctx, func(
			stockRepo repository.StockRepository,
			productRepo repository.ProductRepository,
			adjustmentRepo repository.AdjustmentRepository,
		) error {
			now := uc.numbers.Now()
			items, err := applyAdjustmentItems(ctx, NewStockLedger(stockRepo), productRepo, actor.CompanyID, branch.ID, in)
			if err != nil {
				return err
			}
			number, err := uc.numbers.Reserve(ctx, adjustmentRepo, domaininv.AdjustmentPrefix(branch.Code, now))
			if err != nil {
				return err
			}
			adj := &entity.Adjustment{
				ID:         uuid.New().String(),
				Number:     number,
				CompanyID:  actor.CompanyID,
				BranchID:   branch.ID,
				Items:      items,
				Type:       in.Type,
				Reason:     in.Reason,
				Notes:      strings.TrimSpace(in.Notes),
				Status:     entity.AdjustmentStatusApproved,
				CreatedBy:  actor.UserID,
				ApprovedBy: actor.UserID,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := adjustmentRepo.Create(ctx, adj); err != nil {
				return err
			}
			created = adj
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.AdjustmentCreated(created.Type)
	uc.log.Info().
		Str("number", created.Number).
		Str("branch_id", created.BranchID).
		Str("type", created.Type).
		Int("items", len(created.Items)).
		Str("user_id", actor.UserID).
		Msg("ajuste de inventario registrado")
	return toAdjustmentResponse(created), nil
}

// applyAdjustmentItems recorre los ítems en orden de producto (orden de bloqueo estable entre
// transacciones concurrentes) y conserva en la foto el orden de la petición.
func applyAdjustmentItems(
	ctx context.Context,
	ledger *StockLedger,
	productRepo repository.ProductRepository,
	companyID, branchID string,
	in dto.CreateAdjustmentRequest,
) ([]entity.AdjustmentItem, error) {
	order := make([]int, len(in.Items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return in.Items[order[a]].Product < in.Items[order[b]].Product })

	items := make([]entity.AdjustmentItem, len(in.Items))
	for _, idx := range order {
		req := in.Items[idx]
		product, err := productRepo.GetByID(ctx, req.Product)
		if err != nil {
			return nil, err
		}
		if product == nil || product.CompanyID != companyID {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, req.Product)
		}
		current, err := ledger.LockQuantity(ctx, product.ID, branchID)
		if err != nil {
			return nil, err
		}
		adjusted := current
		if req.AdjustedQuantity != nil {
			adjusted = *req.AdjustedQuantity
		}
		difference := adjusted - current
		if err := ledger.ApplyDelta(ctx, product.ID, branchID, difference); err != nil {
			return nil, err
		}
		reason := req.Reason
		if reason == "" {
			reason = in.Reason
		}
		items[idx] = entity.AdjustmentItem{
			ProductID:        product.ID,
			ProductName:      firstNonEmpty(product.Name, req.ProductName),
			SKU:              firstNonEmpty(product.SKU, req.SKU),
			CurrentQuantity:  current,
			AdjustedQuantity: adjusted,
			Difference:       difference,
			Unit:             firstNonEmpty(product.UnitMeasure, req.Unit),
			Reason:           reason,
		}
	}
	return items, nil
}

func validateAdjustmentRequest(in dto.CreateAdjustmentRequest) error {
	var problems []domain.FieldProblem
	checkUUID("branch", in.Branch, &problems)
	if len(in.Items) == 0 {
		problems = append(problems, domain.FieldProblem{Field: "items", Message: "debe contener al menos un ítem"})
	}
	if !entity.IsValidAdjustmentType(in.Type) {
		problems = append(problems, domain.FieldProblem{Field: "type", Message: "debe ser increase, decrease o correction"})
	}
	if !entity.IsValidAdjustmentReason(in.Reason) {
		problems = append(problems, domain.FieldProblem{Field: "reason", Message: "motivo inválido"})
	}
	seen := make(map[string]bool, len(in.Items))
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		checkUUID(field+".product", it.Product, &problems)
		if it.Product != "" && seen[it.Product] {
			problems = append(problems, domain.FieldProblem{Field: field + ".product", Message: "producto repetido en el ajuste"})
		}
		seen[it.Product] = true
		if it.AdjustedQuantity != nil && *it.AdjustedQuantity < 0 {
			problems = append(problems, domain.FieldProblem{Field: field + ".adjustedQuantity", Message: "no puede ser negativa"})
		}
		if it.Reason != "" && !entity.IsValidAdjustmentReason(it.Reason) {
			problems = append(problems, domain.FieldProblem{Field: field + ".reason", Message: "motivo inválido"})
		}
	}
	return domain.NewValidationError(problems)
}

// GetByID obtiene un ajuste visible para el actor.
func (uc *AdjustmentUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.AdjustmentResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: ajuste %s", domain.ErrNotFound, id)
	}
	adj, err := uc.adjustmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil || adj.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("%w: ajuste %s", domain.ErrNotFound, id)
	}
	if !uc.guard.HasBranchReadAccess(ctx, adj.BranchID, actor) {
		return nil, domain.ErrForbidden
	}
	return toAdjustmentResponse(adj), nil
}

// List consulta ajustes con filtros, paginación y orden (por defecto createdAt desc).
// Sin privilegio multi-sucursal solo se ven los ajustes de la sucursal del actor.
func (uc *AdjustmentUseCase) List(ctx context.Context, actor entity.Actor, q dto.AdjustmentListQuery) (*dto.AdjustmentListResponse, error) {
	q.DefaultPage()
	var problems []domain.FieldProblem
	f := repository.AdjustmentFilter{
		CompanyID: actor.CompanyID,
		ProductID: q.Product,
		Type:      q.Type,
		Reason:    strings.TrimSpace(q.Reason),
		CreatedBy: q.AdjustedBy,
		Search:    strings.TrimSpace(q.Search),
		Limit:     q.Limit,
		Offset:    q.Offset(),
		SortDesc:  q.SortOrder != "asc",
	}
	f.From = parseDateParam("startDate", q.StartDate, false, &problems)
	f.To = parseDateParam("endDate", q.EndDate, true, &problems)
	f.SortBy = checkSort(q.SortBy, adjustmentSortFields, &problems)
	checkOptionalUUID("product", q.Product, &problems)
	checkOptionalUUID("branch", q.Branch, &problems)
	if q.Type != "" && !entity.IsValidAdjustmentType(q.Type) {
		problems = append(problems, domain.FieldProblem{Field: "type", Message: "debe ser increase, decrease o correction"})
	}
	if err := domain.NewValidationError(problems); err != nil {
		return nil, err
	}

	f.BranchID = q.Branch
	if !uc.guard.HasCrossBranchAccess(actor.Role) {
		own := uc.guard.UserBranchID(actor)
		if own == "" || (q.Branch != "" && q.Branch != own) {
			return nil, domain.ErrForbidden
		}
		f.BranchID = own
	}

	list, total, err := uc.adjustmentRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.AdjustmentListResponse{
		Items: make([]dto.AdjustmentResponse, 0, len(list)),
		Page:  dto.NewPageResponse(q.PageRequest, total),
	}
	for _, a := range list {
		out.Items = append(out.Items, *toAdjustmentResponse(a))
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

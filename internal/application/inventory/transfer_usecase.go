package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-movimientos/internal/application/access"
	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-movimientos/internal/domain/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

// TransferUseCase gobierna el ciclo de vida de los traslados entre sucursales:
// pending → shipped → received | cancelled, y pending → cancelled.
type TransferUseCase struct {
	txRunner     TransferTxRunner
	branchRepo   repository.BranchRepository
	transferRepo repository.TransferRepository
	guard        access.Guard
	numbers      *NumberGenerator
	documents    TransferDocumentGenerator
	metrics      MetricsRecorder
	log          *logger.Logger
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner TransferTxRunner,
	branchRepo repository.BranchRepository,
	transferRepo repository.TransferRepository,
	guard access.Guard,
	numbers *NumberGenerator,
	documents TransferDocumentGenerator,
	metrics MetricsRecorder,
	log *logger.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner:     txRunner,
		branchRepo:   branchRepo,
		transferRepo: transferRepo,
		guard:        guard,
		numbers:      numbers,
		documents:    documents,
		metrics:      metricsOrNoop(metrics),
		log:          log,
	}
}

// Create registra un traslado en estado pending. La disponibilidad en origen se verifica solo aquí;
// el despacho vuelve a validarla al descontar (el libro de stock rechaza cantidades negativas).
func (uc *TransferUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if err := validateTransferRequest(in); err != nil {
		return nil, err
	}
	from, err := uc.loadBranch(ctx, actor, in.FromBranch)
	if err != nil {
		return nil, err
	}
	to, err := uc.loadBranch(ctx, actor, in.ToBranch)
	if err != nil {
		return nil, err
	}
	if !uc.guard.HasBranchWriteAccess(ctx, from.ID, actor) {
		return nil, domain.ErrForbidden
	}

	var created *entity.Transfer
	err = uc.numbers.WithRetry(ctx, "transfer", func() error {
		return uc.txRunner.RunTransfer(ctx, func(
			stockRepo repository.StockRepository,
			productRepo repository.ProductRepository,
			transferRepo repository.TransferRepository,
		) error {
			now := uc.numbers.Now()
			items, err := snapshotTransferItems(ctx, NewStockLedger(stockRepo), productRepo, actor.CompanyID, from.ID, in.Items)
			if err != nil {
				return err
			}
			number, err := uc.numbers.Reserve(ctx, transferRepo, domaininv.TransferPrefix(from.Code, to.Code, now))
			if err != nil {
				return err
			}
			t := &entity.Transfer{
				ID:                   uuid.New().String(),
				Number:               number,
				CompanyID:            actor.CompanyID,
				FromBranchID:         from.ID,
				ToBranchID:           to.ID,
				Items:                items,
				Status:               entity.TransferStatusPending,
				Reason:               in.Reason,
				Notes:                strings.TrimSpace(in.Notes),
				ExpectedDeliveryDate: in.ExpectedDeliveryDate,
				CreatedBy:            actor.UserID,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := transferRepo.Create(ctx, t); err != nil {
				return err
			}
			created = t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.TransferCreated(created.Reason)
	uc.log.Info().
		Str("number", created.Number).
		Str("from_branch_id", created.FromBranchID).
		Str("to_branch_id", created.ToBranchID).
		Int("units", created.TotalQuantity()).
		Str("user_id", actor.UserID).
		Msg("traslado registrado")
	return toTransferResponse(created), nil
}

// snapshotTransferItems toma la foto de nombre/SKU/unidad/costo y verifica disponibilidad en origen.
// Todas las faltas de stock se reportan juntas.
func snapshotTransferItems(
	ctx context.Context,
	ledger *StockLedger,
	productRepo repository.ProductRepository,
	companyID, fromBranchID string,
	reqs []dto.TransferItemRequest,
) ([]entity.TransferItem, error) {
	items := make([]entity.TransferItem, 0, len(reqs))
	var problems []domain.FieldProblem
	for i, req := range reqs {
		product, err := productRepo.GetByID(ctx, req.Product)
		if err != nil {
			return nil, err
		}
		if product == nil || product.CompanyID != companyID {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, req.Product)
		}
		available, err := ledger.ReadQuantity(ctx, product.ID, fromBranchID)
		if err != nil {
			return nil, err
		}
		if available < req.Quantity {
			problems = append(problems, domain.FieldProblem{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: fmt.Sprintf("stock insuficiente de %s en origen: disponible %d, solicitado %d", product.SKU, available, req.Quantity),
			})
		}
		unitCost := product.Cost
		if req.UnitCost != nil {
			unitCost = *req.UnitCost
		}
		items = append(items, entity.TransferItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Quantity:    req.Quantity,
			Unit:        product.UnitMeasure,
			UnitCost:    unitCost,
		})
	}
	if err := domain.NewValidationError(problems); err != nil {
		return nil, err
	}
	return items, nil
}

func validateTransferRequest(in dto.CreateTransferRequest) error {
	var problems []domain.FieldProblem
	checkUUID("fromBranch", in.FromBranch, &problems)
	checkUUID("toBranch", in.ToBranch, &problems)
	if in.FromBranch != "" && in.FromBranch == in.ToBranch {
		problems = append(problems, domain.FieldProblem{Field: "toBranch", Message: "la sucursal destino debe ser distinta del origen"})
	}
	if !entity.IsValidTransferReason(in.Reason) {
		problems = append(problems, domain.FieldProblem{Field: "reason", Message: "debe ser restock, demand, expiry u other"})
	}
	if len(in.Items) == 0 {
		problems = append(problems, domain.FieldProblem{Field: "items", Message: "debe contener al menos un ítem"})
	}
	seen := make(map[string]bool, len(in.Items))
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		checkUUID(field+".product", it.Product, &problems)
		if it.Product != "" && seen[it.Product] {
			problems = append(problems, domain.FieldProblem{Field: field + ".product", Message: "producto repetido en el traslado"})
		}
		seen[it.Product] = true
		if it.Quantity <= 0 {
			problems = append(problems, domain.FieldProblem{Field: field + ".quantity", Message: "debe ser mayor que cero"})
		}
		if it.UnitCost != nil && it.UnitCost.IsNegative() {
			problems = append(problems, domain.FieldProblem{Field: field + ".unitCost", Message: "no puede ser negativo"})
		}
	}
	return domain.NewValidationError(problems)
}

// UpdateStatus aplica una transición de la máquina de estados. Validación y permisos se revisan
// antes de abrir la transacción; dentro de ella el traslado se bloquea y la transición se revalida,
// de modo que estado, efecto en stock y registro confirman juntos.
func (uc *TransferUseCase) UpdateStatus(ctx context.Context, actor entity.Actor, id string, in dto.UpdateTransferStatusRequest) (*dto.TransferResponse, error) {
	received, err := validateStatusRequest(in)
	if err != nil {
		return nil, err
	}
	current, err := uc.loadTransfer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	rule, err := domaininv.CheckTransition(current.Status, in.Status)
	if err != nil {
		return nil, err
	}
	if !uc.guard.HasBranchWriteAccess(ctx, rule.BranchFor(current), actor) {
		return nil, domain.ErrForbidden
	}
	if in.Status == entity.TransferStatusReceived {
		if err := domain.NewValidationError(domaininv.ValidateReceivedItems(current, received)); err != nil {
			return nil, err
		}
	}

	var updated *entity.Transfer
	previous := current.Status
	err = uc.txRunner.RunTransfer(ctx, func(
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetByIDForUpdate(ctx, current.ID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, id)
		}
		// Otro proceso pudo cambiar el estado entre la lectura y el bloqueo.
		rule, err := domaininv.CheckTransition(t.Status, in.Status)
		if err != nil {
			return err
		}
		previous = t.Status
		now := uc.numbers.Now()
		if err := applyTransferEffect(ctx, NewStockLedger(stockRepo), t, rule.Effect, received); err != nil {
			return err
		}
		stampTransition(t, in.Status, actor.UserID, now, received)
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			t.Notes = notes
		}
		if err := transferRepo.Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.TransferTransition(previous, updated.Status)
	uc.log.Info().
		Str("number", updated.Number).
		Str("from_status", previous).
		Str("to_status", updated.Status).
		Str("user_id", actor.UserID).
		Msg("estado de traslado actualizado")
	return toTransferResponse(updated), nil
}

func validateStatusRequest(in dto.UpdateTransferStatusRequest) ([]entity.ReceivedItem, error) {
	var problems []domain.FieldProblem
	if !entity.IsValidTransferStatus(in.Status) {
		problems = append(problems, domain.FieldProblem{Field: "status", Message: "debe ser pending, shipped, received o cancelled"})
	}
	if len(in.ReceivedItems) > 0 && in.Status != entity.TransferStatusReceived {
		problems = append(problems, domain.FieldProblem{Field: "receivedItems", Message: "solo aplica al pasar a received"})
	}
	received := make([]entity.ReceivedItem, 0, len(in.ReceivedItems))
	for _, it := range in.ReceivedItems {
		received = append(received, entity.ReceivedItem{ProductID: it.Product, Quantity: it.Quantity})
	}
	return received, domain.NewValidationError(problems)
}

// applyTransferEffect aplica el efecto en stock de la transición, en orden de producto.
func applyTransferEffect(ctx context.Context, ledger *StockLedger, t *entity.Transfer, effect domaininv.StockEffect, received []entity.ReceivedItem) error {
	switch effect {
	case domaininv.EffectDebitSource:
		return applyItems(ctx, ledger, t.FromBranchID, shippedLines(t), -1)
	case domaininv.EffectCreditSource:
		return applyItems(ctx, ledger, t.FromBranchID, shippedLines(t), 1)
	case domaininv.EffectCreditDestination:
		return applyItems(ctx, ledger, t.ToBranchID, domaininv.ReceivedOrShipped(t, received), 1)
	}
	return nil
}

func shippedLines(t *entity.Transfer) []entity.ReceivedItem {
	return domaininv.ReceivedOrShipped(t, nil)
}

func applyItems(ctx context.Context, ledger *StockLedger, branchID string, lines []entity.ReceivedItem, sign int) error {
	sorted := append([]entity.ReceivedItem(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	for _, l := range sorted {
		if err := ledger.ApplyDelta(ctx, l.ProductID, branchID, sign*l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func stampTransition(t *entity.Transfer, status, userID string, now time.Time, received []entity.ReceivedItem) {
	t.Status = status
	t.UpdatedAt = now
	switch status {
	case entity.TransferStatusShipped:
		t.ShippedAt = &now
		t.ShippedBy = userID
	case entity.TransferStatusReceived:
		t.ReceivedAt = &now
		t.ReceivedBy = userID
		t.ReceivedItems = domaininv.ReceivedOrShipped(t, received)
	case entity.TransferStatusCancelled:
		t.CancelledAt = &now
		t.CancelledBy = userID
	}
}

// GetByID obtiene un traslado; requiere lectura sobre el origen o el destino.
func (uc *TransferUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.TransferResponse, error) {
	t, err := uc.loadVisibleTransfer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toTransferResponse(t), nil
}

// DispatchNote genera la remisión PDF del traslado. Devuelve también el número para el nombre del archivo.
func (uc *TransferUseCase) DispatchNote(ctx context.Context, actor entity.Actor, id string) ([]byte, string, error) {
	if uc.documents == nil {
		return nil, "", fmt.Errorf("generador de remisiones no configurado")
	}
	t, err := uc.loadVisibleTransfer(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	from, err := uc.loadBranch(ctx, actor, t.FromBranchID)
	if err != nil {
		return nil, "", err
	}
	to, err := uc.loadBranch(ctx, actor, t.ToBranchID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.documents.GenerateDispatchNote(ctx, t, from, to)
	if err != nil {
		return nil, "", err
	}
	return pdf, t.Number, nil
}

// List consulta traslados. Sin privilegio multi-sucursal solo aparecen aquellos donde la sucursal
// del actor es origen o destino.
func (uc *TransferUseCase) List(ctx context.Context, actor entity.Actor, q dto.TransferListQuery) (*dto.TransferListResponse, error) {
	q.DefaultPage()
	var problems []domain.FieldProblem
	f := repository.TransferFilter{
		CompanyID:    actor.CompanyID,
		FromBranchID: q.FromBranch,
		ToBranchID:   q.ToBranch,
		Status:       q.Status,
		Search:       strings.TrimSpace(q.Search),
		Limit:        q.Limit,
		Offset:       q.Offset(),
		SortDesc:     q.SortOrder != "asc",
	}
	f.From = parseDateParam("startDate", q.StartDate, false, &problems)
	f.To = parseDateParam("endDate", q.EndDate, true, &problems)
	f.SortBy = checkSort(q.SortBy, transferSortFields, &problems)
	checkOptionalUUID("fromBranch", q.FromBranch, &problems)
	checkOptionalUUID("toBranch", q.ToBranch, &problems)
	if q.Status != "" && !entity.IsValidTransferStatus(q.Status) {
		problems = append(problems, domain.FieldProblem{Field: "status", Message: "debe ser pending, shipped, received o cancelled"})
	}
	if err := domain.NewValidationError(problems); err != nil {
		return nil, err
	}
	if !uc.guard.HasCrossBranchAccess(actor.Role) {
		own := uc.guard.UserBranchID(actor)
		if own == "" {
			return nil, domain.ErrForbidden
		}
		f.ScopeBranchID = own
	}

	list, total, err := uc.transferRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.TransferListResponse{
		Items: make([]dto.TransferResponse, 0, len(list)),
		Page:  dto.NewPageResponse(q.PageRequest, total),
	}
	for _, t := range list {
		out.Items = append(out.Items, *toTransferResponse(t))
	}
	return out, nil
}

func (uc *TransferUseCase) loadBranch(ctx context.Context, actor entity.Actor, id string) (*entity.Branch, error) {
	b, err := uc.branchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil || b.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, id)
	}
	return b, nil
}

func (uc *TransferUseCase) loadTransfer(ctx context.Context, actor entity.Actor, id string) (*entity.Transfer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, id)
	}
	t, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, id)
	}
	return t, nil
}

func (uc *TransferUseCase) loadVisibleTransfer(ctx context.Context, actor entity.Actor, id string) (*entity.Transfer, error) {
	t, err := uc.loadTransfer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !uc.guard.HasBranchReadAccess(ctx, t.FromBranchID, actor) && !uc.guard.HasBranchReadAccess(ctx, t.ToBranchID, actor) {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

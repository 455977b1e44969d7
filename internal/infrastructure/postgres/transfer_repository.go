package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

var transferOrderColumns = map[string]string{
	"createdAt":            "created_at",
	"updatedAt":            "updated_at",
	"number":               "number",
	"status":               "status",
	"reason":               "reason",
	"expectedDeliveryDate": "expected_delivery_date",
}

const transferColumns = `id, number, company_id, from_branch_id, to_branch_id, items, status, reason, notes,
	expected_delivery_date, created_by, shipped_at, shipped_by, received_at, received_by, received_items,
	cancelled_at, cancelled_by, created_at, updated_at`

type transferItemRow struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitCost    decimal.Decimal `json:"unitCost"`
}

type receivedItemRow struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// TransferRepo persistencia de traslados en stock_transfers (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// LastNumber devuelve el mayor número emitido con el prefijo ("" si no hay).
func (r *TransferRepo) LastNumber(ctx context.Context, prefix string) (string, error) {
	return lastNumber(ctx, r.q, "stock_transfers", prefix)
}

// Create inserta el traslado. La restricción UNIQUE(number) devuelve domain.ErrDuplicate.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Number, t.CompanyID, t.FromBranchID, t.ToBranchID, transferItemRows(t.Items), t.Status, t.Reason, t.Notes,
		t.ExpectedDeliveryDate, t.CreatedBy, t.ShippedAt, t.ShippedBy, t.ReceivedAt, t.ReceivedBy, receivedItemRows(t.ReceivedItems),
		t.CancelledAt, t.CancelledBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número %s", domain.ErrDuplicate, t.Number)
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID obtiene un traslado por ID; (nil, nil) si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene el traslado y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *TransferRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepo) get(ctx context.Context, query, id string) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// Update guarda estado, notas, marcas de tiempo/actor de cada transición y lo recibido.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE stock_transfers SET
			status = $2, notes = $3,
			shipped_at = $4, shipped_by = $5,
			received_at = $6, received_by = $7, received_items = $8,
			cancelled_at = $9, cancelled_by = $10,
			updated_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Status, t.Notes,
		t.ShippedAt, t.ShippedBy,
		t.ReceivedAt, t.ReceivedBy, receivedItemRows(t.ReceivedItems),
		t.CancelledAt, t.CancelledBy,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, t.ID)
	}
	return nil
}

// List aplica filtros, búsqueda, orden y paginación; devuelve también el total sin paginar.
func (r *TransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.Transfer, int, error) {
	var b filterBuilder
	b.where("company_id = " + b.arg(f.CompanyID))
	if f.FromBranchID != "" {
		b.where("from_branch_id = " + b.arg(f.FromBranchID))
	}
	if f.ToBranchID != "" {
		b.where("to_branch_id = " + b.arg(f.ToBranchID))
	}
	if f.ScopeBranchID != "" {
		p := b.arg(f.ScopeBranchID)
		b.where("(from_branch_id = " + p + " OR to_branch_id = " + p + ")")
	}
	if f.Status != "" {
		b.where("status = " + b.arg(f.Status))
	}
	if f.From != nil {
		b.where("created_at >= " + b.arg(*f.From))
	}
	if f.To != nil {
		b.where("created_at <= " + b.arg(*f.To))
	}
	if f.Search != "" {
		b.where(searchCondition(b.arg(likePattern(f.Search))))
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_transfers`+b.clause(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	query := `SELECT ` + transferColumns + ` FROM stock_transfers` + b.clause() +
		orderClause(transferOrderColumns, f.SortBy, f.SortDesc)
	if f.Limit > 0 {
		query += " LIMIT " + b.arg(f.Limit)
	}
	query += " OFFSET " + b.arg(f.Offset)

	rows, err := r.q.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	return list, total, nil
}

func scanTransfer(row scanner) (*entity.Transfer, error) {
	var (
		t        entity.Transfer
		items    []transferItemRow
		received []receivedItemRow
	)
	err := row.Scan(
		&t.ID, &t.Number, &t.CompanyID, &t.FromBranchID, &t.ToBranchID, &items, &t.Status, &t.Reason, &t.Notes,
		&t.ExpectedDeliveryDate, &t.CreatedBy, &t.ShippedAt, &t.ShippedBy, &t.ReceivedAt, &t.ReceivedBy, &received,
		&t.CancelledAt, &t.CancelledBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Items = make([]entity.TransferItem, 0, len(items))
	for _, it := range items {
		t.Items = append(t.Items, entity.TransferItem(it))
	}
	for _, it := range received {
		t.ReceivedItems = append(t.ReceivedItems, entity.ReceivedItem(it))
	}
	return &t, nil
}

func transferItemRows(items []entity.TransferItem) []transferItemRow {
	out := make([]transferItemRow, 0, len(items))
	for _, it := range items {
		out = append(out, transferItemRow(it))
	}
	return out
}

// receivedItemRows nunca devuelve nil: la columna received_items es NOT NULL.
func receivedItemRows(items []entity.ReceivedItem) []receivedItemRow {
	out := make([]receivedItemRow, 0, len(items))
	for _, it := range items {
		out = append(out, receivedItemRow(it))
	}
	return out
}

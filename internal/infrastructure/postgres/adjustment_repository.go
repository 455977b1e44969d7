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

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

var adjustmentOrderColumns = map[string]string{
	"createdAt": "created_at",
	"number":    "number",
	"type":      "type",
	"reason":    "reason",
	"status":    "status",
}

const adjustmentColumns = `id, number, company_id, branch_id, items, type, reason, notes, status, created_by, approved_by, created_at, updated_at`

// adjustmentItemRow forma de cada ítem en la columna JSONB items.
type adjustmentItemRow struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	SKU              string `json:"sku"`
	CurrentQuantity  int    `json:"currentQuantity"`
	AdjustedQuantity int    `json:"adjustedQuantity"`
	Difference       int    `json:"difference"`
	Unit             string `json:"unit"`
	Reason           string `json:"reason"`
}

// AdjustmentRepo persistencia de ajustes en stock_adjustments (usable con pool o tx).
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// LastNumber devuelve el mayor número emitido con el prefijo ("" si no hay). El relleno fijo de la
// secuencia hace que el orden de texto coincida con el numérico.
func (r *AdjustmentRepo) LastNumber(ctx context.Context, prefix string) (string, error) {
	return lastNumber(ctx, r.q, "stock_adjustments", prefix)
}

// Create inserta el ajuste. La restricción UNIQUE(number) devuelve domain.ErrDuplicate.
func (r *AdjustmentRepo) Create(ctx context.Context, adj *entity.Adjustment) error {
	items := make([]adjustmentItemRow, 0, len(adj.Items))
	for _, it := range adj.Items {
		items = append(items, adjustmentItemRow(it))
	}
	query := `
		INSERT INTO stock_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		adj.ID, adj.Number, adj.CompanyID, adj.BranchID, items, adj.Type, adj.Reason, adj.Notes,
		adj.Status, adj.CreatedBy, adj.ApprovedBy, adj.CreatedAt, adj.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número %s", domain.ErrDuplicate, adj.Number)
		}
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

// GetByID obtiene un ajuste por ID; (nil, nil) si no existe.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments WHERE id = $1`
	adj, err := scanAdjustment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return adj, nil
}

// List aplica filtros, búsqueda, orden y paginación; devuelve también el total sin paginar.
func (r *AdjustmentRepo) List(ctx context.Context, f repository.AdjustmentFilter) ([]*entity.Adjustment, int, error) {
	var b filterBuilder
	b.where("company_id = " + b.arg(f.CompanyID))
	if f.BranchID != "" {
		b.where("branch_id = " + b.arg(f.BranchID))
	}
	if f.ProductID != "" {
		b.where("items @> jsonb_build_array(jsonb_build_object('productId', " + b.arg(f.ProductID) + "::text))")
	}
	if f.Type != "" {
		b.where("type = " + b.arg(f.Type))
	}
	if f.Reason != "" {
		b.where("reason ILIKE " + b.arg(likePattern(f.Reason)))
	}
	if f.CreatedBy != "" {
		b.where("created_by = " + b.arg(f.CreatedBy))
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
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_adjustments`+b.clause(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count adjustments: %w", err)
	}

	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments` + b.clause() +
		orderClause(adjustmentOrderColumns, f.SortBy, f.SortDesc)
	if f.Limit > 0 {
		query += " LIMIT " + b.arg(f.Limit)
	}
	query += " OFFSET " + b.arg(f.Offset)

	rows, err := r.q.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Adjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan adjustment: %w", err)
		}
		list = append(list, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list adjustments: %w", err)
	}
	return list, total, nil
}

func scanAdjustment(row scanner) (*entity.Adjustment, error) {
	var (
		adj   entity.Adjustment
		items []adjustmentItemRow
	)
	err := row.Scan(
		&adj.ID, &adj.Number, &adj.CompanyID, &adj.BranchID, &items, &adj.Type, &adj.Reason, &adj.Notes,
		&adj.Status, &adj.CreatedBy, &adj.ApprovedBy, &adj.CreatedAt, &adj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	adj.Items = make([]entity.AdjustmentItem, 0, len(items))
	for _, it := range items {
		adj.Items = append(adj.Items, entity.AdjustmentItem(it))
	}
	return &adj, nil
}

// lastNumber comparte la búsqueda del último número entre ajustes y traslados.
func lastNumber(ctx context.Context, q Querier, table, prefix string) (string, error) {
	query := `SELECT number FROM ` + table + ` WHERE number LIKE $1 ORDER BY number DESC LIMIT 1`
	var last string
	err := q.QueryRow(ctx, query, likePrefix(prefix+"-")).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last number %s: %w", table, err)
	}
	return last, nil
}

// searchCondition subcadena sin distinguir mayúsculas sobre número, motivo, notas, la foto de
// productos y el nombre/SKU actual de los productos del documento.
func searchCondition(placeholder string) string {
	return "(number ILIKE " + placeholder +
		" OR reason ILIKE " + placeholder +
		" OR notes ILIKE " + placeholder +
		" OR EXISTS (SELECT 1 FROM jsonb_array_elements(items) it WHERE it->>'productName' ILIKE " + placeholder +
		" OR it->>'sku' ILIKE " + placeholder + ")" +
		" OR EXISTS (SELECT 1 FROM jsonb_array_elements(items) it JOIN products p ON p.id::text = it->>'productId'" +
		" WHERE p.name ILIKE " + placeholder + " OR p.sku ILIKE " + placeholder + "))"
}

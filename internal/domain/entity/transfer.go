package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de traslado. received y cancelled son terminales.
const (
	TransferStatusPending   = "pending"
	TransferStatusShipped   = "shipped"
	TransferStatusReceived  = "received"
	TransferStatusCancelled = "cancelled"
)

// Motivos de traslado.
const (
	TransferReasonRestock = "restock"
	TransferReasonDemand  = "demand"
	TransferReasonExpiry  = "expiry"
	TransferReasonOther   = "other"
)

// TransferItem es la foto del producto al crear el traslado (desacoplada de cambios posteriores).
type TransferItem struct {
	ProductID   string
	ProductName string
	SKU         string
	Quantity    int
	Unit        string
	UnitCost    decimal.Decimal
}

// ReceivedItem cantidad efectivamente recibida en destino para un producto.
type ReceivedItem struct {
	ProductID string
	Quantity  int
}

// Transfer es un movimiento de stock entre dos sucursales gobernado por estados.
type Transfer struct {
	ID                   string
	Number               string // TXF-<origen><destino>-<YYYYMM>-<seq4>
	CompanyID            string
	FromBranchID         string
	ToBranchID           string
	Items                []TransferItem
	Status               string
	Reason               string
	Notes                string
	ExpectedDeliveryDate *time.Time
	CreatedBy            string
	ShippedAt            *time.Time
	ShippedBy            string
	ReceivedAt           *time.Time
	ReceivedBy           string
	ReceivedItems        []ReceivedItem
	CancelledAt          *time.Time
	CancelledBy          string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsTerminal indica si el traslado ya no admite transiciones.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferStatusReceived || t.Status == TransferStatusCancelled
}

// TotalQuantity suma las cantidades despachadas.
func (t *Transfer) TotalQuantity() int {
	total := 0
	for _, it := range t.Items {
		total += it.Quantity
	}
	return total
}

// TotalCost valoriza el traslado al costo unitario registrado en cada ítem.
func (t *Transfer) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, it := range t.Items {
		total = total.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// ShippedQuantities devuelve la cantidad despachada por producto.
func (t *Transfer) ShippedQuantities() map[string]int {
	out := make(map[string]int, len(t.Items))
	for _, it := range t.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

// IsValidTransferStatus valida el estado.
func IsValidTransferStatus(s string) bool {
	switch s {
	case TransferStatusPending, TransferStatusShipped, TransferStatusReceived, TransferStatusCancelled:
		return true
	}
	return false
}

// IsValidTransferReason valida el motivo.
func IsValidTransferReason(r string) bool {
	switch r {
	case TransferReasonRestock, TransferReasonDemand, TransferReasonExpiry, TransferReasonOther:
		return true
	}
	return false
}

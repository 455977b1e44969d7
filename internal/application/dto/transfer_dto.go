package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferItemRequest ítem del body de creación de traslado.
type TransferItemRequest struct {
	Product  string           `json:"product" validate:"required,uuid"`
	Quantity int              `json:"quantity" validate:"required,min=1"`
	UnitCost *decimal.Decimal `json:"unitCost,omitempty"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromBranch           string                `json:"fromBranch" validate:"required,uuid"`
	ToBranch             string                `json:"toBranch" validate:"required,uuid,nefield=FromBranch"`
	Items                []TransferItemRequest `json:"items" validate:"required,min=1,dive"`
	Reason               string                `json:"reason" validate:"required,oneof=restock demand expiry other"`
	Notes                string                `json:"notes" validate:"max=1000"`
	ExpectedDeliveryDate *time.Time            `json:"expectedDeliveryDate,omitempty"`
}

// ReceivedItemRequest cantidad recibida de un producto.
type ReceivedItemRequest struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// UpdateTransferStatusRequest body para PATCH /api/transfers/:id/status.
type UpdateTransferStatusRequest struct {
	Status        string                `json:"status" validate:"required,oneof=pending shipped received cancelled"`
	Notes         string                `json:"notes" validate:"max=1000"`
	ReceivedItems []ReceivedItemRequest `json:"receivedItems,omitempty" validate:"omitempty,dive"`
}

// TransferListQuery query de GET /api/transfers.
type TransferListQuery struct {
	PageRequest
	FromBranch string `query:"fromBranch"`
	ToBranch   string `query:"toBranch"`
	Status     string `query:"status"`
	StartDate  string `query:"startDate"`
	EndDate    string `query:"endDate"`
	Search     string `query:"search"`
}

// TransferItemResponse ítem de traslado en respuestas.
type TransferItemResponse struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitCost    decimal.Decimal `json:"unitCost"`
}

// ReceivedItemResponse cantidad recibida en respuestas.
type ReceivedItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID                   string                 `json:"id"`
	Number               string                 `json:"number"`
	FromBranchID         string                 `json:"fromBranchId"`
	ToBranchID           string                 `json:"toBranchId"`
	Items                []TransferItemResponse `json:"items"`
	Status               string                 `json:"status"`
	Reason               string                 `json:"reason"`
	Notes                string                 `json:"notes"`
	ExpectedDeliveryDate *time.Time             `json:"expectedDeliveryDate,omitempty"`
	TotalCost            decimal.Decimal        `json:"totalCost"`
	CreatedBy            string                 `json:"createdBy"`
	ShippedAt            *time.Time             `json:"shippedAt,omitempty"`
	ShippedBy            string                 `json:"shippedBy,omitempty"`
	ReceivedAt           *time.Time             `json:"receivedAt,omitempty"`
	ReceivedBy           string                 `json:"receivedBy,omitempty"`
	ReceivedItems        []ReceivedItemResponse `json:"receivedItems,omitempty"`
	CancelledAt          *time.Time             `json:"cancelledAt,omitempty"`
	CancelledBy          string                 `json:"cancelledBy,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

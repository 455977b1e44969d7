package dto

import "time"

// AdjustmentItemRequest ítem del body de creación de ajuste.
// AdjustedQuantity omitido = se conserva la cantidad actual.
type AdjustmentItemRequest struct {
	Product          string `json:"product" validate:"required,uuid"`
	AdjustedQuantity *int   `json:"adjustedQuantity" validate:"omitempty,min=0"`
	ProductName      string `json:"productName,omitempty"`
	SKU              string `json:"sku,omitempty"`
	Unit             string `json:"unit,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// CreateAdjustmentRequest body para POST /api/adjustments.
type CreateAdjustmentRequest struct {
	Branch string                  `json:"branch" validate:"required,uuid"`
	Items  []AdjustmentItemRequest `json:"items" validate:"required,min=1,dive"`
	Type   string                  `json:"type" validate:"required,oneof=increase decrease correction"`
	Reason string                  `json:"reason" validate:"required,oneof=damage theft expiry found count_error other"`
	Notes  string                  `json:"notes" validate:"max=1000"`
}

// AdjustmentListQuery query de GET /api/adjustments.
type AdjustmentListQuery struct {
	PageRequest
	Branch     string `query:"branch"`
	Product    string `query:"product"`
	Type       string `query:"type"`
	StartDate  string `query:"startDate"`
	EndDate    string `query:"endDate"`
	Reason     string `query:"reason"`
	AdjustedBy string `query:"adjustedBy"`
	Search     string `query:"search"`
}

// AdjustmentItemResponse ítem de ajuste en respuestas.
type AdjustmentItemResponse struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	SKU              string `json:"sku"`
	CurrentQuantity  int    `json:"currentQuantity"`
	AdjustedQuantity int    `json:"adjustedQuantity"`
	Difference       int    `json:"difference"`
	Unit             string `json:"unit"`
	Reason           string `json:"reason"`
}

// AdjustmentResponse salida de un ajuste.
type AdjustmentResponse struct {
	ID         string                   `json:"id"`
	Number     string                   `json:"number"`
	BranchID   string                   `json:"branchId"`
	Items      []AdjustmentItemResponse `json:"items"`
	Type       string                   `json:"type"`
	Reason     string                   `json:"reason"`
	Notes      string                   `json:"notes"`
	Status     string                   `json:"status"`
	CreatedBy  string                   `json:"createdBy"`
	ApprovedBy string                   `json:"approvedBy,omitempty"`
	CreatedAt  time.Time                `json:"createdAt"`
}

// AdjustmentListResponse lista paginada de ajustes.
type AdjustmentListResponse struct {
	Items []AdjustmentResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

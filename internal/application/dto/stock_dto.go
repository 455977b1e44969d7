package dto

import "time"

// BranchStockResponse cantidad de un producto en una sucursal.
type BranchStockResponse struct {
	ProductID   string     `json:"productId"`
	BranchID    string     `json:"branchId"`
	Quantity    int        `json:"quantity"`
	MinLevel    int        `json:"minLevel"`
	MaxLevel    int        `json:"maxLevel"`
	LowStock    bool       `json:"lowStock"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

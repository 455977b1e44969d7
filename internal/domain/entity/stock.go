package entity

import "time"

// Niveles por defecto al crear el registro de stock de una sucursal.
const (
	DefaultMinLevel = 0
	DefaultMaxLevel = 100
)

// BranchStock es la cantidad de un producto en una sucursal (clave única producto+sucursal).
// Quantity nunca es negativa después de una operación confirmada.
type BranchStock struct {
	ProductID   string
	BranchID    string
	Quantity    int
	MinLevel    int // nivel de reorden
	MaxLevel    int
	LastUpdated time.Time
}

// NewBranchStock crea el registro con los niveles por defecto.
func NewBranchStock(productID, branchID string, quantity int, now time.Time) *BranchStock {
	return &BranchStock{
		ProductID:   productID,
		BranchID:    branchID,
		Quantity:    quantity,
		MinLevel:    DefaultMinLevel,
		MaxLevel:    DefaultMaxLevel,
		LastUpdated: now,
	}
}

// IsLowStock indica si la cantidad está en o por debajo del nivel de reorden.
func (s *BranchStock) IsLowStock() bool {
	return s.Quantity <= s.MinLevel
}

package entity

import "time"

// Tipos de ajuste.
const (
	AdjustmentTypeIncrease   = "increase"
	AdjustmentTypeDecrease   = "decrease"
	AdjustmentTypeCorrection = "correction"
)

// Motivos de ajuste.
const (
	AdjustmentReasonDamage     = "damage"
	AdjustmentReasonTheft      = "theft"
	AdjustmentReasonExpiry     = "expiry"
	AdjustmentReasonFound      = "found"
	AdjustmentReasonCountError = "count_error"
	AdjustmentReasonOther      = "other"
)

// Estados de ajuste (metadato de auditoría; el efecto en stock se aplica al crear).
const (
	AdjustmentStatusPending  = "pending"
	AdjustmentStatusApproved = "approved"
	AdjustmentStatusRejected = "rejected"
)

// AdjustmentItem es la foto inmutable de un producto al momento del ajuste.
// Difference = AdjustedQuantity - CurrentQuantity, siempre calculado en el servidor.
type AdjustmentItem struct {
	ProductID        string
	ProductName      string
	SKU              string
	CurrentQuantity  int
	AdjustedQuantity int
	Difference       int
	Unit             string
	Reason           string
}

// Adjustment es una corrección de stock en una sola sucursal.
type Adjustment struct {
	ID         string
	Number     string // ADJ-<sucursal>-<YYYYMMDD>-<seq4>
	CompanyID  string
	BranchID   string
	Items      []AdjustmentItem
	Type       string
	Reason     string
	Notes      string
	Status     string
	CreatedBy  string
	ApprovedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsValidAdjustmentType valida el tipo de ajuste.
func IsValidAdjustmentType(t string) bool {
	switch t {
	case AdjustmentTypeIncrease, AdjustmentTypeDecrease, AdjustmentTypeCorrection:
		return true
	}
	return false
}

// IsValidAdjustmentReason valida el motivo de ajuste.
func IsValidAdjustmentReason(r string) bool {
	switch r {
	case AdjustmentReasonDamage, AdjustmentReasonTheft, AdjustmentReasonExpiry,
		AdjustmentReasonFound, AdjustmentReasonCountError, AdjustmentReasonOther:
		return true
	}
	return false
}

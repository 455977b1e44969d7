package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo (dato maestro, solo lectura para este motor).
// El stock por sucursal no vive aquí: se consulta y modifica únicamente a través del StockLedger.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string
	Name        string
	UnitMeasure string
	Cost        decimal.Decimal // costo unitario vigente
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

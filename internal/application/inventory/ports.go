package inventory

import (
	"context"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

// AdjustmentTxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de ajustes: stock + número + registro confirman o revierten juntos.
type AdjustmentTxRunner interface {
	RunAdjustment(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		adjustmentRepo repository.AdjustmentRepository,
	) error) error
}

// TransferTxRunner ejecuta una función dentro de una transacción con los repos del motor de traslados.
type TransferTxRunner interface {
	RunTransfer(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		transferRepo repository.TransferRepository,
	) error) error
}

// MetricsRecorder registra eventos del motor de movimientos. Implementado por pkg/metrics.
type MetricsRecorder interface {
	AdjustmentCreated(adjustmentType string)
	TransferCreated(reason string)
	TransferTransition(from, to string)
	NumberRetry(kind string)
}

// TransferDocumentGenerator genera la remisión (PDF) de un traslado.
type TransferDocumentGenerator interface {
	GenerateDispatchNote(ctx context.Context, t *entity.Transfer, from, to *entity.Branch) ([]byte, error)
}

type noopMetrics struct{}

func (noopMetrics) AdjustmentCreated(string)          {}
func (noopMetrics) TransferCreated(string)            {}
func (noopMetrics) TransferTransition(string, string) {}
func (noopMetrics) NumberRetry(string)                {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

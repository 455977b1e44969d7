// Package metrics expone contadores Prometheus del motor de movimientos de inventario.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MovementMetrics cumple inventory.MetricsRecorder. Un valor sin registrar (nil o creado con
// registerer nil) descarta las observaciones.
type MovementMetrics struct {
	adjustments *prometheus.CounterVec
	transfers   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	retries     *prometheus.CounterVec
}

// NewMovementMetrics registra las métricas en el registerer dado.
func NewMovementMetrics(reg prometheus.Registerer) *MovementMetrics {
	if reg == nil {
		return &MovementMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_adjustments_total",
		Help: "Ajustes de stock registrados por tipo.",
	}, []string{"type"})
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_transfers_created_total",
		Help: "Traslados creados por motivo.",
	}, []string{"reason"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_transfer_transitions_total",
		Help: "Transiciones de estado de traslados confirmadas.",
	}, []string{"from", "to"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_document_number_retries_total",
		Help: "Reintentos por colisión de número de documento.",
	}, []string{"kind"})
	reg.MustRegister(adjustments, transfers, transitions, retries)
	return &MovementMetrics{
		adjustments: adjustments,
		transfers:   transfers,
		transitions: transitions,
		retries:     retries,
	}
}

// AdjustmentCreated cuenta un ajuste confirmado.
func (m *MovementMetrics) AdjustmentCreated(adjustmentType string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(adjustmentType)).Inc()
}

// TransferCreated cuenta un traslado creado.
func (m *MovementMetrics) TransferCreated(reason string) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeLabel(reason)).Inc()
}

// TransferTransition cuenta una transición confirmada.
func (m *MovementMetrics) TransferTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// NumberRetry cuenta un reintento de numeración.
func (m *MovementMetrics) NumberRetry(kind string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
)

// Campos por los que se puede ordenar cada listado (nombre público → validado).
var (
	adjustmentSortFields = map[string]bool{"createdAt": true, "number": true, "type": true, "reason": true, "status": true}
	transferSortFields   = map[string]bool{
		"createdAt": true, "updatedAt": true, "number": true, "status": true, "reason": true, "expectedDeliveryDate": true,
	}
)

// parseDateParam acepta RFC3339 o YYYY-MM-DD. Con endOfDay, una fecha sin hora incluye el día completo.
func parseDateParam(field, value string, endOfDay bool, problems *[]domain.FieldProblem) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		*problems = append(*problems, domain.FieldProblem{Field: field, Message: "fecha inválida, use YYYY-MM-DD o RFC3339"})
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

func checkSort(sortBy string, allowed map[string]bool, problems *[]domain.FieldProblem) string {
	if sortBy == "" {
		return "createdAt"
	}
	if !allowed[sortBy] {
		*problems = append(*problems, domain.FieldProblem{Field: "sortBy", Message: "campo de ordenamiento no soportado: " + sortBy})
	}
	return sortBy
}

func checkUUID(field, value string, problems *[]domain.FieldProblem) {
	if value == "" {
		*problems = append(*problems, domain.FieldProblem{Field: field, Message: "es requerido"})
		return
	}
	if _, err := uuid.Parse(value); err != nil {
		*problems = append(*problems, domain.FieldProblem{Field: field, Message: "debe ser un UUID válido"})
	}
}

func checkOptionalUUID(field, value string, problems *[]domain.FieldProblem) {
	if value != "" {
		checkUUID(field, value, problems)
	}
}

package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

// ValidateReceivedItems revisa las cantidades recibidas contra lo despachado.
// Reúne todos los problemas en lugar de detenerse en el primero.
func ValidateReceivedItems(t *entity.Transfer, received []entity.ReceivedItem) []domain.FieldProblem {
	shipped := t.ShippedQuantities()
	seen := make(map[string]bool, len(received))
	var problems []domain.FieldProblem
	for i, it := range received {
		field := fmt.Sprintf("receivedItems[%d]", i)
		sent, ok := shipped[it.ProductID]
		switch {
		case !ok:
			problems = append(problems, domain.FieldProblem{
				Field: field + ".product", Message: fmt.Sprintf("el producto %s no pertenece al traslado", it.ProductID),
			})
		case seen[it.ProductID]:
			problems = append(problems, domain.FieldProblem{
				Field: field + ".product", Message: fmt.Sprintf("el producto %s está repetido", it.ProductID),
			})
		case it.Quantity < 0:
			problems = append(problems, domain.FieldProblem{
				Field: field + ".quantity", Message: fmt.Sprintf("cantidad negativa para el producto %s", it.ProductID),
			})
		case it.Quantity > sent:
			problems = append(problems, domain.FieldProblem{
				Field:   field + ".quantity",
				Message: fmt.Sprintf("el producto %s recibe %d pero se despacharon %d", it.ProductID, it.Quantity, sent),
			})
		}
		seen[it.ProductID] = true
	}
	return problems
}

// ReceivedOrShipped devuelve lo que debe abonarse en destino: lo recibido o, si no se informó, todo lo despachado.
func ReceivedOrShipped(t *entity.Transfer, received []entity.ReceivedItem) []entity.ReceivedItem {
	if len(received) > 0 {
		return received
	}
	out := make([]entity.ReceivedItem, 0, len(t.Items))
	for _, it := range t.Items {
		out = append(out, entity.ReceivedItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

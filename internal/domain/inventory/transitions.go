package inventory

import (
	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

// StockEffect es el efecto en inventario que acompaña una transición de traslado.
type StockEffect int

const (
	EffectNone              StockEffect = iota
	EffectDebitSource                   // descuenta los ítems de la sucursal origen
	EffectCreditDestination             // abona lo recibido en la sucursal destino
	EffectCreditSource                  // devuelve los ítems a la sucursal origen
)

// BranchSide indica sobre qué sucursal se exige permiso de escritura.
type BranchSide int

const (
	SideFrom BranchSide = iota
	SideTo
)

// TransitionRule describe una transición permitida.
type TransitionRule struct {
	Access BranchSide
	Effect StockEffect
}

var transitionTable = map[string]map[string]TransitionRule{
	entity.TransferStatusPending: {
		entity.TransferStatusShipped:   {Access: SideFrom, Effect: EffectDebitSource},
		entity.TransferStatusCancelled: {Access: SideFrom, Effect: EffectNone},
	},
	entity.TransferStatusShipped: {
		entity.TransferStatusReceived:  {Access: SideTo, Effect: EffectCreditDestination},
		entity.TransferStatusCancelled: {Access: SideFrom, Effect: EffectCreditSource},
	},
}

// CheckTransition devuelve la regla de from → to o un *domain.TransitionError si no existe.
func CheckTransition(from, to string) (TransitionRule, error) {
	rule, ok := transitionTable[from][to]
	if !ok {
		return TransitionRule{}, &domain.TransitionError{From: from, To: to}
	}
	return rule, nil
}

// BranchFor devuelve la sucursal del traslado sobre la que aplica la regla.
func (r TransitionRule) BranchFor(t *entity.Transfer) string {
	if r.Access == SideTo {
		return t.ToBranchID
	}
	return t.FromBranchID
}

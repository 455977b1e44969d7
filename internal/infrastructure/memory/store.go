// Package memory implementa los puertos de persistencia en memoria. Las transacciones se serializan
// con un mutex y trabajan sobre una copia del estado que solo se publica si la función no falla.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

type stockKey struct {
	productID string
	branchID  string
}

type state struct {
	branches    map[string]entity.Branch
	products    map[string]entity.Product
	stock       map[stockKey]entity.BranchStock
	adjustments map[string]*entity.Adjustment
	transfers   map[string]*entity.Transfer
}

func newState() *state {
	return &state{
		branches:    map[string]entity.Branch{},
		products:    map[string]entity.Product{},
		stock:       map[stockKey]entity.BranchStock{},
		adjustments: map[string]*entity.Adjustment{},
		transfers:   map[string]*entity.Transfer{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.branches {
		c.branches[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.adjustments {
		c.adjustments[k] = cloneAdjustment(v)
	}
	for k, v := range s.transfers {
		c.transfers[k] = cloneTransfer(v)
	}
	return c
}

// Store guarda sucursales, productos, stock y documentos de movimiento.
type Store struct {
	mu    sync.Mutex
	st    *state
	clock func() time.Time
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), clock: time.Now}
}

// access ejecuta f con el estado publicado bajo el mutex.
func (s *Store) access(f func(*state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.st)
}

// run ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
func (s *Store) run(ctx context.Context, fn func(work *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) bound(work *state) func(func(*state)) {
	return func(f func(*state)) { f(work) }
}

// RunAdjustment cumple inventory.AdjustmentTxRunner.
func (s *Store) RunAdjustment(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	adjustmentRepo repository.AdjustmentRepository,
) error) error {
	return s.run(ctx, func(work *state) error {
		at := s.bound(work)
		return fn(&stockRepo{at: at, clock: s.clock}, &productRepo{at: at}, &adjustmentRepo{at: at})
	})
}

// RunTransfer cumple inventory.TransferTxRunner.
func (s *Store) RunTransfer(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	transferRepo repository.TransferRepository,
) error) error {
	return s.run(ctx, func(work *state) error {
		at := s.bound(work)
		return fn(&stockRepo{at: at, clock: s.clock}, &productRepo{at: at}, &transferRepo{at: at})
	})
}

// Repositorios fuera de transacción.

func (s *Store) Branches() repository.BranchRepository { return &branchRepo{at: s.access} }

func (s *Store) Products() repository.ProductRepository { return &productRepo{at: s.access} }

func (s *Store) Stock() repository.StockRepository { return &stockRepo{at: s.access, clock: s.clock} }

func (s *Store) Adjustments() repository.AdjustmentRepository { return &adjustmentRepo{at: s.access} }

func (s *Store) Transfers() repository.TransferRepository { return &transferRepo{at: s.access} }

// AddBranch registra una sucursal.
func (s *Store) AddBranch(b entity.Branch) {
	s.access(func(st *state) { st.branches[b.ID] = b })
}

// AddProduct registra un producto.
func (s *Store) AddProduct(p entity.Product) {
	s.access(func(st *state) { st.products[p.ID] = p })
}

// SetStock fija la cantidad de un producto en una sucursal.
func (s *Store) SetStock(productID, branchID string, quantity int) {
	s.access(func(st *state) {
		st.stock[stockKey{productID, branchID}] = *entity.NewBranchStock(productID, branchID, quantity, s.clock())
	})
}

// Quantity devuelve la cantidad registrada (0 si no hay registro).
func (s *Store) Quantity(productID, branchID string) int {
	var q int
	s.access(func(st *state) { q = st.stock[stockKey{productID, branchID}].Quantity })
	return q
}

func cloneAdjustment(a *entity.Adjustment) *entity.Adjustment {
	c := *a
	c.Items = append([]entity.AdjustmentItem(nil), a.Items...)
	return &c
}

func cloneTransfer(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.Items = append([]entity.TransferItem(nil), t.Items...)
	c.ReceivedItems = append([]entity.ReceivedItem(nil), t.ReceivedItems...)
	if len(t.ReceivedItems) == 0 {
		c.ReceivedItems = nil
	}
	c.ExpectedDeliveryDate = cloneTime(t.ExpectedDeliveryDate)
	c.ShippedAt = cloneTime(t.ShippedAt)
	c.ReceivedAt = cloneTime(t.ReceivedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

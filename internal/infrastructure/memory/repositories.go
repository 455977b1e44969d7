package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

// sortableTime ordena lexicográficamente igual que cronológicamente.
const sortableTime = "2006-01-02T15:04:05.000000000"

type accessor func(func(*state))

var (
	_ repository.BranchRepository     = (*branchRepo)(nil)
	_ repository.ProductRepository    = (*productRepo)(nil)
	_ repository.StockRepository      = (*stockRepo)(nil)
	_ repository.AdjustmentRepository = (*adjustmentRepo)(nil)
	_ repository.TransferRepository   = (*transferRepo)(nil)
)

type branchRepo struct{ at accessor }

func (r *branchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	var out *entity.Branch
	r.at(func(st *state) {
		if b, ok := st.branches[id]; ok {
			out = &b
		}
	})
	return out, nil
}

type productRepo struct{ at accessor }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.at(func(st *state) {
		if p, ok := st.products[id]; ok {
			out = &p
		}
	})
	return out, nil
}

type stockRepo struct {
	at    accessor
	clock func() time.Time
}

func (r *stockRepo) Get(_ context.Context, productID, branchID string) (*entity.BranchStock, error) {
	var out *entity.BranchStock
	r.at(func(st *state) {
		if s, ok := st.stock[stockKey{productID, branchID}]; ok {
			out = &s
		}
	})
	return out, nil
}

// GetForUpdate crea el registro en cero; el bloqueo lo da la transacción serializada del Store.
func (r *stockRepo) GetForUpdate(_ context.Context, productID, branchID string) (*entity.BranchStock, error) {
	var out entity.BranchStock
	r.at(func(st *state) {
		key := stockKey{productID, branchID}
		s, ok := st.stock[key]
		if !ok {
			s = *entity.NewBranchStock(productID, branchID, 0, r.clock())
			st.stock[key] = s
		}
		out = s
	})
	return &out, nil
}

func (r *stockRepo) ApplyDelta(_ context.Context, productID, branchID string, delta int) (*entity.BranchStock, error) {
	var (
		out *entity.BranchStock
		err error
	)
	r.at(func(st *state) {
		key := stockKey{productID, branchID}
		s, ok := st.stock[key]
		if !ok {
			s = *entity.NewBranchStock(productID, branchID, 0, r.clock())
		}
		if s.Quantity+delta < 0 {
			err = fmt.Errorf("%w: disponible %d, delta %d", domain.ErrInsufficientStock, s.Quantity, delta)
			return
		}
		s.Quantity += delta
		s.LastUpdated = r.clock()
		st.stock[key] = s
		out = &s
	})
	return out, err
}

type adjustmentRepo struct{ at accessor }

func (r *adjustmentRepo) LastNumber(_ context.Context, prefix string) (string, error) {
	var last string
	r.at(func(st *state) {
		for _, a := range st.adjustments {
			if strings.HasPrefix(a.Number, prefix+"-") && a.Number > last {
				last = a.Number
			}
		}
	})
	return last, nil
}

func (r *adjustmentRepo) Create(_ context.Context, adj *entity.Adjustment) error {
	var err error
	r.at(func(st *state) {
		for _, a := range st.adjustments {
			if a.Number == adj.Number {
				err = fmt.Errorf("%w: número %s", domain.ErrDuplicate, adj.Number)
				return
			}
		}
		st.adjustments[adj.ID] = cloneAdjustment(adj)
	})
	return err
}

func (r *adjustmentRepo) GetByID(_ context.Context, id string) (*entity.Adjustment, error) {
	var out *entity.Adjustment
	r.at(func(st *state) {
		if a, ok := st.adjustments[id]; ok {
			out = cloneAdjustment(a)
		}
	})
	return out, nil
}

func (r *adjustmentRepo) List(_ context.Context, f repository.AdjustmentFilter) ([]*entity.Adjustment, int, error) {
	var matched []*entity.Adjustment
	r.at(func(st *state) {
		for _, a := range st.adjustments {
			if matchAdjustment(st, a, f) {
				matched = append(matched, cloneAdjustment(a))
			}
		}
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return less(adjustmentKey(matched[i], f.SortBy), adjustmentKey(matched[j], f.SortBy), matched[i].Number, matched[j].Number, f.SortDesc)
	})
	total := len(matched)
	return paginate(matched, f.Offset, f.Limit), total, nil
}

func matchAdjustment(st *state, a *entity.Adjustment, f repository.AdjustmentFilter) bool {
	switch {
	case f.CompanyID != "" && a.CompanyID != f.CompanyID,
		f.BranchID != "" && a.BranchID != f.BranchID,
		f.Type != "" && a.Type != f.Type,
		f.CreatedBy != "" && a.CreatedBy != f.CreatedBy,
		f.Reason != "" && !containsFold(a.Reason, f.Reason),
		!inRange(a.CreatedAt, f.From, f.To):
		return false
	}
	if f.ProductID != "" {
		found := false
		for _, it := range a.Items {
			found = found || it.ProductID == f.ProductID
		}
		if !found {
			return false
		}
	}
	if f.Search == "" {
		return true
	}
	if containsFold(a.Number, f.Search) || containsFold(a.Reason, f.Search) || containsFold(a.Notes, f.Search) {
		return true
	}
	for _, it := range a.Items {
		if productMatches(st, it.ProductID, it.ProductName, it.SKU, f.Search) {
			return true
		}
	}
	return false
}

// productMatches busca en la foto del ítem y en el nombre/SKU actuales del producto.
func productMatches(st *state, productID, name, sku, search string) bool {
	if containsFold(name, search) || containsFold(sku, search) {
		return true
	}
	p, ok := st.products[productID]
	return ok && (containsFold(p.Name, search) || containsFold(p.SKU, search))
}

func adjustmentKey(a *entity.Adjustment, sortBy string) string {
	switch sortBy {
	case "number":
		return a.Number
	case "type":
		return a.Type
	case "reason":
		return a.Reason
	case "status":
		return a.Status
	}
	return a.CreatedAt.UTC().Format(sortableTime)
}

type transferRepo struct{ at accessor }

func (r *transferRepo) LastNumber(_ context.Context, prefix string) (string, error) {
	var last string
	r.at(func(st *state) {
		for _, t := range st.transfers {
			if strings.HasPrefix(t.Number, prefix+"-") && t.Number > last {
				last = t.Number
			}
		}
	})
	return last, nil
}

func (r *transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	var err error
	r.at(func(st *state) {
		for _, existing := range st.transfers {
			if existing.Number == t.Number {
				err = fmt.Errorf("%w: número %s", domain.ErrDuplicate, t.Number)
				return
			}
		}
		st.transfers[t.ID] = cloneTransfer(t)
	})
	return err
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	var out *entity.Transfer
	r.at(func(st *state) {
		if t, ok := st.transfers[id]; ok {
			out = cloneTransfer(t)
		}
	})
	return out, nil
}

// GetByIDForUpdate no necesita bloqueo adicional: la transacción ya tiene el almacén en exclusiva.
func (r *transferRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *transferRepo) Update(_ context.Context, t *entity.Transfer) error {
	var err error
	r.at(func(st *state) {
		if _, ok := st.transfers[t.ID]; !ok {
			err = fmt.Errorf("%w: traslado %s", domain.ErrNotFound, t.ID)
			return
		}
		st.transfers[t.ID] = cloneTransfer(t)
	})
	return err
}

func (r *transferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.Transfer, int, error) {
	var matched []*entity.Transfer
	r.at(func(st *state) {
		for _, t := range st.transfers {
			if matchTransfer(st, t, f) {
				matched = append(matched, cloneTransfer(t))
			}
		}
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return less(transferKey(matched[i], f.SortBy), transferKey(matched[j], f.SortBy), matched[i].Number, matched[j].Number, f.SortDesc)
	})
	total := len(matched)
	return paginate(matched, f.Offset, f.Limit), total, nil
}

func matchTransfer(st *state, t *entity.Transfer, f repository.TransferFilter) bool {
	switch {
	case f.CompanyID != "" && t.CompanyID != f.CompanyID,
		f.FromBranchID != "" && t.FromBranchID != f.FromBranchID,
		f.ToBranchID != "" && t.ToBranchID != f.ToBranchID,
		f.ScopeBranchID != "" && t.FromBranchID != f.ScopeBranchID && t.ToBranchID != f.ScopeBranchID,
		f.Status != "" && t.Status != f.Status,
		!inRange(t.CreatedAt, f.From, f.To):
		return false
	}
	if f.Search == "" {
		return true
	}
	if containsFold(t.Number, f.Search) || containsFold(t.Reason, f.Search) || containsFold(t.Notes, f.Search) {
		return true
	}
	for _, it := range t.Items {
		if productMatches(st, it.ProductID, it.ProductName, it.SKU, f.Search) {
			return true
		}
	}
	return false
}

func transferKey(t *entity.Transfer, sortBy string) string {
	switch sortBy {
	case "number":
		return t.Number
	case "status":
		return t.Status
	case "reason":
		return t.Reason
	case "updatedAt":
		return t.UpdatedAt.UTC().Format(sortableTime)
	case "expectedDeliveryDate":
		if t.ExpectedDeliveryDate == nil {
			return ""
		}
		return t.ExpectedDeliveryDate.UTC().Format(sortableTime)
	}
	return t.CreatedAt.UTC().Format(sortableTime)
}

// less compara por clave y desempata por número, ambos en la dirección pedida.
func less(a, b, numA, numB string, desc bool) bool {
	if a == b {
		a, b = numA, numB
	}
	if desc {
		return a > b
	}
	return a < b
}

func paginate[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

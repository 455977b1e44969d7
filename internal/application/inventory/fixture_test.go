package inventory_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-movimientos/internal/application/access"
	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

const (
	companyID = "c0000000-0000-0000-0000-000000000001"
	branch1   = "b1000000-0000-0000-0000-000000000001"
	branch2   = "b2000000-0000-0000-0000-000000000002"
	productP  = "a1000000-0000-0000-0000-000000000001"
	productQ  = "a2000000-0000-0000-0000-000000000002"
	missingID = "ffffffff-ffff-ffff-ffff-ffffffffffff"
)

var fechaFija = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

var (
	admin      = entity.Actor{UserID: "admin-1", CompanyID: companyID, Role: entity.RoleAdmin}
	bodegaB1   = entity.Actor{UserID: "bod-1", CompanyID: companyID, BranchID: branch1, Role: entity.RoleBodeguero}
	bodegaB2   = entity.Actor{UserID: "bod-2", CompanyID: companyID, BranchID: branch2, Role: entity.RoleBodeguero}
	vendedorB2 = entity.Actor{UserID: "ven-2", CompanyID: companyID, BranchID: branch2, Role: entity.RoleVendedor}
)

type fixture struct {
	store       *memory.Store
	numbers     *inventory.NumberGenerator
	metrics     *fakeMetrics
	adjustments *inventory.AdjustmentUseCase
	transfers   *inventory.TransferUseCase
	stock       *inventory.StockUseCase
}

// newFixture arma dos sucursales (B1, B2) y dos productos con el almacén en memoria.
func newFixture() *fixture {
	store := memory.NewStore()
	store.AddBranch(entity.Branch{ID: branch1, CompanyID: companyID, Code: "B1", Name: "Centro"})
	store.AddBranch(entity.Branch{ID: branch2, CompanyID: companyID, Code: "B2", Name: "Norte"})
	store.AddProduct(entity.Product{
		ID: productP, CompanyID: companyID, SKU: "CAF-500", Name: "Café molido 500g", UnitMeasure: "und", Cost: decimal.NewFromInt(12000),
	})
	store.AddProduct(entity.Product{
		ID: productQ, CompanyID: companyID, SKU: "AZU-1K", Name: "Azúcar 1kg", UnitMeasure: "und", Cost: decimal.NewFromInt(4500),
	})

	metrics := &fakeMetrics{}
	numbers := inventory.NewNumberGenerator(inventory.DefaultNumberMaxAttempts, metrics).WithClock(func() time.Time { return fechaFija })
	guard := access.NewRoleGuard()
	log := logger.Nop()
	return &fixture{
		store:       store,
		numbers:     numbers,
		metrics:     metrics,
		adjustments: inventory.NewAdjustmentUseCase(store, store.Branches(), store.Adjustments(), guard, numbers, metrics, log),
		transfers:   inventory.NewTransferUseCase(store, store.Branches(), store.Transfers(), guard, numbers, fakeDocuments{}, metrics, log),
		stock:       inventory.NewStockUseCase(store.Stock(), store.Branches(), guard),
	}
}

func intPtr(v int) *int { return &v }

type fakeMetrics struct {
	mu          sync.Mutex
	adjustments int
	transfers   int
	transitions []string
	retries     int
}

func (m *fakeMetrics) AdjustmentCreated(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments++
}

func (m *fakeMetrics) TransferCreated(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers++
}

func (m *fakeMetrics) NumberRetry(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *fakeMetrics) TransferTransition(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+"→"+to)
}

type fakeDocuments struct{}

func (fakeDocuments) GenerateDispatchNote(_ context.Context, t *entity.Transfer, from, to *entity.Branch) ([]byte, error) {
	return []byte("%PDF " + t.Number + " " + from.Code + "→" + to.Code), nil
}

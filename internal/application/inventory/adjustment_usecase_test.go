package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-movimientos/internal/application/access"
	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/inventario-movimientos/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

func ajusteDe(branch string, items ...dto.AdjustmentItemRequest) dto.CreateAdjustmentRequest {
	return dto.CreateAdjustmentRequest{
		Branch: branch,
		Items:  items,
		Type:   entity.AdjustmentTypeCorrection,
		Reason: entity.AdjustmentReasonCountError,
	}
}

// ─── Creación ───────────────────────────────────────────────────────────────

func TestCreateAdjustment_CalculaDiferenciaYAplicaStock(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 50)

	res, err := f.adjustments.Create(context.Background(), bodegaB1,
		ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(40)}))

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, 50, item.CurrentQuantity)
	assert.Equal(t, 40, item.AdjustedQuantity)
	assert.Equal(t, -10, item.Difference, "difference = ajustada - actual")
	assert.Equal(t, "Café molido 500g", item.ProductName, "la foto toma el nombre del producto")
	assert.Equal(t, "CAF-500", item.SKU)
	assert.Equal(t, entity.AdjustmentReasonCountError, item.Reason, "el ítem hereda el motivo del ajuste")
	assert.Equal(t, "ADJ-B1-20240315-0001", res.Number)
	assert.Equal(t, entity.AdjustmentStatusApproved, res.Status)
	assert.Equal(t, bodegaB1.UserID, res.CreatedBy)
	assert.Equal(t, 40, f.store.Quantity(productP, branch1))
	assert.Equal(t, 1, f.metrics.adjustments)
}

func TestCreateAdjustment_SinCantidadConservaLaActual(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 12)

	res, err := f.adjustments.Create(context.Background(), admin,
		ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP}))

	require.NoError(t, err)
	assert.Equal(t, 12, res.Items[0].AdjustedQuantity)
	assert.Equal(t, 0, res.Items[0].Difference)
	assert.Equal(t, 12, f.store.Quantity(productP, branch1))
}

func TestCreateAdjustment_ProductoSinRegistroDeStock(t *testing.T) {
	f := newFixture()

	res, err := f.adjustments.Create(context.Background(), admin,
		ajusteDe(branch2, dto.AdjustmentItemRequest{Product: productQ, AdjustedQuantity: intPtr(8)}))

	require.NoError(t, err)
	assert.Equal(t, 0, res.Items[0].CurrentQuantity)
	assert.Equal(t, 8, res.Items[0].Difference)
	stock, err := f.stock.Get(context.Background(), admin, branch2, productQ)
	require.NoError(t, err)
	assert.Equal(t, 8, stock.Quantity)
	assert.Equal(t, entity.DefaultMaxLevel, stock.MaxLevel, "registro creado con niveles por defecto")
}

// La suma de diferencias de un ajuste explica exactamente el cambio de stock de cada producto.
func TestCreateAdjustment_DiferenciasExplicanElCambioDeStock(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 30)
	f.store.SetStock(productQ, branch1, 5)

	res, err := f.adjustments.Create(context.Background(), admin, ajusteDe(branch1,
		dto.AdjustmentItemRequest{Product: productQ, AdjustedQuantity: intPtr(9)},
		dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(0)},
	))

	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, productQ, res.Items[0].ProductID, "la foto conserva el orden de la petición")
	for _, it := range res.Items {
		assert.Equal(t, it.AdjustedQuantity-it.CurrentQuantity, it.Difference)
		assert.Equal(t, it.CurrentQuantity+it.Difference, f.store.Quantity(it.ProductID, branch1))
	}
}

func TestCreateAdjustment_ProductoInexistenteRevierteTodo(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 50)

	_, err := f.adjustments.Create(context.Background(), admin, ajusteDe(branch1,
		dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(10)},
		dto.AdjustmentItemRequest{Product: missingID, AdjustedQuantity: intPtr(3)},
	))

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 50, f.store.Quantity(productP, branch1), "ningún delta debe quedar aplicado")
	list, err := f.adjustments.List(context.Background(), admin, dto.AdjustmentListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Items, "no debe quedar registro del ajuste")
}

func TestCreateAdjustment_ValidacionReportaTodosLosProblemas(t *testing.T) {
	f := newFixture()

	_, err := f.adjustments.Create(context.Background(), admin, dto.CreateAdjustmentRequest{
		Branch: "no-es-uuid",
		Type:   "otro",
		Reason: "capricho",
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	fields := make([]string, 0, len(verr.Problems))
	for _, p := range verr.Problems {
		fields = append(fields, p.Field)
	}
	assert.ElementsMatch(t, []string{"branch", "items", "type", "reason"}, fields)
}

func TestCreateAdjustment_ProductoRepetidoYCantidadNegativa(t *testing.T) {
	f := newFixture()

	_, err := f.adjustments.Create(context.Background(), admin, ajusteDe(branch1,
		dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(-1)},
		dto.AdjustmentItemRequest{Product: productP},
	))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
}

func TestCreateAdjustment_SucursalInexistente(t *testing.T) {
	f := newFixture()

	_, err := f.adjustments.Create(context.Background(), admin,
		ajusteDe(missingID, dto.AdjustmentItemRequest{Product: productP}))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateAdjustment_SinPermisoDeEscritura(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 50)

	for _, actor := range []entity.Actor{bodegaB2, vendedorB2, {UserID: "ven-1", CompanyID: companyID, BranchID: branch1, Role: entity.RoleVendedor}} {
		_, err := f.adjustments.Create(context.Background(), actor,
			ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(1)}))
		assert.ErrorIs(t, err, domain.ErrForbidden, "actor %s", actor.UserID)
	}
	assert.Equal(t, 50, f.store.Quantity(productP, branch1))
}

// ─── Numeración ─────────────────────────────────────────────────────────────

func TestCreateAdjustment_NumerosConsecutivos(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.adjustments.Create(ctx, admin, ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(5)}))
	require.NoError(t, err)
	second, err := f.adjustments.Create(ctx, admin, ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(6)}))
	require.NoError(t, err)
	other, err := f.adjustments.Create(ctx, admin, ajusteDe(branch2, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(1)}))
	require.NoError(t, err)

	assert.Equal(t, "ADJ-B1-20240315-0001", first.Number)
	assert.Equal(t, "ADJ-B1-20240315-0002", second.Number)
	assert.Equal(t, "ADJ-B2-20240315-0001", other.Number, "cada sucursal tiene su propia secuencia")
}

func TestCreateAdjustment_ConcurrentesObtienenNumerosDistintos(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 1000)
	const n = 20

	var (
		mu      sync.Mutex
		numbers []string
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		qty := i
		g.Go(func() error {
			res, err := f.adjustments.Create(ctx, bodegaB1,
				ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(qty)}))
			if err != nil {
				return err
			}
			mu.Lock()
			numbers = append(numbers, res.Number)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Strings(numbers)
	require.Len(t, numbers, n)
	for i, num := range numbers {
		assert.Equal(t, fmt.Sprintf("ADJ-B1-20240315-%04d", i+1), num, "números únicos y sin huecos")
	}
}

// flakyRunner simula colisiones de número devolviendo ErrDuplicate en las primeras creaciones.
type flakyRunner struct {
	*memory.Store
	failures int
}

type flakyAdjustments struct {
	repository.AdjustmentRepository
	runner *flakyRunner
}

func (r *flakyRunner) RunAdjustment(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	adjustmentRepo repository.AdjustmentRepository,
) error) error {
	return r.Store.RunAdjustment(ctx, func(s repository.StockRepository, p repository.ProductRepository, a repository.AdjustmentRepository) error {
		return fn(s, p, &flakyAdjustments{AdjustmentRepository: a, runner: r})
	})
}

func (a *flakyAdjustments) Create(ctx context.Context, adj *entity.Adjustment) error {
	if a.runner.failures > 0 {
		a.runner.failures--
		return fmt.Errorf("%w: número %s", domain.ErrDuplicate, adj.Number)
	}
	return a.AdjustmentRepository.Create(ctx, adj)
}

func TestCreateAdjustment_ReintentaAnteNumeroDuplicado(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 50)
	runner := &flakyRunner{Store: f.store, failures: 2}
	uc := inventory.NewAdjustmentUseCase(runner, f.store.Branches(), f.store.Adjustments(), access.NewRoleGuard(), f.numbers, f.metrics, logger.Nop())

	res, err := uc.Create(context.Background(), admin, ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(45)}))

	require.NoError(t, err)
	assert.Equal(t, "ADJ-B1-20240315-0001", res.Number)
	assert.Equal(t, 45, f.store.Quantity(productP, branch1), "los intentos fallidos no deben acumular deltas")
	assert.Equal(t, 2, f.metrics.retries)
}

func TestCreateAdjustment_AgotaReintentos(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 50)
	runner := &flakyRunner{Store: f.store, failures: 100}
	numbers := inventory.NewNumberGenerator(3, nil)
	uc := inventory.NewAdjustmentUseCase(runner, f.store.Branches(), f.store.Adjustments(), access.NewRoleGuard(), numbers, nil, logger.Nop())

	_, err := uc.Create(context.Background(), admin, ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(45)}))

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, errors.Is(err, domain.ErrDuplicate))
	assert.Equal(t, 97, runner.failures, "tres intentos")
	assert.Equal(t, 50, f.store.Quantity(productP, branch1))
}

// ─── Consulta ───────────────────────────────────────────────────────────────

func TestGetAdjustment_VisibilidadPorSucursal(t *testing.T) {
	f := newFixture()
	res, err := f.adjustments.Create(context.Background(), bodegaB1, ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(3)}))
	require.NoError(t, err)

	got, err := f.adjustments.GetByID(context.Background(), bodegaB1, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Number, got.Number)

	_, err = f.adjustments.GetByID(context.Background(), vendedorB2, res.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.adjustments.GetByID(context.Background(), admin, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAdjustments_FiltrosYAlcance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.adjustments.Create(ctx, admin, ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(3)}))
	require.NoError(t, err)
	_, err = f.adjustments.Create(ctx, admin, ajusteDe(branch2, dto.AdjustmentItemRequest{Product: productQ, AdjustedQuantity: intPtr(4)}))
	require.NoError(t, err)

	all, err := f.adjustments.List(ctx, admin, dto.AdjustmentListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page.Total)

	own, err := f.adjustments.List(ctx, vendedorB2, dto.AdjustmentListQuery{})
	require.NoError(t, err)
	require.Len(t, own.Items, 1, "sin privilegio multi-sucursal solo ve su sucursal")
	assert.Equal(t, branch2, own.Items[0].BranchID)

	_, err = f.adjustments.List(ctx, vendedorB2, dto.AdjustmentListQuery{Branch: branch1})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	bySku, err := f.adjustments.List(ctx, admin, dto.AdjustmentListQuery{Search: "caf-5"})
	require.NoError(t, err)
	require.Len(t, bySku.Items, 1)
	assert.Equal(t, productP, bySku.Items[0].Items[0].ProductID)

	byProduct, err := f.adjustments.List(ctx, admin, dto.AdjustmentListQuery{Product: productQ})
	require.NoError(t, err)
	assert.Len(t, byProduct.Items, 1)

	_, err = f.adjustments.List(ctx, admin, dto.AdjustmentListQuery{PageRequest: dto.PageRequest{SortBy: "precio"}, StartDate: "ayer"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
}

func TestListAdjustments_BusquedaPorNombreActualDelProducto(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.adjustments.Create(ctx, admin, ajusteDe(branch1, dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(3)}))
	require.NoError(t, err)
	f.store.AddProduct(entity.Product{
		ID: productP, CompanyID: companyID, SKU: "CAF-500", Name: "Café tostado premium", UnitMeasure: "und",
	})

	byCurrent, err := f.adjustments.List(ctx, admin, dto.AdjustmentListQuery{Search: "tostado"})
	require.NoError(t, err)
	require.Len(t, byCurrent.Items, 1, "coincide con el nombre actual del producto")
	assert.Equal(t, "Café molido 500g", byCurrent.Items[0].Items[0].ProductName, "la foto no cambia")

	bySnapshot, err := f.adjustments.List(ctx, admin, dto.AdjustmentListQuery{Search: "molido"})
	require.NoError(t, err)
	assert.Len(t, bySnapshot.Items, 1, "la foto del ítem sigue siendo buscable")
}

// lockingRunner registra qué pares se leyeron con bloqueo dentro de la transacción.
type lockingRunner struct {
	*memory.Store
	mu     sync.Mutex
	locked []string
}

type lockingStock struct {
	repository.StockRepository
	runner *lockingRunner
}

func (r *lockingRunner) RunAdjustment(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	adjustmentRepo repository.AdjustmentRepository,
) error) error {
	return r.Store.RunAdjustment(ctx, func(s repository.StockRepository, p repository.ProductRepository, a repository.AdjustmentRepository) error {
		return fn(&lockingStock{StockRepository: s, runner: r}, p, a)
	})
}

func (s *lockingStock) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	s.runner.mu.Lock()
	s.runner.locked = append(s.runner.locked, productID)
	s.runner.mu.Unlock()
	return s.StockRepository.GetForUpdate(ctx, productID, branchID)
}

func (s *lockingStock) Get(context.Context, string, string) (*entity.BranchStock, error) {
	return nil, errors.New("la cantidad actual debe leerse con bloqueo")
}

func TestCreateAdjustment_LeeCantidadActualConBloqueo(t *testing.T) {
	f := newFixture()
	f.store.SetStock(productP, branch1, 50)
	runner := &lockingRunner{Store: f.store}
	uc := inventory.NewAdjustmentUseCase(runner, f.store.Branches(), f.store.Adjustments(), access.NewRoleGuard(), f.numbers, nil, logger.Nop())

	res, err := uc.Create(context.Background(), admin, ajusteDe(branch1,
		dto.AdjustmentItemRequest{Product: productQ, AdjustedQuantity: intPtr(2)},
		dto.AdjustmentItemRequest{Product: productP, AdjustedQuantity: intPtr(45)},
	))

	require.NoError(t, err)
	assert.Equal(t, []string{productP, productQ}, runner.locked, "bloqueo en orden de producto")
	assert.Equal(t, 50, res.Items[1].CurrentQuantity)
	assert.Equal(t, -5, res.Items[1].Difference)
	assert.Equal(t, 45, f.store.Quantity(productP, branch1))
}

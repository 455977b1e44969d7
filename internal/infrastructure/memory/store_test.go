package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/inventario-movimientos/internal/infrastructure/memory"
)

const (
	productA = "11111111-1111-1111-1111-111111111111"
	branchA  = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

// ─── Transacciones ──────────────────────────────────────────────────────────

func TestRunAdjustment_ErrorRevierteCambios(t *testing.T) {
	store := memory.NewStore()
	store.SetStock(productA, branchA, 10)

	boom := errors.New("boom")
	err := store.RunAdjustment(context.Background(), func(s repository.StockRepository, _ repository.ProductRepository, a repository.AdjustmentRepository) error {
		_, err := s.ApplyDelta(context.Background(), productA, branchA, -4)
		require.NoError(t, err)
		require.NoError(t, a.Create(context.Background(), &entity.Adjustment{ID: "x", Number: "ADJ-B1-20240101-0001"}))
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 10, store.Quantity(productA, branchA), "el stock no debe cambiar si la tx falla")
	adj, _ := store.Adjustments().GetByID(context.Background(), "x")
	assert.Nil(t, adj, "el ajuste no debe persistir si la tx falla")
}

func TestRunAdjustment_ExitoPublicaCambios(t *testing.T) {
	store := memory.NewStore()

	err := store.RunAdjustment(context.Background(), func(s repository.StockRepository, _ repository.ProductRepository, _ repository.AdjustmentRepository) error {
		_, err := s.ApplyDelta(context.Background(), productA, branchA, 7)
		return err
	})

	require.NoError(t, err)
	stock, err := store.Stock().Get(context.Background(), productA, branchA)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, 7, stock.Quantity)
	assert.Equal(t, entity.DefaultMaxLevel, stock.MaxLevel, "registro nuevo con niveles por defecto")
}

// ─── Stock ──────────────────────────────────────────────────────────────────

func TestApplyDelta_NoPermiteNegativo(t *testing.T) {
	store := memory.NewStore()
	store.SetStock(productA, branchA, 3)

	_, err := store.Stock().ApplyDelta(context.Background(), productA, branchA, -5)

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 3, store.Quantity(productA, branchA))
}

func TestApplyDelta_NegativoSinRegistro(t *testing.T) {
	store := memory.NewStore()

	_, err := store.Stock().ApplyDelta(context.Background(), productA, branchA, -1)

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestGetForUpdate_CreaRegistroEnCero(t *testing.T) {
	store := memory.NewStore()

	err := store.RunAdjustment(context.Background(), func(s repository.StockRepository, _ repository.ProductRepository, _ repository.AdjustmentRepository) error {
		stock, err := s.GetForUpdate(context.Background(), productA, branchA)
		require.NoError(t, err)
		assert.Equal(t, 0, stock.Quantity)
		assert.Equal(t, entity.DefaultMinLevel, stock.MinLevel)
		return nil
	})

	require.NoError(t, err)
	stock, err := store.Stock().Get(context.Background(), productA, branchA)
	require.NoError(t, err)
	require.NotNil(t, stock, "el registro queda creado al confirmar")
	assert.Equal(t, 0, stock.Quantity)
}

// ─── Documentos ─────────────────────────────────────────────────────────────

func TestAdjustmentCreate_NumeroDuplicado(t *testing.T) {
	store := memory.NewStore()
	repo := store.Adjustments()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Adjustment{ID: "1", Number: "ADJ-B1-20240101-0001"}))
	err := repo.Create(ctx, &entity.Adjustment{ID: "2", Number: "ADJ-B1-20240101-0001"})

	require.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLastNumber_SoloDelPrefijo(t *testing.T) {
	store := memory.NewStore()
	repo := store.Adjustments()
	ctx := context.Background()
	for i, n := range []string{"ADJ-B1-20240101-0002", "ADJ-B1-20240101-0010", "ADJ-B2-20240101-0099"} {
		require.NoError(t, repo.Create(ctx, &entity.Adjustment{ID: string(rune('a' + i)), Number: n}))
	}

	last, err := repo.LastNumber(ctx, "ADJ-B1-20240101")

	require.NoError(t, err)
	assert.Equal(t, "ADJ-B1-20240101-0010", last)
}

func TestTransferList_BusquedaYAlcance(t *testing.T) {
	store := memory.NewStore()
	repo := store.Transfers()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	transfers := []*entity.Transfer{
		{ID: "t1", Number: "TXF-B1B2-202403-0001", CompanyID: "c", FromBranchID: "b1", ToBranchID: "b2",
			Items: []entity.TransferItem{{ProductID: productA, ProductName: "Café Molido", SKU: "CAF-01"}}, CreatedAt: base},
		{ID: "t2", Number: "TXF-B2B3-202403-0001", CompanyID: "c", FromBranchID: "b2", ToBranchID: "b3",
			Notes: "urgente", CreatedAt: base.Add(time.Hour)},
		{ID: "t3", Number: "TXF-B3B4-202403-0001", CompanyID: "c", FromBranchID: "b3", ToBranchID: "b4", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, tr := range transfers {
		require.NoError(t, repo.Create(ctx, tr))
	}

	list, total, err := repo.List(ctx, repository.TransferFilter{CompanyID: "c", Search: "café", SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "t1", list[0].ID, "la búsqueda incluye el nombre del producto sin distinguir mayúsculas")

	list, total, err = repo.List(ctx, repository.TransferFilter{CompanyID: "c", ScopeBranchID: "b2", SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"t2", "t1"}, []string{list[0].ID, list[1].ID}, "orden por creación descendente")

	list, total, err = repo.List(ctx, repository.TransferFilter{CompanyID: "c", Limit: 1, Offset: 1, SortDesc: false})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "el total ignora la paginación")
	require.Len(t, list, 1)
	assert.Equal(t, "t2", list[0].ID)
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-movimientos/internal/application/access"
	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-movimientos/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/inventario-movimientos/internal/interfaces/http"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
	pkgjwt "github.com/jhoicas/inventario-movimientos/pkg/jwt"
	"github.com/jhoicas/inventario-movimientos/pkg/redis"
)

const (
	apiCompany = "c0000000-0000-0000-0000-000000000001"
	apiBranch1 = "b1000000-0000-0000-0000-000000000001"
	apiBranch2 = "b2000000-0000-0000-0000-000000000002"
	apiProduct = "a1000000-0000-0000-0000-000000000001"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T, idem redis.IdempotencyStore) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	store.AddBranch(entity.Branch{ID: apiBranch1, CompanyID: apiCompany, Code: "B1", Name: "Centro"})
	store.AddBranch(entity.Branch{ID: apiBranch2, CompanyID: apiCompany, Code: "B2", Name: "Norte"})
	store.AddProduct(entity.Product{
		ID: apiProduct, CompanyID: apiCompany, SKU: "CAF-500", Name: "Café molido 500g", UnitMeasure: "und", Cost: decimal.NewFromInt(12000),
	})
	store.SetStock(apiProduct, apiBranch1, 10)

	log := logger.Nop()
	guard := access.NewRoleGuard()
	numbers := inventory.NewNumberGenerator(inventory.DefaultNumberMaxAttempts, nil)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AdjustmentUC:   inventory.NewAdjustmentUseCase(store, store.Branches(), store.Adjustments(), guard, numbers, nil, log),
		TransferUC:     inventory.NewTransferUseCase(store, store.Branches(), store.Transfers(), guard, numbers, pdf.NewDispatchNoteGenerator(), nil, log),
		StockUC:        inventory.NewStockUseCase(store.Stock(), store.Branches(), guard),
		JWTSecret:      testJWTSecret,
		Idempotency:    idem,
		IdempotencyTTL: time.Hour,
		Logger:         log,
	})
	return &apiFixture{app: app, store: store}
}

func bearer(t *testing.T, role, branchID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, "user-"+role, apiCompany, branchID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *apiFixture) call(t *testing.T, method, path, auth string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func adjustmentBody(qty int) map[string]any {
	return map[string]any{
		"branch": apiBranch1,
		"items":  []map[string]any{{"product": apiProduct, "adjustedQuantity": qty}},
		"type":   "decrease",
		"reason": "damage",
	}
}

func TestAPI_CrearAjuste(t *testing.T) {
	f := newAPI(t, nil)

	resp, body := f.call(t, http.MethodPost, "/api/adjustments", bearer(t, "bodeguero", apiBranch1), adjustmentBody(7))

	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.AdjustmentResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, strings.HasPrefix(out.Number, "ADJ-B1-"))
	assert.Equal(t, -3, out.Items[0].Difference)
	assert.Equal(t, 7, f.store.Quantity(apiProduct, apiBranch1))

	resp, body = f.call(t, http.MethodGet, "/api/adjustments/"+out.ID, bearer(t, "admin", ""), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestAPI_CrearAjuste_ValidacionListaTodosLosCampos(t *testing.T) {
	f := newAPI(t, nil)

	resp, body := f.call(t, http.MethodPost, "/api/adjustments", bearer(t, "admin", ""), map[string]any{
		"branch": "no-uuid",
		"type":   "otro",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "VALIDATION_ERROR", out.Code)
	fields := make([]string, 0, len(out.Details))
	for _, d := range out.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"branch", "items", "type", "reason"}, fields)
}

func TestAPI_CuerpoMalformado(t *testing.T) {
	f := newAPI(t, nil)

	resp, body := f.call(t, http.MethodPost, "/api/transfers", bearer(t, "admin", ""), "{no es json")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_BODY")
}

func TestAPI_VendedorNoPuedeAjustar(t *testing.T) {
	f := newAPI(t, nil)

	resp, _ := f.call(t, http.MethodPost, "/api/adjustments", bearer(t, "vendedor", apiBranch1), adjustmentBody(7))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 10, f.store.Quantity(apiProduct, apiBranch1))
}

func TestAPI_BodegueroDeOtraSucursal(t *testing.T) {
	f := newAPI(t, nil)

	resp, body := f.call(t, http.MethodPost, "/api/adjustments", bearer(t, "bodeguero", apiBranch2), adjustmentBody(7))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestAPI_FlujoDeTraslado(t *testing.T) {
	f := newAPI(t, nil)
	admin := bearer(t, "admin", "")

	resp, body := f.call(t, http.MethodPost, "/api/transfers", admin, map[string]any{
		"fromBranch": apiBranch1,
		"toBranch":   apiBranch2,
		"items":      []map[string]any{{"product": apiProduct, "quantity": 4}},
		"reason":     "restock",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created dto.TransferResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, entity.TransferStatusPending, created.Status)
	assert.True(t, strings.HasPrefix(created.Number, "TXF-B1B2-"))

	statusPath := "/api/transfers/" + created.ID + "/status"
	resp, body = f.call(t, http.MethodPatch, statusPath, bearer(t, "bodeguero", apiBranch1), map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 6, f.store.Quantity(apiProduct, apiBranch1))

	resp, body = f.call(t, http.MethodPatch, statusPath, bearer(t, "bodeguero", apiBranch2), map[string]any{"status": "received"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 4, f.store.Quantity(apiProduct, apiBranch2))

	resp, body = f.call(t, http.MethodPatch, statusPath, admin, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_TRANSITION")

	resp, body = f.call(t, http.MethodGet, "/api/transfers/"+created.ID+"/dispatch-note", bearer(t, "vendedor", apiBranch2), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, body = f.call(t, http.MethodGet, "/api/transfers?status=received", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list dto.TransferListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Page.Total)
}

func TestAPI_TrasladoConStockInsuficiente(t *testing.T) {
	f := newAPI(t, nil)

	resp, body := f.call(t, http.MethodPost, "/api/transfers", bearer(t, "admin", ""), map[string]any{
		"fromBranch": apiBranch1,
		"toBranch":   apiBranch2,
		"items":      []map[string]any{{"product": apiProduct, "quantity": 11}},
		"reason":     "demand",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "items[0]")
}

func TestAPI_TrasladoInexistente(t *testing.T) {
	f := newAPI(t, nil)

	resp, _ := f.call(t, http.MethodGet, "/api/transfers/ffffffff-ffff-ffff-ffff-ffffffffffff", bearer(t, "admin", ""), nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ConsultarStock(t *testing.T) {
	f := newAPI(t, nil)

	resp, body := f.call(t, http.MethodGet, "/api/branches/"+apiBranch1+"/stock/"+apiProduct, bearer(t, "vendedor", apiBranch1), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.BranchStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 10, out.Quantity)

	resp, _ = f.call(t, http.MethodGet, "/api/branches/"+apiBranch1+"/stock/"+apiProduct, bearer(t, "vendedor", apiBranch2), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_ListadoConOrdenInvalido(t *testing.T) {
	f := newAPI(t, nil)

	resp, body := f.call(t, http.MethodGet, "/api/adjustments?sortOrder=arriba&limit=500", bearer(t, "admin", ""), nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Details, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia
// ──────────────────────────────────────────────────────────────────────────────

type memoryIdempotency struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{values: map[string]string{}}
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string { return scope + "|" + id }

func TestAPI_IdempotenciaReproduceRespuesta(t *testing.T) {
	f := newAPI(t, newMemoryIdempotency())
	auth := bearer(t, "admin", "")

	first, firstBody := f.call(t, http.MethodPost, "/api/adjustments", auth, adjustmentBody(7), apphttp.HeaderIdempotencyKey, "k-1")
	second, secondBody := f.call(t, http.MethodPost, "/api/adjustments", auth, adjustmentBody(7), apphttp.HeaderIdempotencyKey, "k-1")

	require.Equal(t, http.StatusCreated, first.StatusCode, string(firstBody))
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(firstBody), string(secondBody))
	assert.Equal(t, 7, f.store.Quantity(apiProduct, apiBranch1))

	resp, body := f.call(t, http.MethodPost, "/api/adjustments", auth, adjustmentBody(5), apphttp.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "IDEMPOTENCY_KEY_REUSED")
}

func TestAPI_IdempotenciaEnCurso(t *testing.T) {
	idem := newMemoryIdempotency()
	f := newAPI(t, idem)
	auth := bearer(t, "admin", "")

	raw, err := json.Marshal(adjustmentBody(7))
	require.NoError(t, err)
	// Simula la primera petición aún en curso: marcador pending con el mismo hash.
	first, body := f.call(t, http.MethodPost, "/api/adjustments", auth, string(raw), apphttp.HeaderIdempotencyKey, "k-2")
	require.Equal(t, http.StatusCreated, first.StatusCode, string(body))
	for k, v := range idem.values {
		idem.values[k] = strings.Replace(v, `"state":"done"`, `"state":"pending"`, 1)
	}

	resp, body := f.call(t, http.MethodPost, "/api/adjustments", auth, string(raw), apphttp.HeaderIdempotencyKey, "k-2")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "IDEMPOTENCY_IN_PROGRESS")
}

func TestAPI_IdempotenciaGuardaErroresDeCliente(t *testing.T) {
	idem := newMemoryIdempotency()
	f := newAPI(t, idem)
	auth := bearer(t, "admin", "")
	body := adjustmentBody(7)
	body["branch"] = "ffffffff-ffff-ffff-ffff-ffffffffffff"

	resp, _ := f.call(t, http.MethodPost, "/api/adjustments", auth, body, apphttp.HeaderIdempotencyKey, "k-3")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	// 4xx también queda guardado: el reintento devuelve la misma respuesta.
	assert.Len(t, idem.values, 1)
}

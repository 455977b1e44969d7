package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

// AdjustmentHandler maneja los ajustes de inventario (protegido).
type AdjustmentHandler struct {
	uc  *inventory.AdjustmentUseCase
	log *logger.Logger
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(uc *inventory.AdjustmentUseCase, log *logger.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear ajuste de inventario
// @Description  Aplica las cantidades ajustadas al stock de la sucursal y registra el ajuste con número ADJ.
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                        false  "Clave para reintentos seguros"
// @Param        body             body    dto.CreateAdjustmentRequest  true   "branch, items, type, reason, notes"
// @Success      201  {object}  dto.AdjustmentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateAdjustmentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.Context(), actor, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar ajustes
// @Description  Usuarios sin acceso global solo ven los ajustes de su sucursal.
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        page        query  int     false  "Página (desde 1)"
// @Param        limit       query  int     false  "Tamaño de página (máx 100)"
// @Param        branch      query  string  false  "Sucursal (UUID)"
// @Param        product     query  string  false  "Producto (UUID)"
// @Param        type        query  string  false  "increase | decrease | correction"
// @Param        reason      query  string  false  "damage | theft | expiry | found | count_error | other"
// @Param        adjustedBy  query  string  false  "Usuario creador"
// @Param        startDate   query  string  false  "YYYY-MM-DD"
// @Param        endDate     query  string  false  "YYYY-MM-DD"
// @Param        search      query  string  false  "Número, motivo, notas, producto o SKU"
// @Param        sortBy      query  string  false  "createdAt | number | type | reason"
// @Param        sortOrder   query  string  false  "asc | desc"
// @Success      200  {object}  dto.AdjustmentListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	var q dto.AdjustmentListQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	out, err := h.uc.List(c.Context(), actor, q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ajuste por ID
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.GetByID(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

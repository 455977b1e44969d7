package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

// TransferHandler maneja los traslados entre sucursales (protegido).
type TransferHandler struct {
	uc  *inventory.TransferUseCase
	log *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear traslado
// @Description  Registra el traslado en estado pending. El stock no se mueve hasta el despacho.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                      false  "Clave para reintentos seguros"
// @Param        body             body    dto.CreateTransferRequest  true   "fromBranch, toBranch, items, reason"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.Context(), actor, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado del traslado
// @Description  pending → shipped | cancelled; shipped → received | cancelled. Cada transición mueve el stock correspondiente.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                           true  "ID del traslado"
// @Param        body  body  dto.UpdateTransferStatusRequest  true  "status, notes, receivedItems"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/status [patch]
func (h *TransferHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.UpdateTransferStatusRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdateStatus(c.Context(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar traslados
// @Description  Usuarios sin acceso global ven los traslados con origen o destino en su sucursal.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        page        query  int     false  "Página (desde 1)"
// @Param        limit       query  int     false  "Tamaño de página (máx 100)"
// @Param        fromBranch  query  string  false  "Sucursal origen (UUID)"
// @Param        toBranch    query  string  false  "Sucursal destino (UUID)"
// @Param        status      query  string  false  "pending | shipped | received | cancelled"
// @Param        startDate   query  string  false  "YYYY-MM-DD"
// @Param        endDate     query  string  false  "YYYY-MM-DD"
// @Param        search      query  string  false  "Número, notas, producto o SKU"
// @Param        sortBy      query  string  false  "createdAt | number | status | expectedDeliveryDate"
// @Param        sortOrder   query  string  false  "asc | desc"
// @Success      200  {object}  dto.TransferListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	var q dto.TransferListQuery
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
// @Summary      Obtener traslado por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
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

// DispatchNote godoc
// @Summary      Descargar remisión del traslado (PDF)
// @Tags         transfers
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/dispatch-note [get]
func (h *TransferHandler) DispatchNote(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	pdf, number, err := h.uc.DispatchNote(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+number+`.pdf"`)
	return c.Send(pdf)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

// StockHandler expone la lectura del libro de stock por sucursal.
type StockHandler struct {
	uc  *inventory.StockUseCase
	log *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{uc: uc, log: log}
}

// Get godoc
// @Summary      Stock de un producto en una sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branchId   path  string  true  "Sucursal (UUID)"
// @Param        productId  path  string  true  "Producto (UUID)"
// @Success      200  {object}  dto.BranchStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/stock/{productId} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.Context(), actor, c.Params("branchId"), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

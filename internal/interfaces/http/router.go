package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
	"github.com/jhoicas/inventario-movimientos/pkg/redis"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AdjustmentUC   *inventory.AdjustmentUseCase
	TransferUC     *inventory.TransferUseCase
	StockUC        *inventory.StockUseCase
	JWTSecret      string
	Idempotency    redis.IdempotencyStore // nil = sin caché de idempotencia
	IdempotencyTTL time.Duration
	Logger         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	idempotent := Idempotency(deps.Idempotency, deps.IdempotencyTTL, log)

	// Ajustes
	adjustments := protected.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.AdjustmentUC, log)
	adjustments.Post("/", writers, idempotent, adjustmentHandler.Create)
	adjustments.Get("/", adjustmentHandler.List)
	adjustments.Get("/:id", adjustmentHandler.GetByID)

	// Traslados
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC, log)
	transfers.Post("/", writers, idempotent, transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Get("/:id/dispatch-note", transferHandler.DispatchNote)
	transfers.Patch("/:id/status", writers, transferHandler.UpdateStatus)

	// Stock por sucursal (solo lectura)
	stockHandler := NewStockHandler(deps.StockUC, log)
	protected.Get("/branches/:branchId/stock/:productId", stockHandler.Get)
}

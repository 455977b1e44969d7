package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-movimientos/internal/application/access"
	"github.com/jhoicas/inventario-movimientos/internal/application/inventory"
	infrapdf "github.com/jhoicas/inventario-movimientos/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-movimientos/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-movimientos/internal/interfaces/http"
	"github.com/jhoicas/inventario-movimientos/pkg/config"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
	"github.com/jhoicas/inventario-movimientos/pkg/metrics"
	"github.com/jhoicas/inventario-movimientos/pkg/migrate"
	"github.com/jhoicas/inventario-movimientos/pkg/redis"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := migrate.Up(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	// Métricas: registro propio para no mezclar con el global de librerías
	registry := prometheus.NewRegistry()
	var movementMetrics *metrics.MovementMetrics
	if cfg.Metrics.Enabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		movementMetrics = metrics.NewMovementMetrics(registry)
	} else {
		movementMetrics = metrics.NewMovementMetrics(nil)
	}

	// Redis es opcional: sin él la API funciona sin caché de idempotencia.
	var idempotency redis.IdempotencyStore
	if cfg.Redis.URL != "" {
		client, err := redis.New(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, idempotencia deshabilitada")
		} else {
			defer client.Close()
			idempotency = client
		}
	}

	txRunner := postgres.NewTxRunner(pool, cfg.DB.TxTimeout())
	branchRepo := postgres.NewBranchRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	adjustmentRepo := postgres.NewAdjustmentRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)

	guard := access.NewRoleGuard()
	numbers := inventory.NewNumberGenerator(cfg.Inventory.NumberMaxAttempts, movementMetrics)
	adjustmentUC := inventory.NewAdjustmentUseCase(txRunner, branchRepo, adjustmentRepo, guard, numbers, movementMetrics, log)
	transferUC := inventory.NewTransferUseCase(
		txRunner, branchRepo, transferRepo, guard, numbers,
		infrapdf.NewDispatchNoteGenerator(), movementMetrics, log,
	)
	stockUC := inventory.NewStockUseCase(stockRepo, branchRepo, guard)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI: http://localhost:<port>/docs (solo si se generó docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventario Movimientos API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AdjustmentUC:   adjustmentUC,
		TransferUC:     transferUC,
		StockUC:        stockUC,
		JWTSecret:      cfg.JWT.Secret,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL(),
		Logger:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/application/adjustment"
	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/application/reconciliation"
	"github.com/vendhub/stock-ledger/internal/application/reservation"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
	"github.com/vendhub/stock-ledger/internal/infrastructure/memory"
	"github.com/vendhub/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/vendhub/stock-ledger/internal/interfaces/http"
	"github.com/vendhub/stock-ledger/pkg/config"
	"github.com/vendhub/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner     ledger.TxRunner
		positions    repository.PositionRepository
		batches      repository.BatchRepository
		movements    repository.MovementRepository
		reservations repository.ReservationRepository
		adjustments  repository.AdjustmentRepository
		recon        repository.ReconciliationRepository
		salesFeed    reconciliation.SalesFeed
	)

	switch cfg.DB.Driver {
	case "memory":
		// Modo dev/demo: todo en memoria, sin PostgreSQL.
		store := memory.NewStore()
		txRunner = memory.NewTxRunner(store)
		positions = memory.NewPositionRepository(store)
		batches = memory.NewBatchRepository(store)
		movements = memory.NewMovementRepository(store)
		reservations = memory.NewReservationRepository(store)
		adjustments = memory.NewAdjustmentRepository(store)
		recon = memory.NewReconciliationRepository(store)
		salesFeed = memory.NewSalesFeed()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool)
		positions = postgres.NewPositionRepository(pool)
		batches = postgres.NewBatchRepository(pool)
		movements = postgres.NewMovementRepository(pool)
		reservations = postgres.NewReservationRepository(pool)
		adjustments = postgres.NewAdjustmentRepository(pool)
		recon = postgres.NewReconciliationRepository(pool)
		salesFeed = postgres.NewSalesFeed(pool)
	}

	ledgerUC := ledger.NewMovementUseCase(txRunner, positions, batches, movements)
	reservationUC := reservation.NewUseCase(txRunner, ledgerUC, reservations, cfg.Ledger.AutoConfirmReservations, log)
	adjustmentUC := adjustment.NewUseCase(txRunner, ledgerUC, adjustments)
	reconciliationUC := reconciliation.NewUseCase(txRunner, recon, salesFeed, reconciliation.Config{
		Tolerance:      cfg.Ledger.ReconciliationTolerance,
		ScoreThreshold: decimal.NewFromFloat(cfg.Ledger.ReconciliationScoreThreshold),
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "VendHub Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:         ledgerUC,
		ReservationUC:    reservationUC,
		AdjustmentUC:     adjustmentUC,
		ReconciliationUC: reconciliationUC,
		ExpiryHorizon:    cfg.Ledger.ExpiryHorizon,
		JWTSecret:        cfg.JWT.Secret,
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

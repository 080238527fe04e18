package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vendhub/stock-ledger/internal/application/adjustment"
	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/application/reconciliation"
	"github.com/vendhub/stock-ledger/internal/application/reservation"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC         *ledger.MovementUseCase
	ReservationUC    *reservation.UseCase
	AdjustmentUC     *adjustment.UseCase
	ReconciliationUC *reconciliation.UseCase
	ExpiryHorizon    time.Duration
	JWTSecret        string
}

// Router registra las rutas de la API. Todas las rutas del libro van detrás
// del middleware de auth: cada mutación queda atribuida a un operador.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Libro de stock (protegido)
	ledgerGroup := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.LedgerUC, deps.ExpiryHorizon)
	ledgerGroup.Post("/movements", ledgerHandler.ApplyMovement)
	ledgerGroup.Get("/movements", ledgerHandler.ListMovements)
	ledgerGroup.Get("/positions", ledgerHandler.GetPosition)
	ledgerGroup.Get("/positions/by-level", ledgerHandler.ListPositions)
	ledgerGroup.Get("/positions/consistency", ledgerHandler.CheckConsistency)
	ledgerGroup.Patch("/batches/:id/quarantine", ledgerHandler.SetQuarantine)
	ledgerGroup.Get("/batches/expiring", ledgerHandler.ListExpiringBatches)

	// Reservas (protegido)
	reservations := protected.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Post("/expire-due", reservationHandler.ExpireDue)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Post("/:id/confirm", reservationHandler.Confirm)
	reservations.Post("/:id/fulfill", reservationHandler.Fulfill)
	reservations.Post("/:id/cancel", reservationHandler.Cancel)

	// Ajustes (protegido)
	adjustments := protected.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.AdjustmentUC)
	adjustments.Post("/", adjustmentHandler.Create)
	adjustments.Get("/", adjustmentHandler.List)
	adjustments.Get("/:id", adjustmentHandler.GetByID)
	adjustments.Post("/:id/approve", adjustmentHandler.Approve)
	adjustments.Post("/:id/reject", adjustmentHandler.Reject)
	adjustments.Post("/:id/cancel", adjustmentHandler.Cancel)
	adjustments.Post("/:id/apply", adjustmentHandler.Apply)

	// Conciliación de ventas (protegido)
	recon := protected.Group("/reconciliation")
	reconHandler := NewReconciliationHandler(deps.ReconciliationUC)
	recon.Post("/runs", reconHandler.Run)
	recon.Get("/runs", reconHandler.ListRuns)
	recon.Get("/runs/:id", reconHandler.GetRun)
	recon.Get("/runs/:id/mismatches", reconHandler.ListMismatches)
	recon.Post("/mismatches/:id/resolve", reconHandler.ResolveMismatch)
}

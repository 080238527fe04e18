package ledger

import (
	"context"

	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de stock:
// o se escriben posición, lotes y asiento, o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		positions repository.PositionRepository,
		batches repository.BatchRepository,
		movements repository.MovementRepository,
	) error) error

	// RunWorkflow abre una transacción con los repos de workflow además de los
	// del libro (reservas y ajustes mutan el libro en la misma tx).
	RunWorkflow(ctx context.Context, fn func(
		positions repository.PositionRepository,
		batches repository.BatchRepository,
		movements repository.MovementRepository,
		reservations repository.ReservationRepository,
		adjustments repository.AdjustmentRepository,
	) error) error

	// RunReconciliation abre una transacción para una corrida: lectura del
	// libro y escritura de corrida + discrepancias de forma atómica.
	RunReconciliation(ctx context.Context, fn func(
		movements repository.MovementRepository,
		recon repository.ReconciliationRepository,
	) error) error
}

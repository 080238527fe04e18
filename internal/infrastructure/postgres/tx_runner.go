package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

// Ensure TxRunner implements ledger.TxRunner.
var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Los locks
// de fila (SELECT FOR UPDATE) viven lo que dura la transacción, así dos
// movimientos concurrentes sobre la misma posición se serializan.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción con los repos del libro y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewPositionRepository(tx), NewBatchRepository(tx), NewMovementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunWorkflow inicia una transacción con repos del libro más los de workflow
// (reservas y ajustes mutan el libro en la misma tx).
func (r *TxRunner) RunWorkflow(ctx context.Context, fn func(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
	adjustments repository.AdjustmentRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = fn(
		NewPositionRepository(tx),
		NewBatchRepository(tx),
		NewMovementRepository(tx),
		NewReservationRepository(tx),
		NewAdjustmentRepository(tx),
	)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunReconciliation inicia una transacción para una corrida de conciliación:
// lectura del libro y escritura de corrida + discrepancias, atómicas.
func (r *TxRunner) RunReconciliation(ctx context.Context, fn func(
	movements repository.MovementRepository,
	recon repository.ReconciliationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewMovementRepository(tx), NewReconciliationRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

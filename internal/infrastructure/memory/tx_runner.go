package memory

import (
	"context"

	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta callbacks transaccionales contra el Store: toma el mutex
// global, saca un snapshot del estado y lo restaura si el callback falla.
// Con un solo mutex las transacciones quedan totalmente serializadas, que es
// un superconjunto de las garantías de los row locks de PostgreSQL.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye un ejecutor transaccional sobre el store dado.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

func (t *TxRunner) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func (t *TxRunner) Run(ctx context.Context, fn func(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
) error) error {
	return t.run(ctx, func() error {
		return fn(
			&PositionRepository{store: t.store, locked: true},
			&BatchRepository{store: t.store, locked: true},
			&MovementRepository{store: t.store, locked: true},
		)
	})
}

func (t *TxRunner) RunWorkflow(ctx context.Context, fn func(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
	adjustments repository.AdjustmentRepository,
) error) error {
	return t.run(ctx, func() error {
		return fn(
			&PositionRepository{store: t.store, locked: true},
			&BatchRepository{store: t.store, locked: true},
			&MovementRepository{store: t.store, locked: true},
			&ReservationRepository{store: t.store, locked: true},
			&AdjustmentRepository{store: t.store, locked: true},
		)
	})
}

func (t *TxRunner) RunReconciliation(ctx context.Context, fn func(
	movements repository.MovementRepository,
	recon repository.ReconciliationRepository,
) error) error {
	return t.run(ctx, func() error {
		return fn(
			&MovementRepository{store: t.store, locked: true},
			&ReconciliationRepository{store: t.store, locked: true},
		)
	})
}

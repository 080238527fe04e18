package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

// GetPosition devuelve la posición de un producto en un nivel.
func (uc *MovementUseCase) GetPosition(ctx context.Context, productID string, level entity.Level) (*entity.StockPosition, error) {
	return uc.positions.Get(productID, level)
}

// ListPositions lista todas las posiciones de un nivel (inventario en mano).
func (uc *MovementUseCase) ListPositions(ctx context.Context, level entity.Level) ([]*entity.StockPosition, error) {
	if !level.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return uc.positions.ListByLevel(level)
}

// ListMovements lista el historial de movimientos de una posición.
func (uc *MovementUseCase) ListMovements(ctx context.Context, productID string, level entity.Level, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return uc.movements.ListByPosition(productID, level, from, to, limit, offset)
}

// ConsistencyReport resultado del chequeo de consistencia de una posición.
type ConsistencyReport struct {
	ProductID         string
	Level             entity.Level
	CurrentQuantity   decimal.Decimal
	BootstrapQuantity decimal.Decimal
	LedgerSum         decimal.Decimal
	Consistent        bool
}

// CheckConsistency recalcula la suma con signo de los movimientos completados
// de una posición y la compara con el saldo almacenado (detección de deriva
// del libro). Corre dentro de una transacción para leer un snapshot coherente.
func (uc *MovementUseCase) CheckConsistency(ctx context.Context, productID string, level entity.Level) (*ConsistencyReport, error) {
	var report *ConsistencyReport
	err := uc.txRunner.Run(ctx, func(
		positions repository.PositionRepository,
		batches repository.BatchRepository,
		movements repository.MovementRepository,
	) error {
		pos, err := positions.Get(productID, level)
		if err != nil {
			return err
		}
		sum, err := movements.SumSignedForPosition(productID, level)
		if err != nil {
			return err
		}
		report = &ConsistencyReport{
			ProductID:         productID,
			Level:             level,
			CurrentQuantity:   pos.CurrentQuantity,
			BootstrapQuantity: pos.BootstrapQuantity,
			LedgerSum:         sum,
			Consistent:        pos.CurrentQuantity.Equal(pos.BootstrapQuantity.Add(sum)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// SetBatchQuarantine marca o libera la cuarentena de un lote. Un lote en
// cuarentena deja de ser elegible para el asignador, sin salir del saldo.
func (uc *MovementUseCase) SetBatchQuarantine(ctx context.Context, batchID string, quarantined bool) (*entity.InventoryBatch, error) {
	var batch *entity.InventoryBatch
	err := uc.txRunner.Run(ctx, func(
		positions repository.PositionRepository,
		batches repository.BatchRepository,
		movements repository.MovementRepository,
	) error {
		b, err := batches.GetByIDForUpdate(batchID)
		if err != nil {
			return err
		}
		b.IsQuarantined = quarantined
		b.UpdatedAt = time.Now()
		if err := batches.Update(b); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ListExpiringBatches lista lotes activos que vencen dentro del horizonte.
// Alimenta las decisiones de cuarentena y retiro preventivo.
func (uc *MovementUseCase) ListExpiringBatches(ctx context.Context, level *entity.Level, horizon time.Duration) ([]*entity.InventoryBatch, error) {
	return uc.batches.ListExpiring(level, time.Now().Add(horizon))
}

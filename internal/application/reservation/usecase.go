package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/inventory"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
	"github.com/vendhub/stock-ledger/pkg/logger"
)

// UseCase gestiona reservas de stock: crear, confirmar, cumplir parcialmente,
// cancelar y expirar. Las reservas comprometen disponible, nunca tocan
// CurrentQuantity directamente; la salida real ocurre en Fulfill vía el
// registrador de movimientos (shipment etiquetado con la reserva).
type UseCase struct {
	txRunner     ledger.TxRunner
	movementUC   *ledger.MovementUseCase
	reservations repository.ReservationRepository
	autoConfirm  bool
	log          *logger.Logger
}

// NewUseCase construye el gestor. autoConfirm crea las reservas ya confirmadas
// cuando no se modela paso de aprobación en esta capa (bandera de política).
func NewUseCase(
	txRunner ledger.TxRunner,
	movementUC *ledger.MovementUseCase,
	reservations repository.ReservationRepository,
	autoConfirm bool,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		movementUC:   movementUC,
		reservations: reservations,
		autoConfirm:  autoConfirm,
		log:          log,
	}
}

// ReserveInput entrada para crear una reserva.
type ReserveInput struct {
	ProductID   string
	Level       entity.Level
	Quantity    decimal.Decimal
	ReservedFor string
	ExpiresAt   *time.Time
}

// Reserve compromete stock contra el disponible de la posición (no contra el
// en-mano: las reservas se apilan). Falla con ErrInsufficientAvailable si el
// disponible no alcanza y con ErrNotFound si la posición nunca existió.
func (uc *UseCase) Reserve(ctx context.Context, input ReserveInput) (*entity.StockReservation, error) {
	if input.ProductID == "" || !input.Level.Valid() || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var res *entity.StockReservation
	err := uc.txRunner.RunWorkflow(ctx, func(
		positions repository.PositionRepository,
		_ repository.BatchRepository,
		_ repository.MovementRepository,
		reservations repository.ReservationRepository,
		_ repository.AdjustmentRepository,
	) error {
		pos, err := positions.GetForUpdate(input.ProductID, input.Level)
		if err != nil {
			return err
		}
		if pos.AvailableQuantity().LessThan(input.Quantity) {
			return domain.ErrInsufficientAvailable
		}
		pos.ReservedQuantity = pos.ReservedQuantity.Add(input.Quantity)
		pos.UpdatedAt = now
		if err := positions.Update(pos); err != nil {
			return err
		}
		status := entity.ReservationStatusPending
		if uc.autoConfirm {
			status = entity.ReservationStatusConfirmed
		}
		res = &entity.StockReservation{
			ID:                uuid.New().String(),
			ProductID:         input.ProductID,
			Level:             input.Level,
			QuantityReserved:  input.Quantity,
			QuantityFulfilled: decimal.Zero,
			Status:            status,
			ReservedFor:       input.ReservedFor,
			ExpiresAt:         input.ExpiresAt,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return reservations.Create(res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Confirm pasa una reserva de pending a confirmed.
func (uc *UseCase) Confirm(ctx context.Context, reservationID string) (*entity.StockReservation, error) {
	var res *entity.StockReservation
	err := uc.txRunner.RunWorkflow(ctx, func(
		_ repository.PositionRepository,
		_ repository.BatchRepository,
		_ repository.MovementRepository,
		reservations repository.ReservationRepository,
		_ repository.AdjustmentRepository,
	) error {
		r, err := reservations.GetByIDForUpdate(reservationID)
		if err != nil {
			return err
		}
		next, err := inventory.NextReservationStatus(r.Status, inventory.ReservationActionConfirm)
		if err != nil {
			return err
		}
		r.Status = next
		r.UpdatedAt = time.Now()
		if err := reservations.Update(r); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Fulfill cumple una reserva total o parcialmente: libera reservado y saca el
// stock del libro con un movimiento shipment en la misma transacción. La
// cantidad no puede superar lo pendiente de la reserva.
func (uc *UseCase) Fulfill(ctx context.Context, reservationID string, quantity decimal.Decimal, fulfilledBy string) (*entity.StockReservation, error) {
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var res *entity.StockReservation
	err := uc.txRunner.RunWorkflow(ctx, func(
		positions repository.PositionRepository,
		batches repository.BatchRepository,
		movements repository.MovementRepository,
		reservations repository.ReservationRepository,
		_ repository.AdjustmentRepository,
	) error {
		r, err := reservations.GetByIDForUpdate(reservationID)
		if err != nil {
			return err
		}
		if _, err := inventory.NextReservationStatus(r.Status, inventory.ReservationActionFulfill); err != nil {
			return err
		}
		if quantity.GreaterThan(r.Outstanding()) {
			return domain.ErrInvalidInput
		}

		pos, err := positions.GetForUpdate(r.ProductID, r.Level)
		if err != nil {
			return err
		}
		pos.ReservedQuantity = pos.ReservedQuantity.Sub(quantity)
		pos.UpdatedAt = now
		if err := positions.Update(pos); err != nil {
			return err
		}

		// La salida real del stock: shipment etiquetado con la reserva.
		_, err = uc.movementUC.ApplyInTx(positions, batches, movements, ledger.MovementInput{
			MovementType:  entity.MovementTypeShipment,
			ProductID:     r.ProductID,
			SourceLevel:   r.Level,
			Quantity:      quantity,
			MovementDate:  now,
			ReservationID: r.ID,
			CreatedBy:     fulfilledBy,
		}, now)
		if err != nil {
			return err
		}

		r.QuantityFulfilled = r.QuantityFulfilled.Add(quantity)
		if r.QuantityFulfilled.Equal(r.QuantityReserved) {
			r.Status = entity.ReservationStatusFulfilled
		} else {
			r.Status = entity.ReservationStatusPartiallyFulfilled
		}
		r.UpdatedAt = now
		if err := reservations.Update(r); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel cancela una reserva liberando lo pendiente. Cancelar una reserva ya
// terminal es un no-op, no un error (idempotente).
func (uc *UseCase) Cancel(ctx context.Context, reservationID string) (*entity.StockReservation, error) {
	return uc.release(ctx, reservationID, inventory.ReservationActionCancel, nil)
}

// ExpireDue barre reservas vencidas (expires_at < now) liberando lo pendiente
// y marcándolas expired. Idempotente y re-ejecutable: cada reserva se
// re-verifica bajo bloqueo antes de actuar, así un barrido repetido tras un
// fallo parcial no libera dos veces. Devuelve cuántas expiró.
func (uc *UseCase) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := uc.reservations.ListDue(now, 500)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, r := range due {
		if _, err := uc.release(ctx, r.ID, inventory.ReservationActionExpire, &now); err != nil {
			return expired, err
		}
		expired++
	}
	if expired > 0 {
		uc.log.Info().Int("expiradas", expired).Time("corte", now).Msg("barrido de reservas vencidas")
	}
	return expired, nil
}

// release implementa la liberación común de cancel/expire bajo bloqueo.
func (uc *UseCase) release(ctx context.Context, reservationID, action string, cutoff *time.Time) (*entity.StockReservation, error) {
	var res *entity.StockReservation
	err := uc.txRunner.RunWorkflow(ctx, func(
		positions repository.PositionRepository,
		_ repository.BatchRepository,
		_ repository.MovementRepository,
		reservations repository.ReservationRepository,
		_ repository.AdjustmentRepository,
	) error {
		r, err := reservations.GetByIDForUpdate(reservationID)
		if err != nil {
			return err
		}
		if r.Terminal() {
			res = r // no-op idempotente
			return nil
		}
		// Guardas del barrido: otra corrida pudo haberla expirado, o el
		// vencimiento pudo cambiar entre el listado y el bloqueo.
		if cutoff != nil && (r.ExpiresAt == nil || !r.ExpiresAt.Before(*cutoff)) {
			res = r
			return nil
		}
		next, err := inventory.NextReservationStatus(r.Status, action)
		if err != nil {
			return err
		}

		outstanding := r.Outstanding()
		if outstanding.GreaterThan(decimal.Zero) {
			pos, err := positions.GetForUpdate(r.ProductID, r.Level)
			if err != nil {
				return err
			}
			pos.ReservedQuantity = pos.ReservedQuantity.Sub(outstanding)
			pos.UpdatedAt = time.Now()
			if err := positions.Update(pos); err != nil {
				return err
			}
		}
		r.Status = next
		r.UpdatedAt = time.Now()
		if err := reservations.Update(r); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetByID devuelve una reserva.
func (uc *UseCase) GetByID(ctx context.Context, reservationID string) (*entity.StockReservation, error) {
	return uc.reservations.GetByID(reservationID)
}

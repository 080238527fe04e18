package adjustment

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
)

// UseCase implementa el workflow de ajustes manuales: toda corrección de saldo
// pasa por aprobación antes de tocar el libro, y la única mutación del libro
// ocurre en Apply, por el camino único del registrador de movimientos.
type UseCase struct {
	txRunner    ledger.TxRunner
	movementUC  *ledger.MovementUseCase
	adjustments repository.AdjustmentRepository
}

// NewUseCase construye el workflow.
func NewUseCase(
	txRunner ledger.TxRunner,
	movementUC *ledger.MovementUseCase,
	adjustments repository.AdjustmentRepository,
) *UseCase {
	return &UseCase{txRunner: txRunner, movementUC: movementUC, adjustments: adjustments}
}

// CreateInput entrada para solicitar un ajuste.
type CreateInput struct {
	ProductID        string
	Level            entity.Level
	OldQuantity      decimal.Decimal
	NewQuantity      decimal.Decimal
	Reason           string
	RequiresApproval bool
	ActualCountID    string
	RequestedBy      string
	Notes            string
}

// Create registra la solicitud de ajuste. Si no requiere aprobación pasa a
// approved de inmediato, pero nunca se auto-aplica: Apply sigue siendo un
// paso separado para que el libro tenga un único camino de mutación.
func (uc *UseCase) Create(ctx context.Context, input CreateInput) (*entity.InventoryAdjustment, error) {
	if input.ProductID == "" || !input.Level.Valid() || !entity.KnownAdjustmentReason(input.Reason) {
		return nil, domain.ErrInvalidInput
	}
	adjQty := input.NewQuantity.Sub(input.OldQuantity)
	if adjQty.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	adj := &entity.InventoryAdjustment{
		ID:                 uuid.New().String(),
		ProductID:          input.ProductID,
		Level:              input.Level,
		OldQuantity:        input.OldQuantity,
		NewQuantity:        input.NewQuantity,
		AdjustmentQuantity: adjQty,
		Reason:             input.Reason,
		Status:             entity.AdjustmentStatusPending,
		RequiresApproval:   input.RequiresApproval,
		ActualCountID:      input.ActualCountID,
		RequestedBy:        input.RequestedBy,
		Notes:              input.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if !input.RequiresApproval {
		adj.Status = entity.AdjustmentStatusApproved
		approvedAt := now
		adj.ApprovedAt = &approvedAt
	}
	if err := uc.adjustments.Create(adj); err != nil {
		return nil, err
	}
	return adj, nil
}

// Approve aprueba un ajuste pendiente registrando quién y cuándo.
func (uc *UseCase) Approve(ctx context.Context, adjustmentID, approver string) (*entity.InventoryAdjustment, error) {
	return uc.review(ctx, adjustmentID, approver, inventory.AdjustmentActionApprove)
}

// Reject rechaza un ajuste pendiente. Terminal: nunca toca el libro.
func (uc *UseCase) Reject(ctx context.Context, adjustmentID, approver string) (*entity.InventoryAdjustment, error) {
	return uc.review(ctx, adjustmentID, approver, inventory.AdjustmentActionReject)
}

func (uc *UseCase) review(ctx context.Context, adjustmentID, approver, action string) (*entity.InventoryAdjustment, error) {
	if approver == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var adj *entity.InventoryAdjustment
	err := uc.txRunner.RunWorkflow(ctx, func(
		_ repository.PositionRepository,
		_ repository.BatchRepository,
		_ repository.MovementRepository,
		_ repository.ReservationRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		a, err := adjustments.GetByIDForUpdate(adjustmentID)
		if err != nil {
			return err
		}
		next, err := inventory.NextAdjustmentStatus(a.Status, action)
		if err != nil {
			return err
		}
		a.Status = next
		a.ApprovedBy = approver
		a.ApprovedAt = &now
		a.UpdatedAt = now
		if err := adjustments.Update(a); err != nil {
			return err
		}
		adj = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// Cancel cancela un ajuste desde pending o approved.
func (uc *UseCase) Cancel(ctx context.Context, adjustmentID string) (*entity.InventoryAdjustment, error) {
	now := time.Now()
	var adj *entity.InventoryAdjustment
	err := uc.txRunner.RunWorkflow(ctx, func(
		_ repository.PositionRepository,
		_ repository.BatchRepository,
		_ repository.MovementRepository,
		_ repository.ReservationRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		a, err := adjustments.GetByIDForUpdate(adjustmentID)
		if err != nil {
			return err
		}
		next, err := inventory.NextAdjustmentStatus(a.Status, inventory.AdjustmentActionCancel)
		if err != nil {
			return err
		}
		a.Status = next
		a.UpdatedAt = now
		if err := adjustments.Update(a); err != nil {
			return err
		}
		adj = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// Apply aplica un ajuste aprobado al libro: un movimiento adjustment con la
// cantidad con signo, en la misma transacción que el cambio de estado.
// La guarda de idempotencia es AppliedAt (no solo el estado): un segundo
// Apply, aun concurrente, recibe ErrAlreadyApplied y no cambia el libro.
// Si el movimiento falla (p. ej. stock insuficiente para un ajuste negativo),
// la transacción se revierte y el ajuste queda approved para reintento.
func (uc *UseCase) Apply(ctx context.Context, adjustmentID, appliedBy string) (*entity.InventoryAdjustment, error) {
	now := time.Now()
	var adj *entity.InventoryAdjustment
	err := uc.txRunner.RunWorkflow(ctx, func(
		positions repository.PositionRepository,
		batches repository.BatchRepository,
		movements repository.MovementRepository,
		_ repository.ReservationRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		a, err := adjustments.GetByIDForUpdate(adjustmentID)
		if err != nil {
			return err
		}
		if a.AppliedAt != nil {
			return domain.ErrAlreadyApplied
		}
		next, err := inventory.NextAdjustmentStatus(a.Status, inventory.AdjustmentActionApply)
		if err != nil {
			return err
		}

		_, err = uc.movementUC.ApplyInTx(positions, batches, movements, ledger.MovementInput{
			MovementType: entity.MovementTypeAdjustment,
			ProductID:    a.ProductID,
			SourceLevel:  a.Level,
			Quantity:     a.AdjustmentQuantity,
			MovementDate: now,
			AdjustmentID: a.ID,
			CreatedBy:    appliedBy,
		}, now)
		if err != nil {
			return err
		}

		a.Status = next
		a.AppliedAt = &now
		a.UpdatedAt = now
		if err := adjustments.Update(a); err != nil {
			return err
		}
		adj = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// GetByID devuelve un ajuste.
func (uc *UseCase) GetByID(ctx context.Context, adjustmentID string) (*entity.InventoryAdjustment, error) {
	return uc.adjustments.GetByID(adjustmentID)
}

// ListByStatus lista ajustes por estado.
func (uc *UseCase) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.InventoryAdjustment, error) {
	return uc.adjustments.ListByStatus(status, limit, offset)
}

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/inventory"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

// MovementUseCase registra movimientos de stock de forma transaccional
// (receipt, shipment, transfer, adjustment, return, write_off, production,
// assembly) con bloqueo de fila por posición y Commit/Rollback.
type MovementUseCase struct {
	txRunner  TxRunner
	positions repository.PositionRepository
	batches   repository.BatchRepository
	movements repository.MovementRepository
}

// NewMovementUseCase construye el caso de uso. Los repos recibidos son de solo
// lectura (atados al pool); toda mutación pasa por el TxRunner.
func NewMovementUseCase(
	txRunner TxRunner,
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
) *MovementUseCase {
	return &MovementUseCase{
		txRunner:  txRunner,
		positions: positions,
		batches:   batches,
		movements: movements,
	}
}

// MovementInput entrada para registrar un movimiento.
// Quantity es positiva salvo en adjustment, donde lleva el signo del efecto.
// UnitCost es obligatorio en tipos que crean lote (receipt, production, assembly).
// La deduplicación por ReferenceDocument es responsabilidad del caller.
type MovementInput struct {
	MovementType      string
	ProductID         string
	SourceLevel       entity.Level
	DestinationLevel  *entity.Level
	BatchID           string
	BatchNumber       string
	Quantity          decimal.Decimal
	UnitCost          *decimal.Decimal
	ProductionDate    *time.Time
	ExpiryDate        *time.Time
	MovementDate      time.Time
	ReferenceDocument string
	ReservationID     string
	AdjustmentID      string
	CreatedBy         string
}

func validateInput(input MovementInput) error {
	if !entity.KnownMovementType(input.MovementType) {
		return domain.ErrInvalidInput
	}
	if input.ProductID == "" || !input.SourceLevel.Valid() {
		return domain.ErrInvalidInput
	}
	if input.MovementType == entity.MovementTypeAdjustment {
		if input.Quantity.IsZero() {
			return domain.ErrInvalidInput
		}
	} else if !input.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if input.MovementType == entity.MovementTypeTransfer {
		if input.DestinationLevel == nil || !input.DestinationLevel.Valid() {
			return domain.ErrInvalidInput
		}
		if input.DestinationLevel.Key() == input.SourceLevel.Key() {
			return domain.ErrInvalidInput
		}
	} else if input.DestinationLevel != nil {
		return domain.ErrInvalidInput
	}
	switch input.MovementType {
	case entity.MovementTypeReceipt, entity.MovementTypeProduction, entity.MovementTypeAssembly:
		if input.UnitCost == nil || input.UnitCost.LessThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// ApplyMovement valida la entrada, abre una transacción y aplica el movimiento.
// En cualquier fallo de validación o de stock no se escribe nada: la tx se
// revierte completa y el error sube al caller.
func (uc *MovementUseCase) ApplyMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	now := time.Now()
	if input.MovementDate.IsZero() {
		input.MovementDate = now
	}
	var movement *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		positions repository.PositionRepository,
		batches repository.BatchRepository,
		movements repository.MovementRepository,
	) error {
		var err error
		movement, err = uc.ApplyInTx(positions, batches, movements, input, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ApplyInTx aplica un movimiento con los repositorios de la transacción del
// caller. Lo usan el gestor de reservas (cumplimiento) y el workflow de
// ajustes (apply) para que la mutación del libro tenga un único camino.
func (uc *MovementUseCase) ApplyInTx(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	input MovementInput,
	now time.Time,
) (*entity.StockMovement, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.MovementDate.IsZero() {
		input.MovementDate = now
	}
	switch {
	case input.MovementType == entity.MovementTypeTransfer:
		return uc.doTransfer(positions, batches, movements, input, now)
	case input.MovementType == entity.MovementTypeAdjustment:
		if input.Quantity.GreaterThan(decimal.Zero) {
			return uc.doProduce(positions, batches, movements, input, input.Quantity, now)
		}
		return uc.doConsume(positions, batches, movements, input, input.Quantity.Neg(), now)
	case entity.ConsumingType(input.MovementType):
		return uc.doConsume(positions, batches, movements, input, input.Quantity, now)
	default:
		return uc.doProduce(positions, batches, movements, input, input.Quantity, now)
	}
}

// doConsume bloquea la posición origen, asigna lotes (FIFO por vencimiento,
// salvo lote explícito), descuenta lotes y posición y escribe el asiento con
// cantidad negativa al costo promedio de los lotes consumidos.
func (uc *MovementUseCase) doConsume(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	input MovementInput,
	quantity decimal.Decimal,
	now time.Time,
) (*entity.StockMovement, error) {
	pos, err := positions.GetForUpdate(input.ProductID, input.SourceLevel)
	if err != nil {
		return nil, err
	}

	var allocations []entity.BatchAllocation
	byID := map[string]*entity.InventoryBatch{}
	if input.BatchID != "" {
		b, err := batches.GetByIDForUpdate(input.BatchID)
		if err != nil {
			return nil, err
		}
		if b.ProductID != input.ProductID || b.Level.Key() != input.SourceLevel.Key() {
			return nil, domain.ErrInvalidInput
		}
		if !b.Eligible() || b.AvailableQuantity().LessThan(quantity) {
			return nil, domain.ErrInsufficientStock
		}
		allocations = []entity.BatchAllocation{{BatchID: b.ID, Quantity: quantity}}
		byID[b.ID] = b
	} else {
		list, err := batches.ListForAllocation(input.ProductID, input.SourceLevel)
		if err != nil {
			return nil, err
		}
		allocations, err = inventory.Allocate(list, quantity)
		if err != nil {
			return nil, err
		}
		for _, b := range list {
			byID[b.ID] = b
		}
	}

	totalCost := decimal.Zero
	for _, alloc := range allocations {
		b := byID[alloc.BatchID]
		b.CurrentQuantity = b.CurrentQuantity.Sub(alloc.Quantity)
		if b.CurrentQuantity.IsZero() && b.RetiredAt == nil {
			retired := now
			b.RetiredAt = &retired
		}
		b.UpdatedAt = now
		if err := batches.Update(b); err != nil {
			return nil, err
		}
		totalCost = totalCost.Add(alloc.Quantity.Mul(b.UnitCost))
	}
	unitCost := decimal.Zero
	if quantity.GreaterThan(decimal.Zero) {
		unitCost = totalCost.Div(quantity)
	}

	pos.CurrentQuantity = pos.CurrentQuantity.Sub(quantity)
	pos.UpdatedAt = now
	if err := positions.Update(pos); err != nil {
		return nil, err
	}

	signed := quantity.Neg()
	mov := &entity.StockMovement{
		ID:                uuid.New().String(),
		MovementType:      input.MovementType,
		Status:            entity.MovementStatusCompleted,
		ProductID:         input.ProductID,
		SourceLevel:       input.SourceLevel,
		BatchID:           input.BatchID,
		Allocations:       allocations,
		Quantity:          signed,
		UnitCost:          unitCost,
		TotalCost:         signed.Mul(unitCost),
		MovementDate:      input.MovementDate,
		ReferenceDocument: input.ReferenceDocument,
		ReservationID:     input.ReservationID,
		AdjustmentID:      input.AdjustmentID,
		CreatedAt:         now,
		CreatedBy:         input.CreatedBy,
	}
	if err := movements.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// doProduce bloquea (o crea de forma perezosa) la posición origen, crea un
// lote nuevo o repone el lote referenciado con costo promedio ponderado, y
// escribe el asiento con cantidad positiva.
func (uc *MovementUseCase) doProduce(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	input MovementInput,
	quantity decimal.Decimal,
	now time.Time,
) (*entity.StockMovement, error) {
	pos, err := uc.lockOrCreatePosition(positions, input.ProductID, input.SourceLevel, now)
	if err != nil {
		return nil, err
	}

	unitCost := decimal.Zero
	if input.UnitCost != nil {
		unitCost = *input.UnitCost
	}

	var batchID string
	if input.BatchID != "" {
		// return / adjustment-increase que repone un lote existente
		b, err := batches.GetByIDForUpdate(input.BatchID)
		if err != nil {
			return nil, err
		}
		if b.ProductID != input.ProductID || b.Level.Key() != input.SourceLevel.Key() {
			return nil, domain.ErrInvalidInput
		}
		if err := uc.topUpBatch(batches, b, quantity, unitCost, now); err != nil {
			return nil, err
		}
		batchID = b.ID
	} else {
		number := input.BatchNumber
		if number == "" {
			number = "LOT-" + uuid.New().String()[:8]
		}
		b := &entity.InventoryBatch{
			ID:              uuid.New().String(),
			ProductID:       input.ProductID,
			Level:           input.SourceLevel,
			BatchNumber:     number,
			InitialQuantity: quantity,
			CurrentQuantity: quantity,
			UnitCost:        unitCost,
			ProductionDate:  input.ProductionDate,
			ExpiryDate:      input.ExpiryDate,
			ReceivedAt:      now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := batches.Create(b); err != nil {
			return nil, err
		}
		batchID = b.ID
	}

	pos.CurrentQuantity = pos.CurrentQuantity.Add(quantity)
	pos.UpdatedAt = now
	if err := positions.Update(pos); err != nil {
		return nil, err
	}

	signed := quantity
	if input.MovementType == entity.MovementTypeAdjustment {
		signed = input.Quantity // conserva el signo original (positivo aquí)
	}
	mov := &entity.StockMovement{
		ID:                uuid.New().String(),
		MovementType:      input.MovementType,
		Status:            entity.MovementStatusCompleted,
		ProductID:         input.ProductID,
		SourceLevel:       input.SourceLevel,
		BatchID:           batchID,
		Quantity:          signed,
		UnitCost:          unitCost,
		TotalCost:         signed.Mul(unitCost),
		MovementDate:      input.MovementDate,
		ReferenceDocument: input.ReferenceDocument,
		ReservationID:     input.ReservationID,
		AdjustmentID:      input.AdjustmentID,
		CreatedAt:         now,
		CreatedBy:         input.CreatedBy,
	}
	if err := movements.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// doTransfer descuenta en origen y repone en destino en la misma transacción,
// con un único asiento (cantidad negativa relativa al origen, destino
// registrado en el mismo registro). Los bloqueos de ambas posiciones se
// adquieren en orden lexicográfico de Level.Key() para evitar deadlocks.
func (uc *MovementUseCase) doTransfer(
	positions repository.PositionRepository,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	input MovementInput,
	now time.Time,
) (*entity.StockMovement, error) {
	source := input.SourceLevel
	dest := *input.DestinationLevel

	var srcPos, dstPos *entity.StockPosition
	var err error
	if source.Key() < dest.Key() {
		if srcPos, err = positions.GetForUpdate(input.ProductID, source); err != nil {
			return nil, err
		}
		if dstPos, err = uc.lockOrCreatePosition(positions, input.ProductID, dest, now); err != nil {
			return nil, err
		}
	} else {
		if dstPos, err = uc.lockOrCreatePosition(positions, input.ProductID, dest, now); err != nil {
			return nil, err
		}
		if srcPos, err = positions.GetForUpdate(input.ProductID, source); err != nil {
			return nil, err
		}
	}

	list, err := batches.ListForAllocation(input.ProductID, source)
	if err != nil {
		return nil, err
	}
	allocations, err := inventory.Allocate(list, input.Quantity)
	if err != nil {
		return nil, err
	}
	byID := map[string]*entity.InventoryBatch{}
	for _, b := range list {
		byID[b.ID] = b
	}

	totalCost := decimal.Zero
	for _, alloc := range allocations {
		src := byID[alloc.BatchID]
		src.CurrentQuantity = src.CurrentQuantity.Sub(alloc.Quantity)
		if src.CurrentQuantity.IsZero() && src.RetiredAt == nil {
			retired := now
			src.RetiredAt = &retired
		}
		src.UpdatedAt = now
		if err := batches.Update(src); err != nil {
			return nil, err
		}

		// El lote conserva su identidad al cruzar niveles: mismo número,
		// vencimiento y costo, para que la prioridad FIFO siga valiendo
		// en la máquina u operador de destino.
		dst, err := batches.GetByNumber(input.ProductID, dest, src.BatchNumber)
		if err != nil {
			return nil, err
		}
		if dst == nil {
			dst = &entity.InventoryBatch{
				ID:              uuid.New().String(),
				ProductID:       input.ProductID,
				Level:           dest,
				BatchNumber:     src.BatchNumber,
				InitialQuantity: alloc.Quantity,
				CurrentQuantity: alloc.Quantity,
				UnitCost:        src.UnitCost,
				ProductionDate:  src.ProductionDate,
				ExpiryDate:      src.ExpiryDate,
				ReceivedAt:      now,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := batches.Create(dst); err != nil {
				return nil, err
			}
		} else {
			if err := uc.topUpBatch(batches, dst, alloc.Quantity, src.UnitCost, now); err != nil {
				return nil, err
			}
		}
		totalCost = totalCost.Add(alloc.Quantity.Mul(src.UnitCost))
	}
	unitCost := totalCost.Div(input.Quantity)

	srcPos.CurrentQuantity = srcPos.CurrentQuantity.Sub(input.Quantity)
	srcPos.UpdatedAt = now
	if err := positions.Update(srcPos); err != nil {
		return nil, err
	}
	dstPos.CurrentQuantity = dstPos.CurrentQuantity.Add(input.Quantity)
	dstPos.UpdatedAt = now
	if err := positions.Update(dstPos); err != nil {
		return nil, err
	}

	signed := input.Quantity.Neg()
	mov := &entity.StockMovement{
		ID:                uuid.New().String(),
		MovementType:      entity.MovementTypeTransfer,
		Status:            entity.MovementStatusCompleted,
		ProductID:         input.ProductID,
		SourceLevel:       source,
		DestinationLevel:  &dest,
		Allocations:       allocations,
		Quantity:          signed,
		UnitCost:          unitCost,
		TotalCost:         signed.Mul(unitCost),
		MovementDate:      input.MovementDate,
		ReferenceDocument: input.ReferenceDocument,
		CreatedAt:         now,
		CreatedBy:         input.CreatedBy,
	}
	if err := movements.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// lockOrCreatePosition bloquea la posición o la crea en cero si nunca existió
// (creación perezosa, solo en caminos productores).
func (uc *MovementUseCase) lockOrCreatePosition(
	positions repository.PositionRepository,
	productID string,
	level entity.Level,
	now time.Time,
) (*entity.StockPosition, error) {
	pos, err := positions.GetForUpdate(productID, level)
	if err == nil {
		return pos, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}
	pos = &entity.StockPosition{
		ProductID:         productID,
		Level:             level,
		CurrentQuantity:   decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		BootstrapQuantity: decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := positions.Create(pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// topUpBatch repone un lote existente: costo promedio ponderado, crece el
// inicial junto con el actual (invariante current <= initial) y reactiva
// lotes retirados.
func (uc *MovementUseCase) topUpBatch(
	batches repository.BatchRepository,
	b *entity.InventoryBatch,
	quantity, unitCost decimal.Decimal,
	now time.Time,
) error {
	b.UnitCost = inventory.CostCalculator(b.CurrentQuantity, b.UnitCost, quantity, unitCost)
	b.CurrentQuantity = b.CurrentQuantity.Add(quantity)
	b.InitialQuantity = b.InitialQuantity.Add(quantity)
	if b.RetiredAt != nil && b.CurrentQuantity.GreaterThan(decimal.Zero) {
		b.RetiredAt = nil
	}
	b.UpdatedAt = now
	return batches.Update(b)
}

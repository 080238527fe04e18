package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// Allocate selecciona de qué lotes descontar una demanda (servicio de dominio,
// puro). Excluye lotes en cuarentena, retirados o agotados; ordena por
// vencimiento ascendente con los sin vencimiento al final y, a igual
// vencimiento, por fecha de recepción (FIFO con prioridad de vencimiento).
// Asigna de forma voraz hasta cubrir la demanda. Si el disponible total de los
// lotes elegibles no alcanza, devuelve ErrInsufficientStock sin asignar nada:
// la política de backorder/negativo es del caller, nunca de este servicio.
func Allocate(batches []*entity.InventoryBatch, quantityNeeded decimal.Decimal) ([]entity.BatchAllocation, error) {
	if !quantityNeeded.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	eligible := make([]*entity.InventoryBatch, 0, len(batches))
	for _, b := range batches {
		if b.Eligible() {
			eligible = append(eligible, b)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		bi, bj := eligible[i], eligible[j]
		switch {
		case bi.ExpiryDate == nil && bj.ExpiryDate == nil:
			return bi.ReceivedAt.Before(bj.ReceivedAt)
		case bi.ExpiryDate == nil:
			return false
		case bj.ExpiryDate == nil:
			return true
		case !bi.ExpiryDate.Equal(*bj.ExpiryDate):
			return bi.ExpiryDate.Before(*bj.ExpiryDate)
		}
		return bi.ReceivedAt.Before(bj.ReceivedAt)
	})

	total := decimal.Zero
	for _, b := range eligible {
		total = total.Add(b.AvailableQuantity())
	}
	if total.LessThan(quantityNeeded) {
		return nil, domain.ErrInsufficientStock
	}

	var allocations []entity.BatchAllocation
	remaining := quantityNeeded
	for _, b := range eligible {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(b.AvailableQuantity(), remaining)
		allocations = append(allocations, entity.BatchAllocation{BatchID: b.ID, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return allocations, nil
}

package repository

import (
	"time"

	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para lotes de inventario.
type BatchRepository interface {
	Create(batch *entity.InventoryBatch) error
	// GetByID devuelve el lote o domain.ErrNotFound.
	GetByID(id string) (*entity.InventoryBatch, error)
	// GetByIDForUpdate bloquea la fila del lote.
	GetByIDForUpdate(id string) (*entity.InventoryBatch, error)
	// GetByNumber busca un lote por número en una posición; nil si no existe.
	GetByNumber(productID string, level entity.Level, batchNumber string) (*entity.InventoryBatch, error)
	// ListForAllocation devuelve los lotes de una posición bloqueados para
	// update, incluyendo retirados y en cuarentena (el asignador filtra).
	ListForAllocation(productID string, level entity.Level) ([]*entity.InventoryBatch, error)
	Update(batch *entity.InventoryBatch) error
	// ListExpiring lista lotes activos que vencen antes del horizonte dado.
	ListExpiring(level *entity.Level, before time.Time) ([]*entity.InventoryBatch, error)
}

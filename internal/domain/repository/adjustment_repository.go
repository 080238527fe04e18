package repository

import "github.com/vendhub/stock-ledger/internal/domain/entity"

// AdjustmentRepository define el puerto de persistencia para ajustes de inventario.
type AdjustmentRepository interface {
	Create(adjustment *entity.InventoryAdjustment) error
	GetByID(id string) (*entity.InventoryAdjustment, error)
	GetByIDForUpdate(id string) (*entity.InventoryAdjustment, error)
	Update(adjustment *entity.InventoryAdjustment) error
	// ListByStatus lista ajustes por estado; vacío = todos.
	ListByStatus(status string, limit, offset int) ([]*entity.InventoryAdjustment, error)
}

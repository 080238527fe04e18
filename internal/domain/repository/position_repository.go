package repository

import "github.com/vendhub/stock-ledger/internal/domain/entity"

// PositionRepository define el puerto de persistencia para posiciones de stock.
// GetForUpdate es el bloqueo de posición del libro: toda lectura-modificación-
// escritura de una posición debe pasar por él dentro de una transacción.
type PositionRepository interface {
	// Get devuelve la posición o domain.ErrNotFound si nunca fue inicializada
	// (las posiciones se crean de forma perezosa con el primer movimiento productor).
	Get(productID string, level entity.Level) (*entity.StockPosition, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE o equivalente).
	GetForUpdate(productID string, level entity.Level) (*entity.StockPosition, error)
	Create(position *entity.StockPosition) error
	Update(position *entity.StockPosition) error
	ListByLevel(level entity.Level) ([]*entity.StockPosition, error)
}

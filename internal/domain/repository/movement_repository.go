package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del libro de movimientos.
// El libro es solo-agregar: no hay Update ni Delete.
type MovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// ListByPosition lista movimientos que tocan una posición (como origen o
	// destino) en un rango de fechas, más recientes primero.
	ListByPosition(productID string, level entity.Level, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// SumSignedForPosition suma las cantidades con signo de los movimientos
	// completados sobre una posición (efecto destino invertido). Base del
	// chequeo de consistencia del libro.
	SumSignedForPosition(productID string, level entity.Level) (decimal.Decimal, error)
	// ListMachineShipments lista movimientos shipment completados con origen en
	// niveles máquina dentro de la ventana; machineRefID vacío = todas.
	ListMachineShipments(from, to time.Time, machineRefID string) ([]*entity.StockMovement, error)
}

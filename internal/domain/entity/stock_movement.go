package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeReceipt    = "receipt"    // entrada a bodega, crea lote
	MovementTypeShipment   = "shipment"   // salida (venta/dispensado)
	MovementTypeTransfer   = "transfer"   // entre niveles, un solo registro
	MovementTypeAdjustment = "adjustment" // corrección aprobada, cantidad con signo
	MovementTypeReturn     = "return"     // devolución, repone lote si se referencia
	MovementTypeWriteOff   = "write_off"  // baja (daño, vencimiento)
	MovementTypeProduction = "production" // producción interna
	MovementTypeAssembly   = "assembly"   // salida de ensamble
)

// Estados de movimiento.
const (
	MovementStatusPending   = "pending"
	MovementStatusCompleted = "completed"
	MovementStatusCancelled = "cancelled"
)

// BatchAllocation indica cuánto se tomó de cada lote en un movimiento de consumo.
type BatchAllocation struct {
	BatchID  string
	Quantity decimal.Decimal
}

// StockMovement es un asiento inmutable del libro de stock. La cantidad lleva
// el signo del efecto sobre el nivel origen (positivo produce, negativo consume);
// en un traslado el nivel destino recibe el efecto contrario (-Quantity).
// La suma de cantidades con signo de los movimientos completados de una posición
// debe igualar CurrentQuantity menos su saldo inicial.
type StockMovement struct {
	ID                string
	MovementType      string
	Status            string
	ProductID         string
	SourceLevel       Level
	DestinationLevel  *Level // solo traslados
	BatchID           string // lote explícito, si el caller lo fija
	Allocations       []BatchAllocation
	Quantity          decimal.Decimal // con signo, relativo al origen
	UnitCost          decimal.Decimal
	TotalCost         decimal.Decimal
	MovementDate      time.Time
	ReferenceDocument string // deduplicación a cargo del caller
	ReservationID     string // si el movimiento nace de un cumplimiento de reserva
	AdjustmentID      string // si el movimiento nace de un ajuste aprobado
	CreatedAt         time.Time
	CreatedBy         string
}

// ConsumingType indica si el tipo descuenta stock del origen.
func ConsumingType(movementType string) bool {
	switch movementType {
	case MovementTypeShipment, MovementTypeWriteOff, MovementTypeTransfer:
		return true
	}
	return false
}

// ProducingType indica si el tipo agrega stock al origen.
func ProducingType(movementType string) bool {
	switch movementType {
	case MovementTypeReceipt, MovementTypeReturn, MovementTypeProduction, MovementTypeAssembly:
		return true
	}
	return false
}

// KnownMovementType valida el tipo contra el catálogo.
func KnownMovementType(movementType string) bool {
	return ConsumingType(movementType) || ProducingType(movementType) ||
		movementType == MovementTypeAdjustment
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de reserva. pending -> confirmed -> partially_fulfilled -> fulfilled;
// cualquiera de los tres primeros puede pasar a cancelled o expired.
const (
	ReservationStatusPending            = "pending"
	ReservationStatusConfirmed          = "confirmed"
	ReservationStatusPartiallyFulfilled = "partially_fulfilled"
	ReservationStatusFulfilled          = "fulfilled"
	ReservationStatusCancelled          = "cancelled"
	ReservationStatusExpired            = "expired"
)

// StockReservation compromete stock contra un consumo futuro sin sacarlo del
// nivel. Solo toca ReservedQuantity de la posición; CurrentQuantity baja
// únicamente al cumplirse (vía movimiento shipment).
type StockReservation struct {
	ID                string
	ProductID         string
	Level             Level
	QuantityReserved  decimal.Decimal
	QuantityFulfilled decimal.Decimal // siempre <= QuantityReserved
	Status            string
	ReservedFor       string // referencia externa (pedido, tarea); opaca
	ExpiresAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Outstanding devuelve lo reservado aún no cumplido.
func (r *StockReservation) Outstanding() decimal.Decimal {
	return r.QuantityReserved.Sub(r.QuantityFulfilled)
}

// Terminal indica si la reserva ya no admite transiciones.
func (r *StockReservation) Terminal() bool {
	switch r.Status {
	case ReservationStatusFulfilled, ReservationStatusCancelled, ReservationStatusExpired:
		return true
	}
	return false
}

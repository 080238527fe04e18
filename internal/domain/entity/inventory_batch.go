package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryBatch representa un lote recibido de un producto en un nivel
// (normalmente bodega), con su propia fecha de vencimiento, costo y estado
// de cuarentena. Invariantes: 0 <= CurrentQuantity <= InitialQuantity y
// ReservedQuantity <= CurrentQuantity. Nunca se borra: al agotarse se
// retira (RetiredAt) y deja de ser elegible para asignación.
type InventoryBatch struct {
	ID               string
	ProductID        string
	Level            Level
	BatchNumber      string
	InitialQuantity  decimal.Decimal
	CurrentQuantity  decimal.Decimal
	ReservedQuantity decimal.Decimal
	UnitCost         decimal.Decimal
	ProductionDate   *time.Time
	ExpiryDate       *time.Time // nil = sin vencimiento, se consume al final
	ReceivedAt       time.Time
	IsQuarantined    bool
	RetiredAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AvailableQuantity devuelve lo asignable del lote (derivada, no persistida).
func (b *InventoryBatch) AvailableQuantity() decimal.Decimal {
	return b.CurrentQuantity.Sub(b.ReservedQuantity)
}

// Eligible indica si el lote puede participar en una asignación:
// no retirado, no en cuarentena y con cantidad disponible.
func (b *InventoryBatch) Eligible() bool {
	return b.RetiredAt == nil && !b.IsQuarantined && b.AvailableQuantity().GreaterThan(decimal.Zero)
}

// ExpiresWithin indica si el lote vence dentro del horizonte dado desde now.
func (b *InventoryBatch) ExpiresWithin(now time.Time, horizon time.Duration) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(now.Add(horizon))
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPosition representa el stock de un producto en un nivel (bodega, operador
// o máquina). Única por (producto, nivel). CurrentQuantity solo la muta el
// registrador de movimientos; ReservedQuantity solo el gestor de reservas.
type StockPosition struct {
	ProductID         string
	Level             Level
	CurrentQuantity   decimal.Decimal
	ReservedQuantity  decimal.Decimal
	BootstrapQuantity decimal.Decimal // saldo inicial al crear la posición (cargas históricas)
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AvailableQuantity devuelve lo realmente asignable: en mano menos reservado.
// Es derivada, nunca se persiste. Puede ser negativa de forma transitoria:
// eso es una señal de sobre-reserva y se expone tal cual, no se oculta.
func (p *StockPosition) AvailableQuantity() decimal.Decimal {
	return p.CurrentQuantity.Sub(p.ReservedQuantity)
}

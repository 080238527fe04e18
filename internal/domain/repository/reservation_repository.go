package repository

import (
	"time"

	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia para reservas.
type ReservationRepository interface {
	Create(reservation *entity.StockReservation) error
	GetByID(id string) (*entity.StockReservation, error)
	GetByIDForUpdate(id string) (*entity.StockReservation, error)
	Update(reservation *entity.StockReservation) error
	ListByPosition(productID string, level entity.Level) ([]*entity.StockReservation, error)
	// ListDue lista reservas no terminales con expires_at anterior a now.
	ListDue(now time.Time, limit int) ([]*entity.StockReservation, error)
}

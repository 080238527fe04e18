package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// ReserveRequest body para POST /api/reservations.
type ReserveRequest struct {
	ProductID   string          `json:"product_id"`
	Level       LevelRef        `json:"level"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReservedFor string          `json:"reserved_for,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// FulfillRequest body para cumplir (parcialmente) una reserva.
type FulfillRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// ReservationResponse una reserva de stock.
type ReservationResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	Level             LevelRef        `json:"level"`
	QuantityReserved  decimal.Decimal `json:"quantity_reserved"`
	QuantityFulfilled decimal.Decimal `json:"quantity_fulfilled"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	Status            string          `json:"status"`
	ReservedFor       string          `json:"reserved_for,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ReservationResponseFrom mapea una reserva del dominio a su respuesta HTTP.
func ReservationResponseFrom(r *entity.StockReservation) ReservationResponse {
	return ReservationResponse{
		ID:                r.ID,
		ProductID:         r.ProductID,
		Level:             LevelRefFrom(r.Level),
		QuantityReserved:  r.QuantityReserved,
		QuantityFulfilled: r.QuantityFulfilled,
		Outstanding:       r.Outstanding(),
		Status:            r.Status,
		ReservedFor:       r.ReservedFor,
		ExpiresAt:         r.ExpiresAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

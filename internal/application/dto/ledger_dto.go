package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// ApplyMovementRequest body para POST /api/ledger/movements.
// Quantity es positiva salvo en adjustment, donde lleva el signo del efecto.
type ApplyMovementRequest struct {
	MovementType      string           `json:"movement_type"`
	ProductID         string           `json:"product_id"`
	SourceLevel       LevelRef         `json:"source_level"`
	DestinationLevel  *LevelRef        `json:"destination_level,omitempty"`
	BatchID           string           `json:"batch_id,omitempty"`
	BatchNumber       string           `json:"batch_number,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	ProductionDate    *time.Time       `json:"production_date,omitempty"`
	ExpiryDate        *time.Time       `json:"expiry_date,omitempty"`
	MovementDate      *time.Time       `json:"movement_date,omitempty"`
	ReferenceDocument string           `json:"reference_document,omitempty"`
}

// BatchAllocationDTO detalle de lo tomado de cada lote en un consumo.
type BatchAllocationDTO struct {
	BatchID  string          `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MovementResponse un asiento del libro.
type MovementResponse struct {
	ID                string               `json:"id"`
	MovementType      string               `json:"movement_type"`
	Status            string               `json:"status"`
	ProductID         string               `json:"product_id"`
	SourceLevel       LevelRef             `json:"source_level"`
	DestinationLevel  *LevelRef            `json:"destination_level,omitempty"`
	Allocations       []BatchAllocationDTO `json:"allocations,omitempty"`
	Quantity          decimal.Decimal      `json:"quantity"`
	UnitCost          decimal.Decimal      `json:"unit_cost"`
	TotalCost         decimal.Decimal      `json:"total_cost"`
	MovementDate      time.Time            `json:"movement_date"`
	ReferenceDocument string               `json:"reference_document,omitempty"`
	ReservationID     string               `json:"reservation_id,omitempty"`
	AdjustmentID      string               `json:"adjustment_id,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	CreatedBy         string               `json:"created_by,omitempty"`
}

// PositionResponse el estado de una posición, con el disponible derivado.
type PositionResponse struct {
	ProductID         string          `json:"product_id"`
	Level             LevelRef        `json:"level"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ConsistencyResponse resultado del chequeo de consistencia del libro.
type ConsistencyResponse struct {
	ProductID         string          `json:"product_id"`
	Level             LevelRef        `json:"level"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	BootstrapQuantity decimal.Decimal `json:"bootstrap_quantity"`
	LedgerSum         decimal.Decimal `json:"ledger_sum"`
	Consistent        bool            `json:"consistent"`
}

// BatchResponse un lote de inventario.
type BatchResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	Level             LevelRef        `json:"level"`
	BatchNumber       string          `json:"batch_number"`
	InitialQuantity   decimal.Decimal `json:"initial_quantity"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	ReceivedAt        time.Time       `json:"received_at"`
	IsQuarantined     bool            `json:"is_quarantined"`
	Retired           bool            `json:"retired"`
}

// QuarantineRequest body para cambiar la cuarentena de un lote.
type QuarantineRequest struct {
	Quarantined bool `json:"quarantined"`
}

// ToLevel convierte la referencia de nivel del DTO a la entidad de dominio.
func (l LevelRef) ToLevel() entity.Level {
	return entity.Level{Type: l.Type, RefID: l.RefID}
}

// LevelRefFrom construye el DTO desde la entidad.
func LevelRefFrom(level entity.Level) LevelRef {
	return LevelRef{Type: level.Type, RefID: level.RefID}
}

// MovementResponseFrom mapea un asiento del dominio a su respuesta HTTP.
func MovementResponseFrom(m *entity.StockMovement) MovementResponse {
	out := MovementResponse{
		ID:                m.ID,
		MovementType:      m.MovementType,
		Status:            m.Status,
		ProductID:         m.ProductID,
		SourceLevel:       LevelRefFrom(m.SourceLevel),
		Quantity:          m.Quantity,
		UnitCost:          m.UnitCost,
		TotalCost:         m.TotalCost,
		MovementDate:      m.MovementDate,
		ReferenceDocument: m.ReferenceDocument,
		ReservationID:     m.ReservationID,
		AdjustmentID:      m.AdjustmentID,
		CreatedAt:         m.CreatedAt,
		CreatedBy:         m.CreatedBy,
	}
	if m.DestinationLevel != nil {
		dl := LevelRefFrom(*m.DestinationLevel)
		out.DestinationLevel = &dl
	}
	for _, a := range m.Allocations {
		out.Allocations = append(out.Allocations, BatchAllocationDTO{BatchID: a.BatchID, Quantity: a.Quantity})
	}
	return out
}

// PositionResponseFrom mapea una posición del dominio a su respuesta HTTP.
func PositionResponseFrom(p *entity.StockPosition) PositionResponse {
	return PositionResponse{
		ProductID:         p.ProductID,
		Level:             LevelRefFrom(p.Level),
		CurrentQuantity:   p.CurrentQuantity,
		ReservedQuantity:  p.ReservedQuantity,
		AvailableQuantity: p.AvailableQuantity(),
		UpdatedAt:         p.UpdatedAt,
	}
}

// BatchResponseFrom mapea un lote del dominio a su respuesta HTTP.
func BatchResponseFrom(b *entity.InventoryBatch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		Level:             LevelRefFrom(b.Level),
		BatchNumber:       b.BatchNumber,
		InitialQuantity:   b.InitialQuantity,
		CurrentQuantity:   b.CurrentQuantity,
		AvailableQuantity: b.AvailableQuantity(),
		UnitCost:          b.UnitCost,
		ExpiryDate:        b.ExpiryDate,
		ReceivedAt:        b.ReceivedAt,
		IsQuarantined:     b.IsQuarantined,
		Retired:           b.RetiredAt != nil,
	}
}

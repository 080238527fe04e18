package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// CreateAdjustmentRequest body para POST /api/adjustments.
type CreateAdjustmentRequest struct {
	ProductID        string          `json:"product_id"`
	Level            LevelRef        `json:"level"`
	OldQuantity      decimal.Decimal `json:"old_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	Reason           string          `json:"reason"`
	RequiresApproval *bool           `json:"requires_approval,omitempty"` // nil = true
	ActualCountID    string          `json:"actual_count_id,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// AdjustmentResponse un ajuste de inventario.
type AdjustmentResponse struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	Level              LevelRef        `json:"level"`
	OldQuantity        decimal.Decimal `json:"old_quantity"`
	NewQuantity        decimal.Decimal `json:"new_quantity"`
	AdjustmentQuantity decimal.Decimal `json:"adjustment_quantity"`
	Reason             string          `json:"reason"`
	Status             string          `json:"status"`
	RequiresApproval   bool            `json:"requires_approval"`
	ActualCountID      string          `json:"actual_count_id,omitempty"`
	RequestedBy        string          `json:"requested_by"`
	ApprovedBy         string          `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time      `json:"approved_at,omitempty"`
	AppliedAt          *time.Time      `json:"applied_at,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// AdjustmentResponseFrom mapea un ajuste del dominio a su respuesta HTTP.
func AdjustmentResponseFrom(a *entity.InventoryAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:                 a.ID,
		ProductID:          a.ProductID,
		Level:              LevelRefFrom(a.Level),
		OldQuantity:        a.OldQuantity,
		NewQuantity:        a.NewQuantity,
		AdjustmentQuantity: a.AdjustmentQuantity,
		Reason:             a.Reason,
		Status:             a.Status,
		RequiresApproval:   a.RequiresApproval,
		ActualCountID:      a.ActualCountID,
		RequestedBy:        a.RequestedBy,
		ApprovedBy:         a.ApprovedBy,
		ApprovedAt:         a.ApprovedAt,
		AppliedAt:          a.AppliedAt,
		Notes:              a.Notes,
		CreatedAt:          a.CreatedAt,
	}
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// RunReconciliationRequest body para POST /api/reconciliation/runs.
type RunReconciliationRequest struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	MachineID string    `json:"machine_id,omitempty"` // vacío = todas las máquinas
}

// ReconciliationRunResponse una corrida de conciliación.
type ReconciliationRunResponse struct {
	ID             string          `json:"id"`
	WindowFrom     time.Time       `json:"window_from"`
	WindowTo       time.Time       `json:"window_to"`
	MachineID      string          `json:"machine_id,omitempty"`
	ToleranceSecs  int             `json:"tolerance_seconds"`
	ScoreThreshold decimal.Decimal `json:"score_threshold"`
	Status         string          `json:"status"`
	ExpectedCount  int             `json:"expected_count"`
	ObservedCount  int             `json:"observed_count"`
	MatchedCount   int             `json:"matched_count"`
	MismatchCount  int             `json:"mismatch_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MismatchResponse una discrepancia detectada.
type MismatchResponse struct {
	ID                 string          `json:"id"`
	RunID              string          `json:"run_id"`
	MismatchType       string          `json:"mismatch_type"`
	ProductID          string          `json:"product_id"`
	MachineID          string          `json:"machine_id"`
	ExpectedMovementID string          `json:"expected_movement_id,omitempty"`
	ExpectedQuantity   decimal.Decimal `json:"expected_quantity"`
	ObservedQuantity   decimal.Decimal `json:"observed_quantity"`
	DiscrepancyAmount  decimal.Decimal `json:"discrepancy_amount"`
	MatchScore         decimal.Decimal `json:"match_score"`
	OrderTime          time.Time       `json:"order_time"`
	IsResolved         bool            `json:"is_resolved"`
	ResolvedBy         string          `json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time      `json:"resolved_at,omitempty"`
}

// ReconciliationRunResponseFrom mapea una corrida del dominio a su respuesta HTTP.
func ReconciliationRunResponseFrom(r *entity.ReconciliationRun) ReconciliationRunResponse {
	return ReconciliationRunResponse{
		ID:             r.ID,
		WindowFrom:     r.WindowFrom,
		WindowTo:       r.WindowTo,
		MachineID:      r.LevelRefID,
		ToleranceSecs:  int(r.Tolerance.Seconds()),
		ScoreThreshold: r.ScoreThreshold,
		Status:         r.Status,
		ExpectedCount:  r.ExpectedCount,
		ObservedCount:  r.ObservedCount,
		MatchedCount:   r.MatchedCount,
		MismatchCount:  r.MismatchCount,
		CreatedAt:      r.CreatedAt,
	}
}

// MismatchResponseFrom mapea una discrepancia del dominio a su respuesta HTTP.
func MismatchResponseFrom(m *entity.ReconciliationMismatch) MismatchResponse {
	return MismatchResponse{
		ID:                 m.ID,
		RunID:              m.RunID,
		MismatchType:       m.MismatchType,
		ProductID:          m.ProductID,
		MachineID:          m.MachineID,
		ExpectedMovementID: m.ExpectedMovementID,
		ExpectedQuantity:   m.ExpectedQuantity,
		ObservedQuantity:   m.ObservedQuantity,
		DiscrepancyAmount:  m.DiscrepancyAmount,
		MatchScore:         m.MatchScore,
		OrderTime:          m.OrderTime,
		IsResolved:         m.IsResolved,
		ResolvedBy:         m.ResolvedBy,
		ResolvedAt:         m.ResolvedAt,
	}
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de ajuste. pending -> approved -> applied; pending -> rejected;
// pending/approved -> cancelled. applied, rejected y cancelled son terminales.
const (
	AdjustmentStatusPending   = "pending"
	AdjustmentStatusApproved  = "approved"
	AdjustmentStatusRejected  = "rejected"
	AdjustmentStatusApplied   = "applied"
	AdjustmentStatusCancelled = "cancelled"
)

// Motivos de ajuste.
const (
	AdjustmentReasonInventoryDiff = "inventory_difference"
	AdjustmentReasonDamage        = "damage"
	AdjustmentReasonTheft         = "theft"
	AdjustmentReasonExpiry        = "expiry"
	AdjustmentReasonReturn        = "return"
	AdjustmentReasonCorrection    = "correction"
	AdjustmentReasonOther         = "other"
)

// KnownAdjustmentReason valida el motivo contra el catálogo.
func KnownAdjustmentReason(reason string) bool {
	switch reason {
	case AdjustmentReasonInventoryDiff, AdjustmentReasonDamage, AdjustmentReasonTheft,
		AdjustmentReasonExpiry, AdjustmentReasonReturn, AdjustmentReasonCorrection,
		AdjustmentReasonOther:
		return true
	}
	return false
}

// InventoryAdjustment es una corrección manual de saldo, siempre detrás de un
// paso de aprobación antes de tocar el libro. AppliedAt es la guarda de
// idempotencia del apply: se verifica el campo, no solo el estado, para
// sobrevivir reintentos concurrentes.
type InventoryAdjustment struct {
	ID                 string
	ProductID          string
	Level              Level
	OldQuantity        decimal.Decimal
	NewQuantity        decimal.Decimal
	AdjustmentQuantity decimal.Decimal // NewQuantity - OldQuantity
	Reason             string
	Status             string
	RequiresApproval   bool
	ActualCountID      string // referencia débil al conteo físico que lo originó
	RequestedBy        string
	ApprovedBy         string
	ApprovedAt         *time.Time
	AppliedAt          *time.Time
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Terminal indica si el ajuste ya no admite transiciones.
func (a *InventoryAdjustment) Terminal() bool {
	switch a.Status {
	case AdjustmentStatusApplied, AdjustmentStatusRejected, AdjustmentStatusCancelled:
		return true
	}
	return false
}

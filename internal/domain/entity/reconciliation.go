package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una corrida de conciliación.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Tipos de discrepancia.
const (
	MismatchMissingExpected = "missing_expected"  // venta observada sin movimiento esperado
	MismatchMissingObserved = "missing_observed"  // movimiento esperado sin venta observada
	MismatchQuantity        = "quantity_mismatch" // par emparejado con cantidades distintas
	MismatchTiming          = "timing_mismatch"   // cantidades iguales, desfase temporal relevante
)

// SalesRecord es un registro del feed externo de ventas (jobs de importación).
// Este módulo solo lo consume; cómo se produce queda fuera.
type SalesRecord struct {
	ProductID string
	MachineID string
	Quantity  decimal.Decimal
	Amount    decimal.Decimal
	Timestamp time.Time
}

// ReconciliationRun es el registro de auditoría de una corrida: ventana,
// filtro de nivel y parámetros usados. Solo se agrega; repetir una ventana
// produce una corrida nueva, nunca muta una anterior.
type ReconciliationRun struct {
	ID             string
	WindowFrom     time.Time
	WindowTo       time.Time
	LevelRefID     string // máquina concreta; vacío = todas
	Tolerance      time.Duration
	ScoreThreshold decimal.Decimal
	Status         string
	ExpectedCount  int
	ObservedCount  int
	MatchedCount   int
	MismatchCount  int
	CreatedAt      time.Time
}

// ReconciliationMismatch es una discrepancia detectada en una corrida.
// Mutable solo vía la acción explícita de resolución.
type ReconciliationMismatch struct {
	ID                 string
	RunID              string
	MismatchType       string
	ProductID          string
	MachineID          string
	ExpectedMovementID string // movimiento shipment del libro, si existe
	ExpectedQuantity   decimal.Decimal
	ObservedQuantity   decimal.Decimal
	DiscrepancyAmount  decimal.Decimal // |esperado - observado| en monto
	MatchScore         decimal.Decimal // confianza del emparejamiento, [0,1]
	OrderTime          time.Time
	IsResolved         bool
	ResolvedBy         string
	ResolvedAt         *time.Time
	CreatedAt          time.Time
}

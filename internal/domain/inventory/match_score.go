package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchScore calcula la confianza [0,1] de que un movimiento esperado y una
// venta observada refieran al mismo evento real. Política ajustable, no ley:
// producto de un factor temporal y uno de cantidad, ambos lineales.
//
//	timeScore = max(0, 1 - |Δt| / tolerance)
//	qtyScore  = max(0, 1 - |Δq| / max(qE, qO))
//
// Determinista; vale 1.0 con cantidades y timestamps exactos y decrece hacia
// 0.0 a medida que crece cualquiera de los deltas.
func MatchScore(expectedQty, observedQty decimal.Decimal, expectedAt, observedAt time.Time, tolerance time.Duration) decimal.Decimal {
	if tolerance <= 0 {
		tolerance = time.Minute
	}
	delta := observedAt.Sub(expectedAt)
	if delta < 0 {
		delta = -delta
	}
	timeScore := decimal.NewFromInt(1).Sub(
		decimal.NewFromInt(int64(delta)).Div(decimal.NewFromInt(int64(tolerance))),
	)
	if timeScore.IsNegative() {
		timeScore = decimal.Zero
	}

	maxQty := decimal.Max(expectedQty.Abs(), observedQty.Abs())
	qtyScore := decimal.NewFromInt(1)
	if maxQty.GreaterThan(decimal.Zero) {
		qtyScore = decimal.NewFromInt(1).Sub(expectedQty.Sub(observedQty).Abs().Div(maxQty))
		if qtyScore.IsNegative() {
			qtyScore = decimal.Zero
		}
	}
	return timeScore.Mul(qtyScore)
}

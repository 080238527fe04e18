package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vendhub/stock-ledger/internal/domain/inventory"
)

func TestMatchScore_ExactoDaUno(t *testing.T) {
	t0 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	score := inventory.MatchScore(decimal.NewFromInt(10), decimal.NewFromInt(10), t0, t0, 15*time.Minute)
	assert.True(t, score.Equal(decimal.NewFromInt(1)), "match exacto debe puntuar 1.0, obtuvo %s", score)
}

func TestMatchScore_DesfaseDentroDeToleranciaCercanoAUno(t *testing.T) {
	// Cantidad exacta, desfase de 2 minutos con tolerancia de 15: score = 13/15.
	t0 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	score := inventory.MatchScore(
		decimal.NewFromInt(10), decimal.NewFromInt(10),
		t0, t0.Add(2*time.Minute), 15*time.Minute,
	)
	assert.True(t, score.GreaterThan(decimal.NewFromFloat(0.85)), "score %s", score)
	assert.True(t, score.LessThan(decimal.NewFromInt(1)))
}

func TestMatchScore_FueraDeToleranciaDaCero(t *testing.T) {
	t0 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	score := inventory.MatchScore(
		decimal.NewFromInt(10), decimal.NewFromInt(10),
		t0, t0.Add(20*time.Minute), 15*time.Minute,
	)
	assert.True(t, score.IsZero())
}

func TestMatchScore_CantidadDistintaReduceElScore(t *testing.T) {
	// expected=10, observed=7 → qtyScore = 1 - 3/10 = 0.7.
	t0 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	score := inventory.MatchScore(decimal.NewFromInt(10), decimal.NewFromInt(7), t0, t0, 15*time.Minute)
	assert.True(t, score.Equal(decimal.NewFromFloat(0.7)), "score %s", score)
}

func TestMatchScore_SimetricoEnElTiempo(t *testing.T) {
	t0 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	antes := inventory.MatchScore(decimal.NewFromInt(5), decimal.NewFromInt(5), t0, t0.Add(-3*time.Minute), 15*time.Minute)
	despues := inventory.MatchScore(decimal.NewFromInt(5), decimal.NewFromInt(5), t0, t0.Add(3*time.Minute), 15*time.Minute)
	assert.True(t, antes.Equal(despues))
}

func TestMatchScore_SiempreAcotadoEntreCeroYUno(t *testing.T) {
	t0 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	casos := []struct {
		qE, qO int64
		offset time.Duration
	}{
		{10, 10, 0},
		{10, 0, 0},
		{0, 10, time.Hour},
		{1, 1000, time.Minute},
		{1000, 1, -time.Hour},
	}
	for _, c := range casos {
		score := inventory.MatchScore(decimal.NewFromInt(c.qE), decimal.NewFromInt(c.qO), t0, t0.Add(c.offset), 15*time.Minute)
		assert.True(t, score.GreaterThanOrEqual(decimal.Zero), "score %s fuera de rango", score)
		assert.True(t, score.LessThanOrEqual(decimal.NewFromInt(1)), "score %s fuera de rango", score)
	}
}

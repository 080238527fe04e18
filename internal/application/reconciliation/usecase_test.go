package reconciliation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/application/reconciliation"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/infrastructure/memory"
	"github.com/vendhub/stock-ledger/pkg/logger"
)

var (
	maquina = entity.Level{Type: entity.LevelMachine, RefID: "vm-7"}
	ventana = struct{ from, to time.Time }{
		from: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		to:   time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
	}
	t0 = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	uc       *reconciliation.UseCase
	ledgerUC *ledger.MovementUseCase
	feed     *memory.SalesFeed
}

// newFixture arma el motor sobre el almacenamiento en memoria con la máquina
// cargada con 100 unidades, tolerancia de 15 minutos y umbral 0.8.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)
	ledgerUC := ledger.NewMovementUseCase(
		txRunner,
		memory.NewPositionRepository(store),
		memory.NewBatchRepository(store),
		memory.NewMovementRepository(store),
	)
	costo := decimal.NewFromInt(5)
	_, err := ledgerUC.ApplyMovement(context.Background(), ledger.MovementInput{
		MovementType: entity.MovementTypeReceipt,
		ProductID:    "prod-1",
		SourceLevel:  maquina,
		Quantity:     decimal.NewFromInt(100),
		UnitCost:     &costo,
	})
	require.NoError(t, err)

	feed := memory.NewSalesFeed()
	uc := reconciliation.NewUseCase(txRunner, memory.NewReconciliationRepository(store), feed, reconciliation.Config{
		Tolerance:      15 * time.Minute,
		ScoreThreshold: decimal.NewFromFloat(0.8),
	}, logger.Nop())
	return &fixture{uc: uc, ledgerUC: ledgerUC, feed: feed}
}

// despachar registra un shipment completado en la máquina con fecha dada.
func (f *fixture) despachar(t *testing.T, qty int64, at time.Time) *entity.StockMovement {
	t.Helper()
	mov, err := f.ledgerUC.ApplyMovement(context.Background(), ledger.MovementInput{
		MovementType: entity.MovementTypeShipment,
		ProductID:    "prod-1",
		SourceLevel:  maquina,
		Quantity:     decimal.NewFromInt(qty),
		MovementDate: at,
	})
	require.NoError(t, err)
	return mov
}

func venta(qty int64, amount int64, at time.Time) entity.SalesRecord {
	return entity.SalesRecord{
		ProductID: "prod-1",
		MachineID: "vm-7",
		Quantity:  decimal.NewFromInt(qty),
		Amount:    decimal.NewFromInt(amount),
		Timestamp: at,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario: esperado 10@t0, observado 10@t0+2min dentro de tolerancia → par
// limpio, sin discrepancia; esperado 10 vs observado 7 → quantity_mismatch con
// discrepancia de monto.
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_ParLimpioNoGeneraDiscrepancia(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)
	f.feed.Add(venta(10, 50, t0.Add(2*time.Minute)))

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.ExpectedCount)
	assert.Equal(t, 1, run.ObservedCount)
	assert.Equal(t, 1, run.MatchedCount)
	assert.Equal(t, 0, run.MismatchCount)

	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestRun_CantidadDistintaEsQuantityMismatch(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0) // costo unitario 5 → monto esperado 50
	f.feed.Add(venta(7, 35, t0))

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)
	require.Equal(t, 1, run.MismatchCount)

	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	mm := mismatches[0]
	assert.Equal(t, entity.MismatchQuantity, mm.MismatchType)
	assert.True(t, mm.ExpectedQuantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, mm.ObservedQuantity.Equal(decimal.NewFromInt(7)))
	assert.True(t, mm.DiscrepancyAmount.Equal(decimal.NewFromInt(15)), "50 - 35")
	assert.True(t, mm.MatchScore.LessThan(decimal.NewFromInt(1)))
}

func TestRun_SinVentaObservadaEsMissingObserved(t *testing.T) {
	f := newFixture(t)
	mov := f.despachar(t, 10, t0)

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)

	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, entity.MismatchMissingObserved, mismatches[0].MismatchType)
	assert.Equal(t, mov.ID, mismatches[0].ExpectedMovementID)
	assert.True(t, mismatches[0].MatchScore.IsZero())
}

func TestRun_VentaSinMovimientoEsMissingExpected(t *testing.T) {
	f := newFixture(t)
	f.feed.Add(venta(3, 15, t0))

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)

	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, entity.MismatchMissingExpected, mismatches[0].MismatchType)
	assert.Empty(t, mismatches[0].ExpectedMovementID)
}

func TestRun_FueraDeToleranciaNoSeEmpareja(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)
	f.feed.Add(venta(10, 50, t0.Add(30*time.Minute))) // fuera de los 15 min

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)

	// Los dos lados quedan huérfanos: missing_observed y missing_expected.
	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, mismatches, 2)
	tipos := []string{mismatches[0].MismatchType, mismatches[1].MismatchType}
	assert.Contains(t, tipos, entity.MismatchMissingObserved)
	assert.Contains(t, tipos, entity.MismatchMissingExpected)
	assert.Equal(t, 0, run.MatchedCount)
}

func TestRun_EmparejaPorTimestampMasCercano(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)
	f.feed.Add(
		venta(10, 50, t0.Add(10*time.Minute)),
		venta(10, 50, t0.Add(1*time.Minute)), // esta es la más cercana
	)

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)
	assert.Equal(t, 1, run.MatchedCount)

	// La lejana queda huérfana como missing_expected.
	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, entity.MismatchMissingExpected, mismatches[0].MismatchType)
	assert.True(t, mismatches[0].OrderTime.Equal(t0.Add(10*time.Minute)))
}

func TestRun_FeedCaidoNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)
	f.feed.Fail(errors.New("timeout del proveedor de pagos"))

	_, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.Error(t, err)

	runs, err := f.uc.ListRuns(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "la corrida abortada no deja registro")
}

func TestRun_VentanaInvalida(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Run(context.Background(), ventana.to, ventana.from, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRun_CorridasSonSoloAgregar(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)
	f.feed.Add(venta(10, 50, t0))

	run1, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)
	run2, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)
	assert.NotEqual(t, run1.ID, run2.ID, "repetir la ventana crea una corrida nueva")

	runs, err := f.uc.ListRuns(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRun_FiltroPorMaquina(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)
	f.feed.Add(venta(10, 50, t0))

	// La máquina filtrada no tiene shipments ni ventas.
	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "vm-otra")
	require.NoError(t, err)
	assert.Equal(t, 0, run.ExpectedCount)
	assert.Equal(t, 0, run.ObservedCount)
}

func TestResolveMismatch_RegistraQuienYEsIdempotente(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)
	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)

	mm, err := f.uc.ResolveMismatch(context.Background(), mismatches[0].ID, "auditor-1")
	require.NoError(t, err)
	assert.True(t, mm.IsResolved)
	assert.Equal(t, "auditor-1", mm.ResolvedBy)
	require.NotNil(t, mm.ResolvedAt)
	primeraVez := *mm.ResolvedAt

	// Resolver dos veces no cambia quién ni cuándo.
	mm, err = f.uc.ResolveMismatch(context.Background(), mismatches[0].ID, "auditor-2")
	require.NoError(t, err)
	assert.Equal(t, "auditor-1", mm.ResolvedBy)
	assert.True(t, mm.ResolvedAt.Equal(primeraVez))

	_, err = f.uc.ResolveMismatch(context.Background(), mismatches[0].ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListMismatches_NoResueltasYMenorScorePrimero(t *testing.T) {
	f := newFixture(t)
	f.despachar(t, 10, t0)                // quedará missing_observed (score 0)
	f.despachar(t, 10, t0.Add(time.Hour)) // par con cantidad distinta
	f.feed.Add(venta(8, 40, t0.Add(time.Hour+time.Minute)))

	run, err := f.uc.Run(context.Background(), ventana.from, ventana.to, "")
	require.NoError(t, err)
	mismatches, err := f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, mismatches, 2)
	assert.True(t, mismatches[0].MatchScore.LessThanOrEqual(mismatches[1].MatchScore))

	// Al resolver la primera, pasa al final de la lista.
	_, err = f.uc.ResolveMismatch(context.Background(), mismatches[0].ID, "auditor-1")
	require.NoError(t, err)
	mismatches, err = f.uc.ListMismatches(context.Background(), run.ID)
	require.NoError(t, err)
	assert.False(t, mismatches[0].IsResolved)
	assert.True(t, mismatches[1].IsResolved)
}

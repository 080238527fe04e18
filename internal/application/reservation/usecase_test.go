package reservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/application/reservation"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/infrastructure/memory"
	"github.com/vendhub/stock-ledger/pkg/logger"
)

var maquina = entity.Level{Type: entity.LevelMachine, RefID: "vm-7"}

// newReservationUC arma el gestor de reservas sobre el almacenamiento en
// memoria con una posición cargada con 100 unidades en la máquina.
func newReservationUC(t *testing.T, autoConfirm bool) (*reservation.UseCase, *ledger.MovementUseCase) {
	t.Helper()
	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)
	ledgerUC := ledger.NewMovementUseCase(
		txRunner,
		memory.NewPositionRepository(store),
		memory.NewBatchRepository(store),
		memory.NewMovementRepository(store),
	)
	costo := decimal.NewFromInt(10)
	_, err := ledgerUC.ApplyMovement(context.Background(), ledger.MovementInput{
		MovementType: entity.MovementTypeReceipt,
		ProductID:    "prod-1",
		SourceLevel:  maquina,
		Quantity:     decimal.NewFromInt(100),
		UnitCost:     &costo,
	})
	require.NoError(t, err)
	uc := reservation.NewUseCase(txRunner, ledgerUC, memory.NewReservationRepository(store), autoConfirm, logger.Nop())
	return uc, ledgerUC
}

func reservar(t *testing.T, uc *reservation.UseCase, qty int64, expiresAt *time.Time) *entity.StockReservation {
	t.Helper()
	res, err := uc.Reserve(context.Background(), reservation.ReserveInput{
		ProductID: "prod-1",
		Level:     maquina,
		Quantity:  decimal.NewFromInt(qty),
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err)
	return res
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario: current=100, reservar 30 deja available=70; reservar 80 más falla
// porque las reservas se apilan contra el disponible, no contra el en-mano.
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_SeApilaContraElDisponible(t *testing.T) {
	uc, ledgerUC := newReservationUC(t, false)

	res := reservar(t, uc, 30, nil)
	assert.Equal(t, entity.ReservationStatusPending, res.Status)

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(100)), "reservar no toca el en-mano")
	assert.True(t, pos.AvailableQuantity().Equal(decimal.NewFromInt(70)))

	_, err = uc.Reserve(context.Background(), reservation.ReserveInput{
		ProductID: "prod-1",
		Level:     maquina,
		Quantity:  decimal.NewFromInt(80),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	// El fallo no dejó rastro: el disponible sigue en 70.
	pos, err = ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.AvailableQuantity().Equal(decimal.NewFromInt(70)))
}

func TestReserve_AutoConfirmCreaConfirmada(t *testing.T) {
	uc, _ := newReservationUC(t, true)
	res := reservar(t, uc, 10, nil)
	assert.Equal(t, entity.ReservationStatusConfirmed, res.Status)
}

func TestReserve_PosicionInexistenteEsNotFound(t *testing.T) {
	uc, _ := newReservationUC(t, false)
	_, err := uc.Reserve(context.Background(), reservation.ReserveInput{
		ProductID: "prod-nunca-visto",
		Level:     maquina,
		Quantity:  decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFulfill_ParcialYCompleto(t *testing.T) {
	uc, ledgerUC := newReservationUC(t, true)
	res := reservar(t, uc, 30, nil)

	res, err := uc.Fulfill(context.Background(), res.ID, decimal.NewFromInt(10), "op-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusPartiallyFulfilled, res.Status)
	assert.True(t, res.Outstanding().Equal(decimal.NewFromInt(20)))

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(90)), "el cumplimiento sí saca stock")
	assert.True(t, pos.ReservedQuantity.Equal(decimal.NewFromInt(20)))

	res, err = uc.Fulfill(context.Background(), res.ID, decimal.NewFromInt(20), "op-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusFulfilled, res.Status)

	// Ida y vuelta completa: reservado libre y en-mano descontado exacto.
	pos, err = ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.ReservedQuantity.IsZero())
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(70)))
}

func TestFulfill_EmiteShipmentEtiquetado(t *testing.T) {
	uc, ledgerUC := newReservationUC(t, true)
	res := reservar(t, uc, 5, nil)

	_, err := uc.Fulfill(context.Background(), res.ID, decimal.NewFromInt(5), "op-1")
	require.NoError(t, err)

	movs, err := ledgerUC.ListMovements(context.Background(), "prod-1", maquina, nil, nil, 50, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2) // receipt + shipment
	shipment := movs[0]
	assert.Equal(t, entity.MovementTypeShipment, shipment.MovementType)
	assert.Equal(t, res.ID, shipment.ReservationID)
	assert.True(t, shipment.Quantity.Equal(decimal.NewFromInt(-5)))
}

func TestFulfill_NoSuperaLoPendiente(t *testing.T) {
	uc, _ := newReservationUC(t, true)
	res := reservar(t, uc, 10, nil)

	_, err := uc.Fulfill(context.Background(), res.ID, decimal.NewFromInt(11), "op-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFulfill_ReservaTerminalEsTransicionInvalida(t *testing.T) {
	uc, _ := newReservationUC(t, true)
	res := reservar(t, uc, 10, nil)
	_, err := uc.Cancel(context.Background(), res.ID)
	require.NoError(t, err)

	_, err = uc.Fulfill(context.Background(), res.ID, decimal.NewFromInt(1), "op-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel_LiberaYEsIdempotente(t *testing.T) {
	uc, ledgerUC := newReservationUC(t, false)
	res := reservar(t, uc, 30, nil)

	cancelled, err := uc.Cancel(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCancelled, cancelled.Status)

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.ReservedQuantity.IsZero(), "cancelar libera lo pendiente")

	// Segundo cancel: no-op, no error, y no libera dos veces.
	again, err := uc.Cancel(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCancelled, again.Status)
	pos, err = ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.ReservedQuantity.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario: reserva con expires_at en el pasado; el barrido la marca expired y
// devuelve el reservado a la posición. Re-ejecutar el barrido es inocuo.
// ──────────────────────────────────────────────────────────────────────────────

func TestExpireDue_BarridoLiberaYEsReentrante(t *testing.T) {
	uc, ledgerUC := newReservationUC(t, true)
	vencida := time.Now().Add(-time.Hour)
	vigente := time.Now().Add(time.Hour)
	resVencida := reservar(t, uc, 30, &vencida)
	reservar(t, uc, 10, &vigente)

	expired, err := uc.ExpireDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, expired, "solo la vencida")

	got, err := uc.GetByID(context.Background(), resVencida.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusExpired, got.Status)

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.ReservedQuantity.Equal(decimal.NewFromInt(10)), "la vigente sigue comprometida")

	// Segundo barrido: idempotente, nada cambia.
	expired, err = uc.ExpireDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
	pos, err = ledgerUC.GetPosition(context.Background(), "prod-1", maquina)
	require.NoError(t, err)
	assert.True(t, pos.ReservedQuantity.Equal(decimal.NewFromInt(10)))
}

func TestExpireDue_SinVencimientoNuncaExpira(t *testing.T) {
	uc, _ := newReservationUC(t, true)
	res := reservar(t, uc, 10, nil)

	expired, err := uc.ExpireDue(context.Background(), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	got, err := uc.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusConfirmed, got.Status)
}

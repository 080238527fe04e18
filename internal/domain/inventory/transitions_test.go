package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/inventory"
)

func TestNextReservationStatus_CaminosValidos(t *testing.T) {
	next, err := inventory.NextReservationStatus(entity.ReservationStatusPending, inventory.ReservationActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusConfirmed, next)

	next, err = inventory.NextReservationStatus(entity.ReservationStatusConfirmed, inventory.ReservationActionFulfill)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusPartiallyFulfilled, next)

	// fulfill es re-entrante: parciales sucesivos se quedan en partially_fulfilled.
	next, err = inventory.NextReservationStatus(entity.ReservationStatusPartiallyFulfilled, inventory.ReservationActionFulfill)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusPartiallyFulfilled, next)
}

func TestNextReservationStatus_TerminalesNoTransicionan(t *testing.T) {
	terminales := []string{
		entity.ReservationStatusFulfilled,
		entity.ReservationStatusCancelled,
		entity.ReservationStatusExpired,
	}
	acciones := []string{
		inventory.ReservationActionConfirm,
		inventory.ReservationActionFulfill,
		inventory.ReservationActionCancel,
		inventory.ReservationActionExpire,
	}
	for _, estado := range terminales {
		for _, accion := range acciones {
			_, err := inventory.NextReservationStatus(estado, accion)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s + %s", estado, accion)
		}
	}
}

func TestNextAdjustmentStatus_ApplyRequiereAprobacion(t *testing.T) {
	// pending + apply es ilegal: el apply solo procede desde approved.
	_, err := inventory.NextAdjustmentStatus(entity.AdjustmentStatusPending, inventory.AdjustmentActionApply)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	next, err := inventory.NextAdjustmentStatus(entity.AdjustmentStatusApproved, inventory.AdjustmentActionApply)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApplied, next)
}

func TestNextAdjustmentStatus_RechazoYCancelacion(t *testing.T) {
	next, err := inventory.NextAdjustmentStatus(entity.AdjustmentStatusPending, inventory.AdjustmentActionReject)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusRejected, next)

	next, err = inventory.NextAdjustmentStatus(entity.AdjustmentStatusApproved, inventory.AdjustmentActionCancel)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusCancelled, next)

	// approved no puede rechazarse; rejected no puede aprobarse.
	_, err = inventory.NextAdjustmentStatus(entity.AdjustmentStatusApproved, inventory.AdjustmentActionReject)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = inventory.NextAdjustmentStatus(entity.AdjustmentStatusRejected, inventory.AdjustmentActionApprove)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

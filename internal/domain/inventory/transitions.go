package inventory

import (
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// Tablas de transición de los workflows. Centralizar la validación evita
// chequeos de estado dispersos por los call sites: toda transición ilegal
// falla igual, con ErrInvalidTransition.

// Acciones sobre reservas.
const (
	ReservationActionConfirm = "confirm"
	ReservationActionFulfill = "fulfill"
	ReservationActionCancel  = "cancel"
	ReservationActionExpire  = "expire"
)

// Acciones sobre ajustes.
const (
	AdjustmentActionApprove = "approve"
	AdjustmentActionReject  = "reject"
	AdjustmentActionApply   = "apply"
	AdjustmentActionCancel  = "cancel"
)

type transitionKey struct {
	from   string
	action string
}

var reservationTransitions = map[transitionKey]string{
	{entity.ReservationStatusPending, ReservationActionConfirm}:            entity.ReservationStatusConfirmed,
	{entity.ReservationStatusPending, ReservationActionFulfill}:            entity.ReservationStatusPartiallyFulfilled,
	{entity.ReservationStatusConfirmed, ReservationActionFulfill}:          entity.ReservationStatusPartiallyFulfilled,
	{entity.ReservationStatusPartiallyFulfilled, ReservationActionFulfill}: entity.ReservationStatusPartiallyFulfilled,
	{entity.ReservationStatusPending, ReservationActionCancel}:             entity.ReservationStatusCancelled,
	{entity.ReservationStatusConfirmed, ReservationActionCancel}:           entity.ReservationStatusCancelled,
	{entity.ReservationStatusPartiallyFulfilled, ReservationActionCancel}:  entity.ReservationStatusCancelled,
	{entity.ReservationStatusPending, ReservationActionExpire}:             entity.ReservationStatusExpired,
	{entity.ReservationStatusConfirmed, ReservationActionExpire}:           entity.ReservationStatusExpired,
	{entity.ReservationStatusPartiallyFulfilled, ReservationActionExpire}:  entity.ReservationStatusExpired,
}

var adjustmentTransitions = map[transitionKey]string{
	{entity.AdjustmentStatusPending, AdjustmentActionApprove}: entity.AdjustmentStatusApproved,
	{entity.AdjustmentStatusPending, AdjustmentActionReject}:  entity.AdjustmentStatusRejected,
	{entity.AdjustmentStatusPending, AdjustmentActionCancel}:  entity.AdjustmentStatusCancelled,
	{entity.AdjustmentStatusApproved, AdjustmentActionCancel}: entity.AdjustmentStatusCancelled,
	{entity.AdjustmentStatusApproved, AdjustmentActionApply}:  entity.AdjustmentStatusApplied,
}

// NextReservationStatus devuelve el estado destino de una acción sobre una
// reserva, o ErrInvalidTransition si la acción no es válida desde el estado.
func NextReservationStatus(from, action string) (string, error) {
	to, ok := reservationTransitions[transitionKey{from, action}]
	if !ok {
		return "", domain.ErrInvalidTransition
	}
	return to, nil
}

// NextAdjustmentStatus devuelve el estado destino de una acción sobre un
// ajuste, o ErrInvalidTransition si la acción no es válida desde el estado.
func NextAdjustmentStatus(from, action string) (string, error) {
	to, ok := adjustmentTransitions[transitionKey{from, action}]
	if !ok {
		return "", domain.ErrInvalidTransition
	}
	return to, nil
}

package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vendhub/stock-ledger/internal/application/dto"
	"github.com/vendhub/stock-ledger/internal/application/reservation"
)

// ReservationHandler maneja las peticiones HTTP de reservas (protegido).
type ReservationHandler struct {
	uc *reservation.UseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *reservation.UseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

// Reserve godoc
// @Summary      Crear una reserva de stock
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "product_id, level, quantity; expires_at opcional"
// @Success      201   {object}  dto.ReservationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Reserve(c.Context(), reservation.ReserveInput{
		ProductID:   in.ProductID,
		Level:       in.Level.ToLevel(),
		Quantity:    in.Quantity,
		ReservedFor: in.ReservedFor,
		ExpiresAt:   in.ExpiresAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReservationResponseFrom(res))
}

// GetByID godoc
// @Summary      Consultar una reserva
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	res, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReservationResponseFrom(res))
}

// Confirm godoc
// @Summary      Confirmar una reserva pendiente
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c *fiber.Ctx) error {
	res, err := h.uc.Confirm(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReservationResponseFrom(res))
}

// Fulfill godoc
// @Summary      Cumplir (total o parcialmente) una reserva
// @Description  Descuenta el stock vía un movimiento shipment atado a la reserva,
//
//	en la misma transacción.
//
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la reserva"
// @Param        body  body  dto.FulfillRequest  true  "quantity <= pendiente"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/fulfill [post]
func (h *ReservationHandler) Fulfill(c *fiber.Ctx) error {
	operatorID := GetOperatorID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.FulfillRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Fulfill(c.Context(), c.Params("id"), in.Quantity, operatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReservationResponseFrom(res))
}

// Cancel godoc
// @Summary      Cancelar una reserva
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	res, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReservationResponseFrom(res))
}

// ExpireDue godoc
// @Summary      Expirar reservas vencidas
// @Description  Barrido idempotente: libera el stock de reservas con expires_at
//
//	en el pasado. Pensado para invocarse desde un scheduler externo.
//
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /api/reservations/expire-due [post]
func (h *ReservationHandler) ExpireDue(c *fiber.Ctx) error {
	expired, err := h.uc.ExpireDue(c.Context(), time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"expired": expired})
}

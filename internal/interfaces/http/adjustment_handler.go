package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vendhub/stock-ledger/internal/application/adjustment"
	"github.com/vendhub/stock-ledger/internal/application/dto"
)

// AdjustmentHandler maneja las peticiones HTTP de ajustes de inventario (protegido).
type AdjustmentHandler struct {
	uc *adjustment.UseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(uc *adjustment.UseCase) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc}
}

// Create godoc
// @Summary      Solicitar un ajuste de inventario
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "product_id, level, old_quantity, new_quantity, reason"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	operatorID := GetOperatorID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	requiresApproval := true
	if in.RequiresApproval != nil {
		requiresApproval = *in.RequiresApproval
	}
	adj, err := h.uc.Create(c.Context(), adjustment.CreateInput{
		ProductID:        in.ProductID,
		Level:            in.Level.ToLevel(),
		OldQuantity:      in.OldQuantity,
		NewQuantity:      in.NewQuantity,
		Reason:           in.Reason,
		RequiresApproval: requiresApproval,
		ActualCountID:    in.ActualCountID,
		RequestedBy:      operatorID,
		Notes:            in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdjustmentResponseFrom(adj))
}

// GetByID godoc
// @Summary      Consultar un ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	adj, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AdjustmentResponseFrom(adj))
}

// List godoc
// @Summary      Listar ajustes
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pending | approved | rejected | applied | cancelled; vacío = todos"
// @Success      200  {array}  dto.AdjustmentResponse
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	adjustments, err := h.uc.ListByStatus(c.Context(), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.AdjustmentResponse, 0, len(adjustments))
	for _, a := range adjustments {
		out = append(out, dto.AdjustmentResponseFrom(a))
	}
	return c.JSON(fiber.Map{"total": len(out), "adjustments": out})
}

// Approve godoc
// @Summary      Aprobar un ajuste pendiente
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/approve [post]
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	operatorID := GetOperatorID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	adj, err := h.uc.Approve(c.Context(), c.Params("id"), operatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AdjustmentResponseFrom(adj))
}

// Reject godoc
// @Summary      Rechazar un ajuste pendiente
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/reject [post]
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	operatorID := GetOperatorID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	adj, err := h.uc.Reject(c.Context(), c.Params("id"), operatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AdjustmentResponseFrom(adj))
}

// Cancel godoc
// @Summary      Cancelar un ajuste no aplicado
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/cancel [post]
func (h *AdjustmentHandler) Cancel(c *fiber.Ctx) error {
	adj, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AdjustmentResponseFrom(adj))
}

// Apply godoc
// @Summary      Aplicar un ajuste aprobado al libro
// @Description  Genera el movimiento adjustment y muta la posición en la misma
//
//	transacción. Idempotente: un segundo apply devuelve 409 ALREADY_APPLIED.
//
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/apply [post]
func (h *AdjustmentHandler) Apply(c *fiber.Ctx) error {
	operatorID := GetOperatorID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	adj, err := h.uc.Apply(c.Context(), c.Params("id"), operatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AdjustmentResponseFrom(adj))
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vendhub/stock-ledger/internal/application/dto"
	"github.com/vendhub/stock-ledger/internal/application/reconciliation"
)

// ReconciliationHandler maneja las peticiones HTTP de conciliación de ventas (protegido).
type ReconciliationHandler struct {
	uc *reconciliation.UseCase
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(uc *reconciliation.UseCase) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc}
}

// Run godoc
// @Summary      Ejecutar una corrida de conciliación
// @Description  Empareja los shipments de máquina del libro contra el feed de
//
//	ventas en la ventana dada y registra las discrepancias.
//
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RunReconciliationRequest  true  "from, to; machine_id opcional"
// @Success      201   {object}  dto.ReconciliationRunResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/reconciliation/runs [post]
func (h *ReconciliationHandler) Run(c *fiber.Ctx) error {
	var in dto.RunReconciliationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.From.IsZero() || in.To.IsZero() || !in.From.Before(in.To) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ventana inválida: from debe ser anterior a to"})
	}
	run, err := h.uc.Run(c.Context(), in.From, in.To, in.MachineID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReconciliationRunResponseFrom(run))
}

// GetRun godoc
// @Summary      Consultar una corrida
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la corrida"
// @Success      200  {object}  dto.ReconciliationRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/runs/{id} [get]
func (h *ReconciliationHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.uc.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReconciliationRunResponseFrom(run))
}

// ListRuns godoc
// @Summary      Listar corridas de conciliación
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReconciliationRunResponse
// @Router       /api/reconciliation/runs [get]
func (h *ReconciliationHandler) ListRuns(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	runs, err := h.uc.ListRuns(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ReconciliationRunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, dto.ReconciliationRunResponseFrom(r))
	}
	return c.JSON(fiber.Map{"total": len(out), "runs": out})
}

// ListMismatches godoc
// @Summary      Discrepancias de una corrida
// @Description  No resueltas primero, por score ascendente (menor confianza arriba).
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la corrida"
// @Success      200  {array}   dto.MismatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/runs/{id}/mismatches [get]
func (h *ReconciliationHandler) ListMismatches(c *fiber.Ctx) error {
	mismatches, err := h.uc.ListMismatches(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MismatchResponse, 0, len(mismatches))
	for _, m := range mismatches {
		out = append(out, dto.MismatchResponseFrom(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "mismatches": out})
}

// ResolveMismatch godoc
// @Summary      Marcar una discrepancia como resuelta
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la discrepancia"
// @Success      200  {object}  dto.MismatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/mismatches/{id}/resolve [post]
func (h *ReconciliationHandler) ResolveMismatch(c *fiber.Ctx) error {
	operatorID := GetOperatorID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	mismatch, err := h.uc.ResolveMismatch(c.Context(), c.Params("id"), operatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MismatchResponseFrom(mismatch))
}

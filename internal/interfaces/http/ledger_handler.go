package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vendhub/stock-ledger/internal/application/dto"
	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP del libro de stock (protegido).
type LedgerHandler struct {
	uc            *ledger.MovementUseCase
	expiryHorizon time.Duration
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.MovementUseCase, expiryHorizon time.Duration) *LedgerHandler {
	return &LedgerHandler{uc: uc, expiryHorizon: expiryHorizon}
}

// levelFromQuery arma un nivel desde los query params level_type/level_ref_id.
func levelFromQuery(c *fiber.Ctx) entity.Level {
	return entity.Level{Type: c.Query("level_type"), RefID: c.Query("level_ref_id")}
}

// ApplyMovement godoc
// @Summary      Registrar un movimiento de stock
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyMovementRequest  true  "movement_type, product_id, source_level, quantity; destination_level solo en transfer; unit_cost obligatorio en receipt/production/assembly"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) ApplyMovement(c *fiber.Ctx) error {
	operatorID := GetOperatorID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := ledger.MovementInput{
		MovementType:      in.MovementType,
		ProductID:         in.ProductID,
		SourceLevel:       in.SourceLevel.ToLevel(),
		BatchID:           in.BatchID,
		BatchNumber:       in.BatchNumber,
		Quantity:          in.Quantity,
		UnitCost:          in.UnitCost,
		ProductionDate:    in.ProductionDate,
		ExpiryDate:        in.ExpiryDate,
		ReferenceDocument: in.ReferenceDocument,
		CreatedBy:         operatorID,
	}
	if in.DestinationLevel != nil {
		dl := in.DestinationLevel.ToLevel()
		input.DestinationLevel = &dl
	}
	if in.MovementDate != nil {
		input.MovementDate = *in.MovementDate
	}
	movement, err := h.uc.ApplyMovement(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResponseFrom(movement))
}

// ListMovements godoc
// @Summary      Historial de movimientos de una posición
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        level_type    query  string  true   "warehouse | operator | machine"
// @Param        level_ref_id  query  string  true   "Referencia del nivel"
// @Param        from          query  string  false  "RFC3339; inicio de la ventana"
// @Param        to            query  string  false  "RFC3339; fin de la ventana"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	level := levelFromQuery(c)
	productID := c.Query("product_id")
	if productID == "" || !level.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, level_type y level_ref_id son obligatorios"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC3339)"})
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC3339)"})
	}
	movements, err := h.uc.ListMovements(c.Context(), productID, level, from, to, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.MovementResponseFrom(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// GetPosition godoc
// @Summary      Consultar una posición de stock
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        level_type    query  string  true  "warehouse | operator | machine"
// @Param        level_ref_id  query  string  true  "Referencia del nivel"
// @Success      200  {object}  dto.PositionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/positions [get]
func (h *LedgerHandler) GetPosition(c *fiber.Ctx) error {
	level := levelFromQuery(c)
	productID := c.Query("product_id")
	if productID == "" || !level.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, level_type y level_ref_id son obligatorios"})
	}
	position, err := h.uc.GetPosition(c.Context(), productID, level)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.PositionResponseFrom(position))
}

// ListPositions godoc
// @Summary      Inventario en mano de un nivel
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        level_type    query  string  true  "warehouse | operator | machine"
// @Param        level_ref_id  query  string  true  "Referencia del nivel"
// @Success      200  {array}  dto.PositionResponse
// @Router       /api/ledger/positions/by-level [get]
func (h *LedgerHandler) ListPositions(c *fiber.Ctx) error {
	level := levelFromQuery(c)
	positions, err := h.uc.ListPositions(c.Context(), level)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PositionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, dto.PositionResponseFrom(p))
	}
	return c.JSON(fiber.Map{"total": len(out), "positions": out})
}

// CheckConsistency godoc
// @Summary      Chequeo de consistencia del libro para una posición
// @Description  Compara CurrentQuantity contra el saldo inicial más la suma con
//
//	signo de los movimientos completados.
//
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        level_type    query  string  true  "warehouse | operator | machine"
// @Param        level_ref_id  query  string  true  "Referencia del nivel"
// @Success      200  {object}  dto.ConsistencyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/positions/consistency [get]
func (h *LedgerHandler) CheckConsistency(c *fiber.Ctx) error {
	level := levelFromQuery(c)
	productID := c.Query("product_id")
	if productID == "" || !level.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, level_type y level_ref_id son obligatorios"})
	}
	report, err := h.uc.CheckConsistency(c.Context(), productID, level)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ConsistencyResponse{
		ProductID:         report.ProductID,
		Level:             dto.LevelRefFrom(report.Level),
		CurrentQuantity:   report.CurrentQuantity,
		BootstrapQuantity: report.BootstrapQuantity,
		LedgerSum:         report.LedgerSum,
		Consistent:        report.Consistent,
	})
}

// SetQuarantine godoc
// @Summary      Poner o sacar un lote de cuarentena
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del lote"
// @Param        body  body  dto.QuarantineRequest  true  "quarantined"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/batches/{id}/quarantine [patch]
func (h *LedgerHandler) SetQuarantine(c *fiber.Ctx) error {
	var in dto.QuarantineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	batch, err := h.uc.SetBatchQuarantine(c.Context(), c.Params("id"), in.Quarantined)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BatchResponseFrom(batch))
}

// ListExpiringBatches godoc
// @Summary      Lotes próximos a vencer
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        level_type    query  string  false  "Filtrar por nivel (con level_ref_id)"
// @Param        level_ref_id  query  string  false  "Referencia del nivel"
// @Param        days          query  int     false  "Horizonte en días; 0 = horizonte configurado"
// @Success      200  {array}  dto.BatchResponse
// @Router       /api/ledger/batches/expiring [get]
func (h *LedgerHandler) ListExpiringBatches(c *fiber.Ctx) error {
	horizon := h.expiryHorizon
	if days := c.QueryInt("days"); days > 0 {
		horizon = time.Duration(days) * 24 * time.Hour
	}
	var level *entity.Level
	if c.Query("level_type") != "" || c.Query("level_ref_id") != "" {
		l := levelFromQuery(c)
		if !l.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "nivel inválido"})
		}
		level = &l
	}
	batches, err := h.uc.ListExpiringBatches(c.Context(), level, horizon)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.BatchResponseFrom(b))
	}
	return c.JSON(fiber.Map{"total": len(out), "batches": out})
}

// parseTimeQuery lee un query param RFC3339 opcional.
func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

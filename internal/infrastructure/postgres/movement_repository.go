package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx). El libro es solo-agregar: no hay UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, movement_type, status, product_id, source_level_type, source_level_ref_id, dest_level_type, dest_level_ref_id, batch_id, allocations, quantity, unit_cost, total_cost, movement_date, reference_document, reservation_id, adjustment_id, created_at, created_by`

// Create persiste un asiento del libro. Las asignaciones por lote van como
// JSONB en la misma fila: se leen siempre junto al movimiento, nunca solas.
func (r *MovementRepo) Create(movement *entity.StockMovement) error {
	var destType, destRef *string
	if movement.DestinationLevel != nil {
		destType = &movement.DestinationLevel.Type
		destRef = &movement.DestinationLevel.RefID
	}
	allocations, err := json.Marshal(movement.Allocations)
	if err != nil {
		return fmt.Errorf("marshal allocations: %w", err)
	}
	var batchID *string
	if movement.BatchID != "" {
		batchID = &movement.BatchID
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err = r.q.Exec(context.Background(), query,
		movement.ID, movement.MovementType, movement.Status, movement.ProductID,
		movement.SourceLevel.Type, movement.SourceLevel.RefID, destType, destRef,
		batchID, allocations, movement.Quantity, movement.UnitCost, movement.TotalCost,
		movement.MovementDate, nullIfEmpty(movement.ReferenceDocument),
		nullIfEmpty(movement.ReservationID), nullIfEmpty(movement.AdjustmentID),
		movement.CreatedAt, nullIfEmpty(movement.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var destType, destRef, batchID, reference, reservationID, adjustmentID, createdBy *string
	var allocations []byte
	err := row.Scan(
		&m.ID, &m.MovementType, &m.Status, &m.ProductID,
		&m.SourceLevel.Type, &m.SourceLevel.RefID, &destType, &destRef,
		&batchID, &allocations, &m.Quantity, &m.UnitCost, &m.TotalCost,
		&m.MovementDate, &reference, &reservationID, &adjustmentID,
		&m.CreatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	if destType != nil && destRef != nil {
		m.DestinationLevel = &entity.Level{Type: *destType, RefID: *destRef}
	}
	if len(allocations) > 0 {
		if err := json.Unmarshal(allocations, &m.Allocations); err != nil {
			return nil, fmt.Errorf("unmarshal allocations: %w", err)
		}
	}
	m.BatchID = deref(batchID)
	m.ReferenceDocument = deref(reference)
	m.ReservationID = deref(reservationID)
	m.AdjustmentID = deref(adjustmentID)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	return scanMovement(r.q.QueryRow(context.Background(), query, id))
}

// ListByPosition lista movimientos que tocan una posición (origen o destino)
// en un rango de fechas, más recientes primero.
func (r *MovementRepo) ListByPosition(productID string, level entity.Level, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE product_id = $1
		  AND ((source_level_type = $2 AND source_level_ref_id = $3)
		    OR (dest_level_type = $2 AND dest_level_ref_id = $3))`
	args := []any{productID, level.Type, level.RefID}
	pos := 4
	if from != nil {
		query += fmt.Sprintf(" AND movement_date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND movement_date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY movement_date DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// SumSignedForPosition suma las cantidades con signo de los movimientos
// completados sobre una posición. El efecto en el destino de un traslado es
// el inverso del registrado (la cantidad es relativa al origen).
func (r *MovementRepo) SumSignedForPosition(productID string, level entity.Level) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN source_level_type = $2 AND source_level_ref_id = $3
			     THEN quantity
			     ELSE -quantity
			END), 0)
		FROM stock_movements
		WHERE product_id = $1 AND status = 'completed'
		  AND ((source_level_type = $2 AND source_level_ref_id = $3)
		    OR (dest_level_type = $2 AND dest_level_ref_id = $3))`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, productID, level.Type, level.RefID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

// ListMachineShipments lista shipments completados con origen en máquinas
// dentro de la ventana (lado esperado de la conciliación).
func (r *MovementRepo) ListMachineShipments(from, to time.Time, machineRefID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE movement_type = 'shipment' AND status = 'completed'
		  AND source_level_type = 'machine'
		  AND movement_date >= $1 AND movement_date < $2`
	args := []any{from, to}
	if machineRefID != "" {
		query += ` AND source_level_ref_id = $3`
		args = append(args, machineRefID)
	}
	query += ` ORDER BY movement_date ASC`
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list machine shipments: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo implementación de AdjustmentRepository sobre PostgreSQL
// (usable con pool o tx).
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

const adjustmentColumns = `id, product_id, level_type, level_ref_id, old_quantity, new_quantity, adjustment_quantity, reason, status, requires_approval, actual_count_id, requested_by, approved_by, approved_at, applied_at, notes, created_at, updated_at`

func scanAdjustment(row pgx.Row) (*entity.InventoryAdjustment, error) {
	var a entity.InventoryAdjustment
	var actualCountID, requestedBy, approvedBy, notes *string
	err := row.Scan(
		&a.ID, &a.ProductID, &a.Level.Type, &a.Level.RefID,
		&a.OldQuantity, &a.NewQuantity, &a.AdjustmentQuantity, &a.Reason, &a.Status,
		&a.RequiresApproval, &actualCountID, &requestedBy, &approvedBy,
		&a.ApprovedAt, &a.AppliedAt, &notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan adjustment: %w", err)
	}
	a.ActualCountID = deref(actualCountID)
	a.RequestedBy = deref(requestedBy)
	a.ApprovedBy = deref(approvedBy)
	a.Notes = deref(notes)
	return &a, nil
}

// Create inserta una solicitud de ajuste.
func (r *AdjustmentRepo) Create(adjustment *entity.InventoryAdjustment) error {
	query := `
		INSERT INTO inventory_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(context.Background(), query,
		adjustment.ID, adjustment.ProductID, adjustment.Level.Type, adjustment.Level.RefID,
		adjustment.OldQuantity, adjustment.NewQuantity, adjustment.AdjustmentQuantity,
		adjustment.Reason, adjustment.Status, adjustment.RequiresApproval,
		nullIfEmpty(adjustment.ActualCountID), nullIfEmpty(adjustment.RequestedBy),
		nullIfEmpty(adjustment.ApprovedBy), adjustment.ApprovedAt, adjustment.AppliedAt,
		nullIfEmpty(adjustment.Notes), adjustment.CreatedAt, adjustment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create adjustment: %w", err)
	}
	return nil
}

// GetByID obtiene un ajuste por ID.
func (r *AdjustmentRepo) GetByID(id string) (*entity.InventoryAdjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM inventory_adjustments WHERE id = $1 AND deleted_at IS NULL`
	return scanAdjustment(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene un ajuste bloqueando la fila. Apply depende de este
// bloqueo para que la guarda applied_at sobreviva reintentos concurrentes.
func (r *AdjustmentRepo) GetByIDForUpdate(id string) (*entity.InventoryAdjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM inventory_adjustments WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanAdjustment(r.q.QueryRow(context.Background(), query, id))
}

// Update persiste un ajuste ya bloqueado.
func (r *AdjustmentRepo) Update(adjustment *entity.InventoryAdjustment) error {
	query := `
		UPDATE inventory_adjustments
		SET status = $2, approved_by = $3, approved_at = $4, applied_at = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query,
		adjustment.ID, adjustment.Status, nullIfEmpty(adjustment.ApprovedBy),
		adjustment.ApprovedAt, adjustment.AppliedAt, adjustment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update adjustment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByStatus lista ajustes por estado; vacío = todos. Más recientes primero.
func (r *AdjustmentRepo) ListByStatus(status string, limit, offset int) ([]*entity.InventoryAdjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM inventory_adjustments WHERE deleted_at IS NULL`
	args := []any{}
	pos := 1
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

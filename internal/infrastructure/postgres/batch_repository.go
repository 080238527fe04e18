package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL
// (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, product_id, level_type, level_ref_id, batch_number, initial_quantity, current_quantity, reserved_quantity, unit_cost, production_date, expiry_date, received_at, is_quarantined, retired_at, created_at, updated_at`

func scanBatch(row pgx.Row) (*entity.InventoryBatch, error) {
	var b entity.InventoryBatch
	err := row.Scan(
		&b.ID, &b.ProductID, &b.Level.Type, &b.Level.RefID, &b.BatchNumber,
		&b.InitialQuantity, &b.CurrentQuantity, &b.ReservedQuantity, &b.UnitCost,
		&b.ProductionDate, &b.ExpiryDate, &b.ReceivedAt,
		&b.IsQuarantined, &b.RetiredAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	return &b, nil
}

// Create inserta un lote nuevo.
func (r *BatchRepo) Create(batch *entity.InventoryBatch) error {
	query := `
		INSERT INTO inventory_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(context.Background(), query,
		batch.ID, batch.ProductID, batch.Level.Type, batch.Level.RefID, batch.BatchNumber,
		batch.InitialQuantity, batch.CurrentQuantity, batch.ReservedQuantity, batch.UnitCost,
		batch.ProductionDate, batch.ExpiryDate, batch.ReceivedAt,
		batch.IsQuarantined, batch.RetiredAt, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID o ErrNotFound.
func (r *BatchRepo) GetByID(id string) (*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE id = $1 AND deleted_at IS NULL`
	return scanBatch(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene un lote bloqueando la fila.
func (r *BatchRepo) GetByIDForUpdate(id string) (*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanBatch(r.q.QueryRow(context.Background(), query, id))
}

// GetByNumber busca un lote por número en una posición; nil si no existe
// (a diferencia de GetByID: la ausencia aquí es un caso normal del transfer).
func (r *BatchRepo) GetByNumber(productID string, level entity.Level, batchNumber string) (*entity.InventoryBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM inventory_batches
		WHERE product_id = $1 AND level_type = $2 AND level_ref_id = $3 AND batch_number = $4 AND deleted_at IS NULL
		FOR UPDATE`
	b, err := scanBatch(r.q.QueryRow(context.Background(), query, productID, level.Type, level.RefID, batchNumber))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// ListForAllocation devuelve los lotes de una posición bloqueados para update,
// en el orden FIFO-por-vencimiento que consume el asignador. Incluye
// retirados y en cuarentena: el filtro de elegibilidad es del dominio.
func (r *BatchRepo) ListForAllocation(productID string, level entity.Level) ([]*entity.InventoryBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM inventory_batches
		WHERE product_id = $1 AND level_type = $2 AND level_ref_id = $3 AND deleted_at IS NULL
		ORDER BY expiry_date ASC NULLS LAST, received_at ASC
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, productID, level.Type, level.RefID)
	if err != nil {
		return nil, fmt.Errorf("list batches for allocation: %w", err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

// Update persiste un lote ya bloqueado.
func (r *BatchRepo) Update(batch *entity.InventoryBatch) error {
	query := `
		UPDATE inventory_batches
		SET initial_quantity = $2, current_quantity = $3, reserved_quantity = $4,
		    unit_cost = $5, is_quarantined = $6, retired_at = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query,
		batch.ID, batch.InitialQuantity, batch.CurrentQuantity, batch.ReservedQuantity,
		batch.UnitCost, batch.IsQuarantined, batch.RetiredAt, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListExpiring lista lotes activos que vencen antes del corte, los más
// próximos a vencer primero. level nil = todos los niveles.
func (r *BatchRepo) ListExpiring(level *entity.Level, before time.Time) ([]*entity.InventoryBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM inventory_batches
		WHERE deleted_at IS NULL AND retired_at IS NULL
		  AND expiry_date IS NOT NULL AND expiry_date < $1`
	args := []any{before}
	if level != nil {
		query += ` AND level_type = $2 AND level_ref_id = $3`
		args = append(args, level.Type, level.RefID)
	}
	query += ` ORDER BY expiry_date ASC`
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expiring batches: %w", err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

func collectBatches(rows pgx.Rows) ([]*entity.InventoryBatch, error) {
	var list []*entity.InventoryBatch
	for rows.Next() {
		var b entity.InventoryBatch
		if err := rows.Scan(
			&b.ID, &b.ProductID, &b.Level.Type, &b.Level.RefID, &b.BatchNumber,
			&b.InitialQuantity, &b.CurrentQuantity, &b.ReservedQuantity, &b.UnitCost,
			&b.ProductionDate, &b.ExpiryDate, &b.ReceivedAt,
			&b.IsQuarantined, &b.RetiredAt, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

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

var _ repository.PositionRepository = (*PositionRepo)(nil)

// PositionRepo implementación de PositionRepository sobre PostgreSQL
// (usable con pool o tx).
type PositionRepo struct {
	q Querier
}

// NewPositionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPositionRepository(q Querier) *PositionRepo {
	return &PositionRepo{q: q}
}

const positionColumns = `product_id, level_type, level_ref_id, current_quantity, reserved_quantity, bootstrap_quantity, created_at, updated_at`

func scanPosition(row pgx.Row) (*entity.StockPosition, error) {
	var p entity.StockPosition
	err := row.Scan(
		&p.ProductID, &p.Level.Type, &p.Level.RefID,
		&p.CurrentQuantity, &p.ReservedQuantity, &p.BootstrapQuantity,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan position: %w", err)
	}
	return &p, nil
}

// Get obtiene la posición de un producto en un nivel. Las posiciones se crean
// de forma perezosa con el primer movimiento: sin fila es ErrNotFound, no cero.
func (r *PositionRepo) Get(productID string, level entity.Level) (*entity.StockPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM stock_positions
		WHERE product_id = $1 AND level_type = $2 AND level_ref_id = $3 AND deleted_at IS NULL`
	return scanPosition(r.q.QueryRow(context.Background(), query, productID, level.Type, level.RefID))
}

// GetForUpdate obtiene la posición bloqueando la fila (SELECT FOR UPDATE).
// Es el bloqueo de posición del libro: serializa lecturas-modificaciones.
func (r *PositionRepo) GetForUpdate(productID string, level entity.Level) (*entity.StockPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM stock_positions
		WHERE product_id = $1 AND level_type = $2 AND level_ref_id = $3 AND deleted_at IS NULL
		FOR UPDATE`
	return scanPosition(r.q.QueryRow(context.Background(), query, productID, level.Type, level.RefID))
}

// Create inserta una posición nueva (creación perezosa desde movimientos productores).
func (r *PositionRepo) Create(position *entity.StockPosition) error {
	query := `
		INSERT INTO stock_positions (product_id, level_type, level_ref_id, current_quantity, reserved_quantity, bootstrap_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		position.ProductID, position.Level.Type, position.Level.RefID,
		position.CurrentQuantity, position.ReservedQuantity, position.BootstrapQuantity,
		position.CreatedAt, position.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Dos tx compitiendo por crear la misma posición perezosa.
			return domain.ErrConflict
		}
		return fmt.Errorf("create position: %w", err)
	}
	return nil
}

// Update persiste las cantidades de una posición ya bloqueada.
func (r *PositionRepo) Update(position *entity.StockPosition) error {
	query := `
		UPDATE stock_positions
		SET current_quantity = $4, reserved_quantity = $5, updated_at = $6
		WHERE product_id = $1 AND level_type = $2 AND level_ref_id = $3 AND deleted_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query,
		position.ProductID, position.Level.Type, position.Level.RefID,
		position.CurrentQuantity, position.ReservedQuantity, position.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByLevel lista las posiciones de un nivel.
func (r *PositionRepo) ListByLevel(level entity.Level) ([]*entity.StockPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM stock_positions
		WHERE level_type = $1 AND level_ref_id = $2 AND deleted_at IS NULL
		ORDER BY product_id`
	rows, err := r.q.Query(context.Background(), query, level.Type, level.RefID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockPosition
	for rows.Next() {
		var p entity.StockPosition
		if err := rows.Scan(
			&p.ProductID, &p.Level.Type, &p.Level.RefID,
			&p.CurrentQuantity, &p.ReservedQuantity, &p.BootstrapQuantity,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

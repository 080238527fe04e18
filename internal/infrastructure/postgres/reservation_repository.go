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

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL
// (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, product_id, level_type, level_ref_id, quantity_reserved, quantity_fulfilled, status, reserved_for, expires_at, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.StockReservation, error) {
	var res entity.StockReservation
	var reservedFor *string
	err := row.Scan(
		&res.ID, &res.ProductID, &res.Level.Type, &res.Level.RefID,
		&res.QuantityReserved, &res.QuantityFulfilled, &res.Status,
		&reservedFor, &res.ExpiresAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	res.ReservedFor = deref(reservedFor)
	return &res, nil
}

// Create inserta una reserva.
func (r *ReservationRepo) Create(reservation *entity.StockReservation) error {
	query := `
		INSERT INTO stock_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		reservation.ID, reservation.ProductID, reservation.Level.Type, reservation.Level.RefID,
		reservation.QuantityReserved, reservation.QuantityFulfilled, reservation.Status,
		nullIfEmpty(reservation.ReservedFor), reservation.ExpiresAt,
		reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva por ID.
func (r *ReservationRepo) GetByID(id string) (*entity.StockReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = $1 AND deleted_at IS NULL`
	return scanReservation(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene una reserva bloqueando la fila.
func (r *ReservationRepo) GetByIDForUpdate(id string) (*entity.StockReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanReservation(r.q.QueryRow(context.Background(), query, id))
}

// Update persiste una reserva ya bloqueada.
func (r *ReservationRepo) Update(reservation *entity.StockReservation) error {
	query := `
		UPDATE stock_reservations
		SET quantity_fulfilled = $2, status = $3, expires_at = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query,
		reservation.ID, reservation.QuantityFulfilled, reservation.Status,
		reservation.ExpiresAt, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByPosition lista las reservas de una posición.
func (r *ReservationRepo) ListByPosition(productID string, level entity.Level) ([]*entity.StockReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations
		WHERE product_id = $1 AND level_type = $2 AND level_ref_id = $3 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, productID, level.Type, level.RefID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListDue lista reservas no terminales ya vencidas (candidatas del barrido).
func (r *ReservationRepo) ListDue(now time.Time, limit int) ([]*entity.StockReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations
		WHERE status IN ('pending', 'confirmed', 'partially_fulfilled')
		  AND expires_at IS NOT NULL AND expires_at < $1 AND deleted_at IS NULL
		ORDER BY expires_at ASC
		LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]*entity.StockReservation, error) {
	var list []*entity.StockReservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

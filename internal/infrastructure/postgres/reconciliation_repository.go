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

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo implementación de ReconciliationRepository sobre
// PostgreSQL (usable con pool o tx).
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// CreateRun inserta una corrida (solo-agregar; no existe UpdateRun).
// La tolerancia se guarda en segundos; el score como NUMERIC.
func (r *ReconciliationRepo) CreateRun(run *entity.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (id, window_from, window_to, level_ref_id, tolerance_seconds, score_threshold, status, expected_count, observed_count, matched_count, mismatch_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		run.ID, run.WindowFrom, run.WindowTo, nullIfEmpty(run.LevelRefID),
		int64(run.Tolerance/time.Second), run.ScoreThreshold, run.Status,
		run.ExpectedCount, run.ObservedCount, run.MatchedCount, run.MismatchCount,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reconciliation run: %w", err)
	}
	return nil
}

// GetRun obtiene una corrida por ID.
func (r *ReconciliationRepo) GetRun(id string) (*entity.ReconciliationRun, error) {
	query := `
		SELECT id, window_from, window_to, level_ref_id, tolerance_seconds, score_threshold, status, expected_count, observed_count, matched_count, mismatch_count, created_at
		FROM reconciliation_runs WHERE id = $1`
	return scanRun(r.q.QueryRow(context.Background(), query, id))
}

// ListRuns lista corridas, más recientes primero.
func (r *ReconciliationRepo) ListRuns(limit, offset int) ([]*entity.ReconciliationRun, error) {
	query := `
		SELECT id, window_from, window_to, level_ref_id, tolerance_seconds, score_threshold, status, expected_count, observed_count, matched_count, mismatch_count, created_at
		FROM reconciliation_runs
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reconciliation runs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ReconciliationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

func scanRun(row pgx.Row) (*entity.ReconciliationRun, error) {
	var run entity.ReconciliationRun
	var levelRefID *string
	var toleranceSeconds int64
	err := row.Scan(
		&run.ID, &run.WindowFrom, &run.WindowTo, &levelRefID,
		&toleranceSeconds, &run.ScoreThreshold, &run.Status,
		&run.ExpectedCount, &run.ObservedCount, &run.MatchedCount, &run.MismatchCount,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan reconciliation run: %w", err)
	}
	run.LevelRefID = deref(levelRefID)
	run.Tolerance = time.Duration(toleranceSeconds) * time.Second
	return &run, nil
}

const mismatchColumns = `id, run_id, mismatch_type, product_id, machine_id, expected_movement_id, expected_quantity, observed_quantity, discrepancy_amount, match_score, order_time, is_resolved, resolved_by, resolved_at, created_at`

// CreateMismatch inserta una discrepancia de una corrida.
func (r *ReconciliationRepo) CreateMismatch(mismatch *entity.ReconciliationMismatch) error {
	query := `
		INSERT INTO reconciliation_mismatches (` + mismatchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		mismatch.ID, mismatch.RunID, mismatch.MismatchType, mismatch.ProductID, mismatch.MachineID,
		nullIfEmpty(mismatch.ExpectedMovementID), mismatch.ExpectedQuantity, mismatch.ObservedQuantity,
		mismatch.DiscrepancyAmount, mismatch.MatchScore, mismatch.OrderTime,
		mismatch.IsResolved, nullIfEmpty(mismatch.ResolvedBy), mismatch.ResolvedAt,
		mismatch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create mismatch: %w", err)
	}
	return nil
}

func scanMismatch(row pgx.Row) (*entity.ReconciliationMismatch, error) {
	var m entity.ReconciliationMismatch
	var expectedMovementID, resolvedBy *string
	err := row.Scan(
		&m.ID, &m.RunID, &m.MismatchType, &m.ProductID, &m.MachineID,
		&expectedMovementID, &m.ExpectedQuantity, &m.ObservedQuantity,
		&m.DiscrepancyAmount, &m.MatchScore, &m.OrderTime,
		&m.IsResolved, &resolvedBy, &m.ResolvedAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan mismatch: %w", err)
	}
	m.ExpectedMovementID = deref(expectedMovementID)
	m.ResolvedBy = deref(resolvedBy)
	return &m, nil
}

// GetMismatchForUpdate obtiene una discrepancia bloqueando la fila.
func (r *ReconciliationRepo) GetMismatchForUpdate(id string) (*entity.ReconciliationMismatch, error) {
	query := `SELECT ` + mismatchColumns + ` FROM reconciliation_mismatches WHERE id = $1 FOR UPDATE`
	return scanMismatch(r.q.QueryRow(context.Background(), query, id))
}

// UpdateMismatch persiste la resolución de una discrepancia (única mutación permitida).
func (r *ReconciliationRepo) UpdateMismatch(mismatch *entity.ReconciliationMismatch) error {
	query := `
		UPDATE reconciliation_mismatches
		SET is_resolved = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		mismatch.ID, mismatch.IsResolved, nullIfEmpty(mismatch.ResolvedBy), mismatch.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update mismatch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListMismatches lista discrepancias de una corrida: no resueltas primero,
// por score ascendente y hora de orden (respalda el índice
// idx_reconciliation_mismatches_unresolved).
func (r *ReconciliationRepo) ListMismatches(runID string) ([]*entity.ReconciliationMismatch, error) {
	query := `
		SELECT ` + mismatchColumns + `
		FROM reconciliation_mismatches
		WHERE run_id = $1
		ORDER BY is_resolved ASC, match_score ASC, order_time ASC`
	rows, err := r.q.Query(context.Background(), query, runID)
	if err != nil {
		return nil, fmt.Errorf("list mismatches: %w", err)
	}
	defer rows.Close()
	var list []*entity.ReconciliationMismatch
	for rows.Next() {
		m, err := scanMismatch(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

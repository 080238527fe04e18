package repository

import "github.com/vendhub/stock-ledger/internal/domain/entity"

// ReconciliationRepository define el puerto de persistencia para corridas de
// conciliación y sus discrepancias. Las corridas son solo-agregar; las
// discrepancias solo mutan vía resolución explícita.
type ReconciliationRepository interface {
	CreateRun(run *entity.ReconciliationRun) error
	GetRun(id string) (*entity.ReconciliationRun, error)
	ListRuns(limit, offset int) ([]*entity.ReconciliationRun, error)
	CreateMismatch(mismatch *entity.ReconciliationMismatch) error
	GetMismatchForUpdate(id string) (*entity.ReconciliationMismatch, error)
	UpdateMismatch(mismatch *entity.ReconciliationMismatch) error
	// ListMismatches lista discrepancias de una corrida: no resueltas primero,
	// por score ascendente y hora de orden (las de menor confianza arriba).
	ListMismatches(runID string) ([]*entity.ReconciliationMismatch, error)
}

package memory

import (
	"sort"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// ReconciliationRepository es la implementación en memoria del repositorio de
// conciliación.
type ReconciliationRepository struct {
	store  *Store
	locked bool
}

// NewReconciliationRepository construye un repositorio de conciliación fuera de transacción.
func NewReconciliationRepository(store *Store) *ReconciliationRepository {
	return &ReconciliationRepository{store: store}
}

func (r *ReconciliationRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *ReconciliationRepository) CreateRun(run *entity.ReconciliationRun) error {
	defer r.lock()()
	run.CreatedAt = time.Now()
	cr := *run
	r.store.runs[run.ID] = &cr
	return nil
}

func (r *ReconciliationRepository) GetRun(id string) (*entity.ReconciliationRun, error) {
	defer r.lock()()
	run, ok := r.store.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cr := *run
	return &cr, nil
}

func (r *ReconciliationRepository) ListRuns(limit, offset int) ([]*entity.ReconciliationRun, error) {
	defer r.lock()()
	var out []*entity.ReconciliationRun
	for _, run := range r.store.runs {
		cr := *run
		out = append(out, &cr)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReconciliationRepository) CreateMismatch(mismatch *entity.ReconciliationMismatch) error {
	defer r.lock()()
	mismatch.CreatedAt = time.Now()
	r.store.mismatches[mismatch.ID] = cloneMismatch(mismatch)
	return nil
}

func (r *ReconciliationRepository) GetMismatchForUpdate(id string) (*entity.ReconciliationMismatch, error) {
	defer r.lock()()
	m, ok := r.store.mismatches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneMismatch(m), nil
}

func (r *ReconciliationRepository) UpdateMismatch(mismatch *entity.ReconciliationMismatch) error {
	defer r.lock()()
	if _, ok := r.store.mismatches[mismatch.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.mismatches[mismatch.ID] = cloneMismatch(mismatch)
	return nil
}

func (r *ReconciliationRepository) ListMismatches(runID string) ([]*entity.ReconciliationMismatch, error) {
	defer r.lock()()
	var out []*entity.ReconciliationMismatch
	for _, m := range r.store.mismatches {
		if m.RunID == runID {
			out = append(out, cloneMismatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := out[i], out[j]
		if mi.IsResolved != mj.IsResolved {
			return !mi.IsResolved
		}
		if !mi.MatchScore.Equal(mj.MatchScore) {
			return mi.MatchScore.LessThan(mj.MatchScore)
		}
		if !mi.OrderTime.Equal(mj.OrderTime) {
			return mi.OrderTime.Before(mj.OrderTime)
		}
		return mi.ID < mj.ID
	})
	return out, nil
}

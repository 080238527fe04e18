package memory

import (
	"sort"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// AdjustmentRepository es la implementación en memoria del repositorio de ajustes.
type AdjustmentRepository struct {
	store  *Store
	locked bool
}

// NewAdjustmentRepository construye un repositorio de ajustes fuera de transacción.
func NewAdjustmentRepository(store *Store) *AdjustmentRepository {
	return &AdjustmentRepository{store: store}
}

func (r *AdjustmentRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *AdjustmentRepository) Create(adjustment *entity.InventoryAdjustment) error {
	defer r.lock()()
	now := time.Now()
	adjustment.CreatedAt = now
	adjustment.UpdatedAt = now
	r.store.adjustments[adjustment.ID] = cloneAdjustment(adjustment)
	return nil
}

func (r *AdjustmentRepository) GetByID(id string) (*entity.InventoryAdjustment, error) {
	defer r.lock()()
	a, ok := r.store.adjustments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAdjustment(a), nil
}

func (r *AdjustmentRepository) GetByIDForUpdate(id string) (*entity.InventoryAdjustment, error) {
	return r.GetByID(id)
}

func (r *AdjustmentRepository) Update(adjustment *entity.InventoryAdjustment) error {
	defer r.lock()()
	if _, ok := r.store.adjustments[adjustment.ID]; !ok {
		return domain.ErrNotFound
	}
	adjustment.UpdatedAt = time.Now()
	r.store.adjustments[adjustment.ID] = cloneAdjustment(adjustment)
	return nil
}

func (r *AdjustmentRepository) ListByStatus(status string, limit, offset int) ([]*entity.InventoryAdjustment, error) {
	defer r.lock()()
	var out []*entity.InventoryAdjustment
	for _, a := range r.store.adjustments {
		if status == "" || a.Status == status {
			out = append(out, cloneAdjustment(a))
		}
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

package memory

import (
	"sort"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// BatchRepository es la implementación en memoria del repositorio de lotes.
type BatchRepository struct {
	store  *Store
	locked bool
}

// NewBatchRepository construye un repositorio de lotes fuera de transacción.
func NewBatchRepository(store *Store) *BatchRepository {
	return &BatchRepository{store: store}
}

func (r *BatchRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *BatchRepository) Create(batch *entity.InventoryBatch) error {
	defer r.lock()()
	now := time.Now()
	batch.CreatedAt = now
	batch.UpdatedAt = now
	r.store.batches[batch.ID] = cloneBatch(batch)
	return nil
}

func (r *BatchRepository) GetByID(id string) (*entity.InventoryBatch, error) {
	defer r.lock()()
	b, ok := r.store.batches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBatch(b), nil
}

func (r *BatchRepository) GetByIDForUpdate(id string) (*entity.InventoryBatch, error) {
	return r.GetByID(id)
}

func (r *BatchRepository) GetByNumber(productID string, level entity.Level, batchNumber string) (*entity.InventoryBatch, error) {
	defer r.lock()()
	for _, b := range r.store.batches {
		if b.ProductID == productID && b.Level == level && b.BatchNumber == batchNumber {
			return cloneBatch(b), nil
		}
	}
	return nil, nil
}

// ListForAllocation devuelve todos los lotes de la posición ordenados por
// vencimiento (nil al final) y fecha de recepción, como su análogo SQL.
func (r *BatchRepository) ListForAllocation(productID string, level entity.Level) ([]*entity.InventoryBatch, error) {
	defer r.lock()()
	var out []*entity.InventoryBatch
	for _, b := range r.store.batches {
		if b.ProductID == productID && b.Level == level {
			out = append(out, cloneBatch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := out[i], out[j]
		switch {
		case bi.ExpiryDate == nil && bj.ExpiryDate == nil:
		case bi.ExpiryDate == nil:
			return false
		case bj.ExpiryDate == nil:
			return true
		case !bi.ExpiryDate.Equal(*bj.ExpiryDate):
			return bi.ExpiryDate.Before(*bj.ExpiryDate)
		}
		return bi.ReceivedAt.Before(bj.ReceivedAt)
	})
	return out, nil
}

func (r *BatchRepository) Update(batch *entity.InventoryBatch) error {
	defer r.lock()()
	if _, ok := r.store.batches[batch.ID]; !ok {
		return domain.ErrNotFound
	}
	batch.UpdatedAt = time.Now()
	r.store.batches[batch.ID] = cloneBatch(batch)
	return nil
}

func (r *BatchRepository) ListExpiring(level *entity.Level, before time.Time) ([]*entity.InventoryBatch, error) {
	defer r.lock()()
	var out []*entity.InventoryBatch
	for _, b := range r.store.batches {
		if b.RetiredAt != nil || b.ExpiryDate == nil || !b.ExpiryDate.Before(before) {
			continue
		}
		if level != nil && b.Level != *level {
			continue
		}
		out = append(out, cloneBatch(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(*out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

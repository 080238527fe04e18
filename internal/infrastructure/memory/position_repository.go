package memory

import (
	"sort"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// PositionRepository es la implementación en memoria del repositorio de
// posiciones. Con locked=true asume que el caller (el TxRunner) ya tiene el
// mutex del store; fuera de transacción cada método toma el lock por sí mismo.
type PositionRepository struct {
	store  *Store
	locked bool
}

// NewPositionRepository construye un repositorio de posiciones fuera de transacción.
func NewPositionRepository(store *Store) *PositionRepository {
	return &PositionRepository{store: store}
}

func (r *PositionRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *PositionRepository) Get(productID string, level entity.Level) (*entity.StockPosition, error) {
	defer r.lock()()
	p, ok := r.store.positions[positionKey(productID, level)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePosition(p), nil
}

// GetForUpdate equivale a Get: el mutex del TxRunner ya serializa las escrituras.
func (r *PositionRepository) GetForUpdate(productID string, level entity.Level) (*entity.StockPosition, error) {
	return r.Get(productID, level)
}

func (r *PositionRepository) Create(position *entity.StockPosition) error {
	defer r.lock()()
	key := positionKey(position.ProductID, position.Level)
	if _, ok := r.store.positions[key]; ok {
		return domain.ErrConflict
	}
	now := time.Now()
	position.CreatedAt = now
	position.UpdatedAt = now
	r.store.positions[key] = clonePosition(position)
	return nil
}

func (r *PositionRepository) Update(position *entity.StockPosition) error {
	defer r.lock()()
	key := positionKey(position.ProductID, position.Level)
	if _, ok := r.store.positions[key]; !ok {
		return domain.ErrNotFound
	}
	position.UpdatedAt = time.Now()
	r.store.positions[key] = clonePosition(position)
	return nil
}

func (r *PositionRepository) ListByLevel(level entity.Level) ([]*entity.StockPosition, error) {
	defer r.lock()()
	var out []*entity.StockPosition
	for _, p := range r.store.positions {
		if p.Level == level {
			out = append(out, clonePosition(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

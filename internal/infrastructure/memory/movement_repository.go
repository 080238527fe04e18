package memory

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// MovementRepository es la implementación en memoria del libro de movimientos.
// El slice subyacente es solo-agregar, igual que la tabla SQL.
type MovementRepository struct {
	store  *Store
	locked bool
}

// NewMovementRepository construye un repositorio del libro fuera de transacción.
func NewMovementRepository(store *Store) *MovementRepository {
	return &MovementRepository{store: store}
}

func (r *MovementRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *MovementRepository) Create(movement *entity.StockMovement) error {
	defer r.lock()()
	movement.CreatedAt = time.Now()
	r.store.movements = append(r.store.movements, cloneMovement(movement))
	return nil
}

func (r *MovementRepository) GetByID(id string) (*entity.StockMovement, error) {
	defer r.lock()()
	for _, m := range r.store.movements {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, domain.ErrNotFound
}

func touchesPosition(m *entity.StockMovement, productID string, level entity.Level) bool {
	if m.ProductID != productID {
		return false
	}
	if m.SourceLevel == level {
		return true
	}
	return m.DestinationLevel != nil && *m.DestinationLevel == level
}

func (r *MovementRepository) ListByPosition(productID string, level entity.Level, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	defer r.lock()()
	var out []*entity.StockMovement
	// El slice está en orden de inserción; se recorre al revés para devolver
	// los más recientes primero, como el ORDER BY movement_date DESC de SQL.
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		m := r.store.movements[i]
		if !touchesPosition(m, productID, level) {
			continue
		}
		if from != nil && m.MovementDate.Before(*from) {
			continue
		}
		if to != nil && m.MovementDate.After(*to) {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		out = append(out, cloneMovement(m))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *MovementRepository) SumSignedForPosition(productID string, level entity.Level) (decimal.Decimal, error) {
	defer r.lock()()
	sum := decimal.Zero
	for _, m := range r.store.movements {
		if m.Status != entity.MovementStatusCompleted || !touchesPosition(m, productID, level) {
			continue
		}
		if m.SourceLevel == level {
			sum = sum.Add(m.Quantity)
		} else {
			// Efecto destino de un traslado: contrario al del origen.
			sum = sum.Sub(m.Quantity)
		}
	}
	return sum, nil
}

func (r *MovementRepository) ListMachineShipments(from, to time.Time, machineRefID string) ([]*entity.StockMovement, error) {
	defer r.lock()()
	var out []*entity.StockMovement
	for _, m := range r.store.movements {
		if m.MovementType != entity.MovementTypeShipment || m.Status != entity.MovementStatusCompleted {
			continue
		}
		if m.SourceLevel.Type != entity.LevelMachine {
			continue
		}
		if machineRefID != "" && m.SourceLevel.RefID != machineRefID {
			continue
		}
		if m.MovementDate.Before(from) || m.MovementDate.After(to) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	return out, nil
}

package memory

import (
	"sort"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// ReservationRepository es la implementación en memoria del repositorio de reservas.
type ReservationRepository struct {
	store  *Store
	locked bool
}

// NewReservationRepository construye un repositorio de reservas fuera de transacción.
func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

func (r *ReservationRepository) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *ReservationRepository) Create(reservation *entity.StockReservation) error {
	defer r.lock()()
	now := time.Now()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	r.store.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

func (r *ReservationRepository) GetByID(id string) (*entity.StockReservation, error) {
	defer r.lock()()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneReservation(res), nil
}

func (r *ReservationRepository) GetByIDForUpdate(id string) (*entity.StockReservation, error) {
	return r.GetByID(id)
}

func (r *ReservationRepository) Update(reservation *entity.StockReservation) error {
	defer r.lock()()
	if _, ok := r.store.reservations[reservation.ID]; !ok {
		return domain.ErrNotFound
	}
	reservation.UpdatedAt = time.Now()
	r.store.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

func (r *ReservationRepository) ListByPosition(productID string, level entity.Level) ([]*entity.StockReservation, error) {
	defer r.lock()()
	var out []*entity.StockReservation
	for _, res := range r.store.reservations {
		if res.ProductID == productID && res.Level == level {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ReservationRepository) ListDue(now time.Time, limit int) ([]*entity.StockReservation, error) {
	defer r.lock()()
	var out []*entity.StockReservation
	for _, res := range r.store.reservations {
		if res.Terminal() || res.ExpiresAt == nil || !res.ExpiresAt.Before(now) {
			continue
		}
		out = append(out, cloneReservation(res))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

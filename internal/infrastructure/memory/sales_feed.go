package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// SalesFeed es un feed de ventas en memoria (tests y modo dev): los registros
// se cargan con Add y se sirven filtrados por ventana y máquina.
type SalesFeed struct {
	mu      sync.Mutex
	records []entity.SalesRecord
	err     error
}

// NewSalesFeed construye un feed vacío.
func NewSalesFeed() *SalesFeed {
	return &SalesFeed{}
}

// Add agrega registros de venta al feed.
func (f *SalesFeed) Add(records ...entity.SalesRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
}

// Fail hace que la próxima lectura falle con err (simula caída del feed).
func (f *SalesFeed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *SalesFeed) Sales(ctx context.Context, from, to time.Time, machineRefID string) ([]entity.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.SalesRecord
	for _, r := range f.records {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		if machineRefID != "" && r.MachineID != machineRefID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

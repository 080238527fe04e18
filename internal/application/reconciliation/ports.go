package reconciliation

import (
	"context"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// SalesFeed es el puerto al feed externo de ventas observadas (jobs de
// importación de transacciones de pago). machineRefID vacío = todas las
// máquinas. Si el feed falla, la corrida entera se aborta: se reintenta
// completa, nunca se reanuda a mitad.
type SalesFeed interface {
	Sales(ctx context.Context, from, to time.Time, machineRefID string) ([]entity.SalesRecord, error)
}

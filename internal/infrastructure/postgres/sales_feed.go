package postgres

import (
	"context"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// SalesFeed lee las ventas observadas desde la tabla sales_records, poblada
// por los jobs de importación de transacciones de pago (fuera de este módulo).
type SalesFeed struct {
	db Querier
}

// NewSalesFeed construye el feed sobre el pool.
func NewSalesFeed(db Querier) *SalesFeed {
	return &SalesFeed{db: db}
}

// Sales devuelve las ventas de la ventana; machineRefID vacío = todas las máquinas.
func (f *SalesFeed) Sales(ctx context.Context, from, to time.Time, machineRefID string) ([]entity.SalesRecord, error) {
	query := `
		SELECT product_id, machine_ref_id, quantity, amount, sold_at
		FROM sales_records
		WHERE sold_at >= $1 AND sold_at <= $2
		  AND ($3 = '' OR machine_ref_id = $3)
		ORDER BY sold_at ASC`

	rows, err := f.db.Query(ctx, query, from, to, machineRefID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.SalesRecord
	for rows.Next() {
		var r entity.SalesRecord
		if err := rows.Scan(&r.ProductID, &r.MachineID, &r.Quantity, &r.Amount, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/inventory"
)

func fecha(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func lote(id string, qty int64, expiry *time.Time, receivedAt time.Time) *entity.InventoryBatch {
	return &entity.InventoryBatch{
		ID:              id,
		ProductID:       "prod-1",
		Level:           entity.Level{Type: entity.LevelWarehouse, RefID: "wh-1"},
		BatchNumber:     "LOT-" + id,
		InitialQuantity: decimal.NewFromInt(qty),
		CurrentQuantity: decimal.NewFromInt(qty),
		UnitCost:        decimal.NewFromInt(10),
		ExpiryDate:      expiry,
		ReceivedAt:      receivedAt,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación FIFO con prioridad de vencimiento: primero el lote que vence antes,
// los sin vencimiento al final.
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocate_PrimeroElQueVenceAntes(t *testing.T) {
	recibido := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	batch1 := lote("b1", 10, fecha("2025-01-01"), recibido)
	batch2 := lote("b2", 10, fecha("2025-02-01"), recibido)

	// Orden de entrada invertido a propósito: el orden lo impone el asignador.
	allocs, err := inventory.Allocate([]*entity.InventoryBatch{batch2, batch1}, decimal.NewFromInt(15))
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	assert.Equal(t, "b1", allocs[0].BatchID, "el lote que vence antes va primero")
	assert.True(t, allocs[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "b2", allocs[1].BatchID)
	assert.True(t, allocs[1].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestAllocate_SinVencimientoVaAlFinal(t *testing.T) {
	recibido := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	sinVencimiento := lote("b-nil", 10, nil, recibido)
	conVencimiento := lote("b-exp", 10, fecha("2025-06-01"), recibido.Add(24*time.Hour))

	allocs, err := inventory.Allocate([]*entity.InventoryBatch{sinVencimiento, conVencimiento}, decimal.NewFromInt(12))
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "b-exp", allocs[0].BatchID)
	assert.Equal(t, "b-nil", allocs[1].BatchID)
}

func TestAllocate_MismoVencimientoDesempataPorRecepcion(t *testing.T) {
	exp := fecha("2025-03-01")
	viejo := lote("b-viejo", 5, exp, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC))
	nuevo := lote("b-nuevo", 5, exp, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))

	allocs, err := inventory.Allocate([]*entity.InventoryBatch{nuevo, viejo}, decimal.NewFromInt(6))
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "b-viejo", allocs[0].BatchID)
}

func TestAllocate_ExcluyeCuarentenaRetiradosYAgotados(t *testing.T) {
	recibido := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	cuarentena := lote("b-q", 10, fecha("2025-01-01"), recibido)
	cuarentena.IsQuarantined = true
	retirado := lote("b-r", 10, fecha("2025-01-02"), recibido)
	retiradoEn := recibido.Add(time.Hour)
	retirado.RetiredAt = &retiradoEn
	agotado := lote("b-a", 10, fecha("2025-01-03"), recibido)
	agotado.CurrentQuantity = decimal.Zero
	sano := lote("b-ok", 10, fecha("2025-01-04"), recibido)

	allocs, err := inventory.Allocate([]*entity.InventoryBatch{cuarentena, retirado, agotado, sano}, decimal.NewFromInt(8))
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, "b-ok", allocs[0].BatchID)
}

func TestAllocate_InsuficienteNoAsignaNada(t *testing.T) {
	recibido := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	batch := lote("b1", 10, fecha("2025-01-01"), recibido)

	allocs, err := inventory.Allocate([]*entity.InventoryBatch{batch}, decimal.NewFromInt(11))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, allocs, "nunca se crean backorders ni asignaciones parciales")
}

func TestAllocate_CantidadNoPositivaEsInvalida(t *testing.T) {
	_, err := inventory.Allocate(nil, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = inventory.Allocate(nil, decimal.NewFromInt(-3))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAllocate_DescuentaLoReservadoDelLote(t *testing.T) {
	recibido := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	batch := lote("b1", 10, fecha("2025-01-01"), recibido)
	batch.ReservedQuantity = decimal.NewFromInt(4)

	_, err := inventory.Allocate([]*entity.InventoryBatch{batch}, decimal.NewFromInt(7))
	require.ErrorIs(t, err, domain.ErrInsufficientStock, "solo el disponible (6) es asignable")

	allocs, err := inventory.Allocate([]*entity.InventoryBatch{batch}, decimal.NewFromInt(6))
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Quantity.Equal(decimal.NewFromInt(6)))
}

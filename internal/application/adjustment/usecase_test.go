package adjustment_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendhub/stock-ledger/internal/application/adjustment"
	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/infrastructure/memory"
)

var bodega = entity.Level{Type: entity.LevelWarehouse, RefID: "wh-1"}

// newAdjustmentUC arma el workflow sobre el almacenamiento en memoria con una
// posición en bodega cargada con 50 unidades.
func newAdjustmentUC(t *testing.T) (*adjustment.UseCase, *ledger.MovementUseCase) {
	t.Helper()
	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)
	ledgerUC := ledger.NewMovementUseCase(
		txRunner,
		memory.NewPositionRepository(store),
		memory.NewBatchRepository(store),
		memory.NewMovementRepository(store),
	)
	costo := decimal.NewFromInt(10)
	_, err := ledgerUC.ApplyMovement(context.Background(), ledger.MovementInput{
		MovementType: entity.MovementTypeReceipt,
		ProductID:    "prod-1",
		SourceLevel:  bodega,
		Quantity:     decimal.NewFromInt(50),
		UnitCost:     &costo,
	})
	require.NoError(t, err)
	return adjustment.NewUseCase(txRunner, ledgerUC, memory.NewAdjustmentRepository(store)), ledgerUC
}

func solicitarAjuste(t *testing.T, uc *adjustment.UseCase, old, nuevo int64, requiresApproval bool) *entity.InventoryAdjustment {
	t.Helper()
	adj, err := uc.Create(context.Background(), adjustment.CreateInput{
		ProductID:        "prod-1",
		Level:            bodega,
		OldQuantity:      decimal.NewFromInt(old),
		NewQuantity:      decimal.NewFromInt(nuevo),
		Reason:           entity.AdjustmentReasonTheft,
		RequiresApproval: requiresApproval,
		RequestedBy:      "op-1",
	})
	require.NoError(t, err)
	return adj
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario: ajuste old=50, new=45 (robo) con aprobación requerida. Apply antes
// de approve es ilegal; tras approve + apply, la posición baja 5 y queda un
// movimiento adjustment de -5.
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_RequiereAprobacionPrevia(t *testing.T) {
	uc, ledgerUC := newAdjustmentUC(t)
	adj := solicitarAjuste(t, uc, 50, 45, true)
	assert.Equal(t, entity.AdjustmentStatusPending, adj.Status)
	assert.True(t, adj.AdjustmentQuantity.Equal(decimal.NewFromInt(-5)))

	_, err := uc.Apply(context.Background(), adj.ID, "op-2")
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "apply desde pending es ilegal")

	adj, err = uc.Approve(context.Background(), adj.ID, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApproved, adj.Status)
	assert.Equal(t, "supervisor-1", adj.ApprovedBy)
	require.NotNil(t, adj.ApprovedAt)

	adj, err = uc.Apply(context.Background(), adj.ID, "op-2")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApplied, adj.Status)
	require.NotNil(t, adj.AppliedAt)

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", bodega)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(45)))

	movs, err := ledgerUC.ListMovements(context.Background(), "prod-1", bodega, nil, nil, 50, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeAdjustment, movs[0].MovementType)
	assert.Equal(t, adj.ID, movs[0].AdjustmentID)
	assert.True(t, movs[0].Quantity.Equal(decimal.NewFromInt(-5)))
}

func TestApply_SegundoApplyEsAlreadyApplied(t *testing.T) {
	uc, ledgerUC := newAdjustmentUC(t)
	adj := solicitarAjuste(t, uc, 50, 45, false) // auto-aprobado

	_, err := uc.Apply(context.Background(), adj.ID, "op-1")
	require.NoError(t, err)

	_, err = uc.Apply(context.Background(), adj.ID, "op-1")
	require.ErrorIs(t, err, domain.ErrAlreadyApplied)

	// El reintento no tocó el libro.
	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", bodega)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(45)))
}

func TestCreate_SinAprobacionQuedaApprovedPeroNoAplicado(t *testing.T) {
	uc, ledgerUC := newAdjustmentUC(t)
	adj := solicitarAjuste(t, uc, 50, 60, false)

	assert.Equal(t, entity.AdjustmentStatusApproved, adj.Status)
	assert.Nil(t, adj.AppliedAt, "auto-aprobar nunca es auto-aplicar")

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", bodega)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(50)), "el libro no cambió")
}

func TestCreate_Validaciones(t *testing.T) {
	uc, _ := newAdjustmentUC(t)

	_, err := uc.Create(context.Background(), adjustment.CreateInput{
		ProductID:   "prod-1",
		Level:       bodega,
		OldQuantity: decimal.NewFromInt(50),
		NewQuantity: decimal.NewFromInt(50), // delta cero
		Reason:      entity.AdjustmentReasonTheft,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(context.Background(), adjustment.CreateInput{
		ProductID:   "prod-1",
		Level:       bodega,
		OldQuantity: decimal.NewFromInt(50),
		NewQuantity: decimal.NewFromInt(45),
		Reason:      "me-equivoque", // motivo fuera de catálogo
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReject_EsTerminalYNuncaTocaElLibro(t *testing.T) {
	uc, ledgerUC := newAdjustmentUC(t)
	adj := solicitarAjuste(t, uc, 50, 40, true)

	adj, err := uc.Reject(context.Background(), adj.ID, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusRejected, adj.Status)

	_, err = uc.Apply(context.Background(), adj.ID, "op-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = uc.Approve(context.Background(), adj.ID, "supervisor-2")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", bodega)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(50)))
}

func TestCancel_DesdePendingYApproved(t *testing.T) {
	uc, _ := newAdjustmentUC(t)

	pendiente := solicitarAjuste(t, uc, 50, 45, true)
	cancelado, err := uc.Cancel(context.Background(), pendiente.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusCancelled, cancelado.Status)

	aprobado := solicitarAjuste(t, uc, 50, 45, false)
	cancelado, err = uc.Cancel(context.Background(), aprobado.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusCancelled, cancelado.Status)

	// Cancelar un cancelado sí es error: cancelled es terminal.
	_, err = uc.Cancel(context.Background(), cancelado.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApply_FalloDelMovimientoDejaApprovedParaReintento(t *testing.T) {
	uc, ledgerUC := newAdjustmentUC(t)
	// Ajuste negativo mayor al stock: el movimiento fallará.
	adj := solicitarAjuste(t, uc, 50, -10, false)

	_, err := uc.Apply(context.Background(), adj.ID, "op-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := uc.GetByID(context.Background(), adj.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApproved, got.Status, "queda approved para reintento")
	assert.Nil(t, got.AppliedAt)

	pos, err := ledgerUC.GetPosition(context.Background(), "prod-1", bodega)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(decimal.NewFromInt(50)), "rollback completo")
}

func TestListByStatus_FiltraPorEstado(t *testing.T) {
	uc, _ := newAdjustmentUC(t)
	solicitarAjuste(t, uc, 50, 45, true)
	solicitarAjuste(t, uc, 50, 48, true)
	solicitarAjuste(t, uc, 50, 55, false)

	pendientes, err := uc.ListByStatus(context.Background(), entity.AdjustmentStatusPending, 20, 0)
	require.NoError(t, err)
	assert.Len(t, pendientes, 2)

	todos, err := uc.ListByStatus(context.Background(), "", 20, 0)
	require.NoError(t, err)
	assert.Len(t, todos, 3)
}

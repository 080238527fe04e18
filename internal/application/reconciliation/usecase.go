package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendhub/stock-ledger/internal/application/ledger"
	"github.com/vendhub/stock-ledger/internal/domain"
	"github.com/vendhub/stock-ledger/internal/domain/entity"
	"github.com/vendhub/stock-ledger/internal/domain/inventory"
	"github.com/vendhub/stock-ledger/internal/domain/repository"
	"github.com/vendhub/stock-ledger/pkg/logger"
)

// Config parámetros de una corrida de conciliación.
type Config struct {
	Tolerance      time.Duration   // ventana de emparejamiento por timestamp
	ScoreThreshold decimal.Decimal // bajo este score el par se marca discrepante
}

// UseCase compara el consumo esperado (shipments de máquina del libro) contra
// las ventas observadas del feed externo, empareja por (producto, máquina) y
// timestamp más cercano, puntúa la confianza y registra discrepancias.
// Nunca escribe saldos del libro; solo corridas y discrepancias.
type UseCase struct {
	txRunner ledger.TxRunner
	recon    repository.ReconciliationRepository
	feed     SalesFeed
	cfg      Config
	log      *logger.Logger
}

// NewUseCase construye el motor de conciliación.
func NewUseCase(txRunner ledger.TxRunner, recon repository.ReconciliationRepository, feed SalesFeed, cfg Config, log *logger.Logger) *UseCase {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 15 * time.Minute
	}
	if cfg.ScoreThreshold.IsZero() {
		cfg.ScoreThreshold = decimal.NewFromFloat(0.8)
	}
	return &UseCase{txRunner: txRunner, recon: recon, feed: feed, cfg: cfg, log: log}
}

// expectedRecord es el lado "esperado": un shipment de máquina del libro.
type expectedRecord struct {
	movementID string
	productID  string
	machineID  string
	quantity   decimal.Decimal
	amount     decimal.Decimal
	timestamp  time.Time
	matched    bool
}

type observedRecord struct {
	entity.SalesRecord
	matched bool
}

type pairKey struct {
	productID string
	machineID string
}

// Run ejecuta una corrida sobre la ventana dada. machineRefID vacío concilia
// todas las máquinas. Cada corrida es un registro nuevo de auditoría: repetir
// la misma ventana no muta corridas anteriores. Si el feed de ventas falla,
// no se escribe nada.
func (uc *UseCase) Run(ctx context.Context, from, to time.Time, machineRefID string) (*entity.ReconciliationRun, error) {
	if !from.Before(to) {
		return nil, domain.ErrInvalidInput
	}

	observed, err := uc.feed.Sales(ctx, from, to, machineRefID)
	if err != nil {
		return nil, fmt.Errorf("feed de ventas: %w", err)
	}

	now := time.Now()
	run := &entity.ReconciliationRun{
		ID:             uuid.New().String(),
		WindowFrom:     from,
		WindowTo:       to,
		LevelRefID:     machineRefID,
		Tolerance:      uc.cfg.Tolerance,
		ScoreThreshold: uc.cfg.ScoreThreshold,
		Status:         entity.RunStatusCompleted,
		ObservedCount:  len(observed),
		CreatedAt:      now,
	}

	err = uc.txRunner.RunReconciliation(ctx, func(
		movements repository.MovementRepository,
		recon repository.ReconciliationRepository,
	) error {
		shipments, err := movements.ListMachineShipments(from, to, machineRefID)
		if err != nil {
			return err
		}
		expected := make([]*expectedRecord, 0, len(shipments))
		for _, m := range shipments {
			expected = append(expected, &expectedRecord{
				movementID: m.ID,
				productID:  m.ProductID,
				machineID:  m.SourceLevel.RefID,
				quantity:   m.Quantity.Abs(),
				amount:     m.TotalCost.Abs(),
				timestamp:  m.MovementDate,
			})
		}
		run.ExpectedCount = len(expected)

		mismatches := uc.pair(expected, observed, run.ID, now)
		for _, mm := range mismatches {
			if err := recon.CreateMismatch(mm); err != nil {
				return err
			}
		}
		run.MismatchCount = len(mismatches)
		run.MatchedCount = matchedCount(expected)
		return recon.CreateRun(run)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("run_id", run.ID).
		Int("esperados", run.ExpectedCount).
		Int("observados", run.ObservedCount).
		Int("emparejados", run.MatchedCount).
		Int("discrepancias", run.MismatchCount).
		Msg("corrida de conciliación completada")
	return run, nil
}

func matchedCount(expected []*expectedRecord) int {
	n := 0
	for _, e := range expected {
		if e.matched {
			n++
		}
	}
	return n
}

// pair empareja esperados y observados por (producto, máquina) y timestamp
// más cercano dentro de la tolerancia, y clasifica lo que no cuadra.
func (uc *UseCase) pair(expected []*expectedRecord, observed []entity.SalesRecord, runID string, now time.Time) []*entity.ReconciliationMismatch {
	obs := make([]*observedRecord, len(observed))
	for i := range observed {
		obs[i] = &observedRecord{SalesRecord: observed[i]}
	}

	expByKey := map[pairKey][]*expectedRecord{}
	for _, e := range expected {
		k := pairKey{e.productID, e.machineID}
		expByKey[k] = append(expByKey[k], e)
	}
	obsByKey := map[pairKey][]*observedRecord{}
	for _, o := range obs {
		k := pairKey{o.ProductID, o.MachineID}
		obsByKey[k] = append(obsByKey[k], o)
	}

	// Orden estable de claves para que la corrida sea determinista.
	keys := make([]pairKey, 0, len(expByKey))
	for k := range expByKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].machineID != keys[j].machineID {
			return keys[i].machineID < keys[j].machineID
		}
		return keys[i].productID < keys[j].productID
	})

	var mismatches []*entity.ReconciliationMismatch
	for _, k := range keys {
		exps := expByKey[k]
		sort.Slice(exps, func(i, j int) bool { return exps[i].timestamp.Before(exps[j].timestamp) })
		candidates := obsByKey[k]
		for _, e := range exps {
			o := nearestUnmatched(candidates, e.timestamp, uc.cfg.Tolerance)
			if o == nil {
				continue
			}
			e.matched = true
			o.matched = true

			score := inventory.MatchScore(e.quantity, o.Quantity, e.timestamp, o.Timestamp, uc.cfg.Tolerance)
			discrepancy := e.amount.Sub(o.Amount).Abs()
			switch {
			case !e.quantity.Equal(o.Quantity):
				mismatches = append(mismatches, uc.newMismatch(runID, entity.MismatchQuantity, e, o, score, discrepancy, now))
			case score.LessThan(uc.cfg.ScoreThreshold):
				mismatches = append(mismatches, uc.newMismatch(runID, entity.MismatchTiming, e, o, score, discrepancy, now))
			}
			// score alto y cantidades iguales: par limpio, sin discrepancia
		}
	}

	for _, e := range expected {
		if e.matched {
			continue
		}
		mismatches = append(mismatches, &entity.ReconciliationMismatch{
			ID:                 uuid.New().String(),
			RunID:              runID,
			MismatchType:       entity.MismatchMissingObserved,
			ProductID:          e.productID,
			MachineID:          e.machineID,
			ExpectedMovementID: e.movementID,
			ExpectedQuantity:   e.quantity,
			ObservedQuantity:   decimal.Zero,
			DiscrepancyAmount:  e.amount,
			MatchScore:         decimal.Zero,
			OrderTime:          e.timestamp,
			CreatedAt:          now,
		})
	}
	for _, o := range obs {
		if o.matched {
			continue
		}
		mismatches = append(mismatches, &entity.ReconciliationMismatch{
			ID:                uuid.New().String(),
			RunID:             runID,
			MismatchType:      entity.MismatchMissingExpected,
			ProductID:         o.ProductID,
			MachineID:         o.MachineID,
			ExpectedQuantity:  decimal.Zero,
			ObservedQuantity:  o.Quantity,
			DiscrepancyAmount: o.Amount,
			MatchScore:        decimal.Zero,
			OrderTime:         o.Timestamp,
			CreatedAt:         now,
		})
	}
	return mismatches
}

func (uc *UseCase) newMismatch(runID, mismatchType string, e *expectedRecord, o *observedRecord, score, discrepancy decimal.Decimal, now time.Time) *entity.ReconciliationMismatch {
	return &entity.ReconciliationMismatch{
		ID:                 uuid.New().String(),
		RunID:              runID,
		MismatchType:       mismatchType,
		ProductID:          e.productID,
		MachineID:          e.machineID,
		ExpectedMovementID: e.movementID,
		ExpectedQuantity:   e.quantity,
		ObservedQuantity:   o.Quantity,
		DiscrepancyAmount:  discrepancy,
		MatchScore:         score,
		OrderTime:          o.Timestamp,
		CreatedAt:          now,
	}
}

// nearestUnmatched devuelve el observado sin emparejar más cercano en el
// tiempo dentro de la tolerancia, o nil.
func nearestUnmatched(candidates []*observedRecord, at time.Time, tolerance time.Duration) *observedRecord {
	var best *observedRecord
	var bestDelta time.Duration
	for _, o := range candidates {
		if o.matched {
			continue
		}
		delta := o.Timestamp.Sub(at)
		if delta < 0 {
			delta = -delta
		}
		if delta > tolerance {
			continue
		}
		if best == nil || delta < bestDelta {
			best = o
			bestDelta = delta
		}
	}
	return best
}

// ResolveMismatch marca una discrepancia como resuelta registrando quién.
// Resolver una ya resuelta es un no-op.
func (uc *UseCase) ResolveMismatch(ctx context.Context, mismatchID, resolvedBy string) (*entity.ReconciliationMismatch, error) {
	if resolvedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var result *entity.ReconciliationMismatch
	err := uc.txRunner.RunReconciliation(ctx, func(
		_ repository.MovementRepository,
		recon repository.ReconciliationRepository,
	) error {
		mm, err := recon.GetMismatchForUpdate(mismatchID)
		if err != nil {
			return err
		}
		if mm.IsResolved {
			result = mm
			return nil
		}
		mm.IsResolved = true
		mm.ResolvedBy = resolvedBy
		mm.ResolvedAt = &now
		if err := recon.UpdateMismatch(mm); err != nil {
			return err
		}
		result = mm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetRun devuelve una corrida.
func (uc *UseCase) GetRun(ctx context.Context, runID string) (*entity.ReconciliationRun, error) {
	return uc.recon.GetRun(runID)
}

// ListRuns lista corridas, más recientes primero.
func (uc *UseCase) ListRuns(ctx context.Context, limit, offset int) ([]*entity.ReconciliationRun, error) {
	return uc.recon.ListRuns(limit, offset)
}

// ListMismatches lista las discrepancias de una corrida, no resueltas y de
// menor confianza primero.
func (uc *UseCase) ListMismatches(ctx context.Context, runID string) ([]*entity.ReconciliationMismatch, error) {
	return uc.recon.ListMismatches(runID)
}

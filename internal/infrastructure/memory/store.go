package memory

import (
	"sync"
	"time"

	"github.com/vendhub/stock-ledger/internal/domain/entity"
)

// Store es la implementación en memoria del almacenamiento del libro
// (tests y modo dev). Un único mutex serializa todas las transacciones:
// la exclusividad por posición queda garantizada por construcción, igual
// que con los row locks de PostgreSQL.
type Store struct {
	mu           sync.Mutex
	positions    map[string]*entity.StockPosition // clave: productID + "|" + Level.Key()
	batches      map[string]*entity.InventoryBatch
	movements    []*entity.StockMovement
	reservations map[string]*entity.StockReservation
	adjustments  map[string]*entity.InventoryAdjustment
	runs         map[string]*entity.ReconciliationRun
	mismatches   map[string]*entity.ReconciliationMismatch
}

// NewStore construye un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		positions:    map[string]*entity.StockPosition{},
		batches:      map[string]*entity.InventoryBatch{},
		reservations: map[string]*entity.StockReservation{},
		adjustments:  map[string]*entity.InventoryAdjustment{},
		runs:         map[string]*entity.ReconciliationRun{},
		mismatches:   map[string]*entity.ReconciliationMismatch{},
	}
}

func positionKey(productID string, level entity.Level) string {
	return productID + "|" + level.Key()
}

// snapshot clona el estado completo para poder revertir una transacción fallida.
func (s *Store) snapshot() *Store {
	snap := NewStore()
	for k, p := range s.positions {
		snap.positions[k] = clonePosition(p)
	}
	for k, b := range s.batches {
		snap.batches[k] = cloneBatch(b)
	}
	snap.movements = append([]*entity.StockMovement(nil), s.movements...)
	for k, r := range s.reservations {
		snap.reservations[k] = cloneReservation(r)
	}
	for k, a := range s.adjustments {
		snap.adjustments[k] = cloneAdjustment(a)
	}
	for k, r := range s.runs {
		run := *r
		snap.runs[k] = &run
	}
	for k, m := range s.mismatches {
		snap.mismatches[k] = cloneMismatch(m)
	}
	return snap
}

// restore revierte el estado al snapshot (rollback).
func (s *Store) restore(snap *Store) {
	s.positions = snap.positions
	s.batches = snap.batches
	s.movements = snap.movements
	s.reservations = snap.reservations
	s.adjustments = snap.adjustments
	s.runs = snap.runs
	s.mismatches = snap.mismatches
}

func clonePosition(p *entity.StockPosition) *entity.StockPosition {
	cp := *p
	return &cp
}

func cloneBatch(b *entity.InventoryBatch) *entity.InventoryBatch {
	cb := *b
	cb.ProductionDate = cloneTime(b.ProductionDate)
	cb.ExpiryDate = cloneTime(b.ExpiryDate)
	cb.RetiredAt = cloneTime(b.RetiredAt)
	return &cb
}

func cloneReservation(r *entity.StockReservation) *entity.StockReservation {
	cr := *r
	cr.ExpiresAt = cloneTime(r.ExpiresAt)
	return &cr
}

func cloneAdjustment(a *entity.InventoryAdjustment) *entity.InventoryAdjustment {
	ca := *a
	ca.ApprovedAt = cloneTime(a.ApprovedAt)
	ca.AppliedAt = cloneTime(a.AppliedAt)
	return &ca
}

func cloneMismatch(m *entity.ReconciliationMismatch) *entity.ReconciliationMismatch {
	cm := *m
	cm.ResolvedAt = cloneTime(m.ResolvedAt)
	return &cm
}

func cloneMovement(m *entity.StockMovement) *entity.StockMovement {
	cm := *m
	if m.DestinationLevel != nil {
		dl := *m.DestinationLevel
		cm.DestinationLevel = &dl
	}
	cm.Allocations = append([]entity.BatchAllocation(nil), m.Allocations...)
	return &cm
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ct := *t
	return &ct
}

// Package store provides RecordStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/leadflow/incentive-engine/incentive"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[incentive.LeadID]*incentive.IncentiveRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[incentive.LeadID]*incentive.IncentiveRecord)}
}

func (m *Memory) Get(_ context.Context, leadID incentive.LeadID) (*incentive.IncentiveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[leadID]
	if !ok {
		return nil, incentive.ErrNotFound
	}
	// Callers must never alias stored state.
	return rec.Clone(), nil
}

func (m *Memory) Create(_ context.Context, rec *incentive.IncentiveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.LeadID]; ok {
		return incentive.ErrDuplicateRecord
	}
	m.records[rec.LeadID] = rec.Clone()
	return nil
}

// Update swaps in the new record only if the stored version still matches
// expectedVersion. The swap is the whole record at once, so a reader never
// sees a half-applied mutation.
func (m *Memory) Update(_ context.Context, rec *incentive.IncentiveRecord, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[rec.LeadID]
	if !ok {
		return incentive.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return incentive.ErrConflict
	}
	m.records[rec.LeadID] = rec.Clone()
	return nil
}

func (m *Memory) List(_ context.Context) ([]*incentive.IncentiveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*incentive.IncentiveRecord, 0, len(m.records))
	for _, rec := range m.records {
		result = append(result, rec.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].LeadID < result[j].LeadID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Reset drops all records. Used by demo scenario loading.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[incentive.LeadID]*incentive.IncentiveRecord)
	return nil
}

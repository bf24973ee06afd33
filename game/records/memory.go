package records

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records []*GameRecord
	byID    map[string]*GameRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*GameRecord)}
}

// SaveRecord stores a copy of record. A record whose ID is already stored
// is ignored.
func (m *MemoryStore) SaveRecord(ctx context.Context, record *GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[record.ID]; ok {
		return nil
	}
	r := *record
	m.records = append(m.records, &r)
	m.byID[r.ID] = &r
	return nil
}

// GetRecord returns the record with the given ID
func (m *MemoryStore) GetRecord(ctx context.Context, id string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *r
	return &out, nil
}

// BestScore returns the highest score stored for configName, or 0
func (m *MemoryStore) BestScore(ctx context.Context, configName string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := 0
	for _, r := range m.records {
		if r.ConfigName == configName && r.Score > best {
			best = r.Score
		}
	}
	return best, nil
}

// Statistics aggregates all records
func (m *MemoryStore) Statistics(ctx context.Context) (*Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Statistics{}
	for _, r := range m.records {
		stats.add(r)
	}
	stats.finish()
	return stats, nil
}

// TopScores returns up to limit records ordered by score, earliest first on ties
func (m *MemoryStore) TopScores(ctx context.Context, limit int) ([]*GameRecord, error) {
	limit = normalizeLimit(limit)

	m.mu.RLock()
	sorted := make([]*GameRecord, len(m.records))
	for i, r := range m.records {
		c := *r
		sorted[i] = &c
	}
	m.mu.RUnlock()

	rankRecords(sorted)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

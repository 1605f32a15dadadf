package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ThoBustos/tinyworld/core"
)

// InMemoryStore is a naive process-local MemoryStore.
//
// Concurrency: protected by RWMutex.
// Query: linear scan with substring matching (case insensitive) assigning a
// constant score of 1.0 to every hit. Suitable only for tests / demos; swap
// for the sqlitestore implementation (or a vector DB) for semantic retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	storage map[string][]core.MemoryRecord // namespace -> records, append order
}

// NewInMemoryStore creates a new in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{storage: make(map[string][]core.MemoryRecord)}
}

// Add appends a record with a generated id and the current timestamp.
func (m *InMemoryStore) Add(namespace string, content string, metadata map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	rec := core.MemoryRecord{
		ID:        core.NewID(),
		Content:   content,
		Metadata:  md,
		Timestamp: time.Now().UTC(),
	}
	m.storage[namespace] = append(m.storage[namespace], rec)
	return rec.ID, nil
}

// Query performs a case-insensitive substring match over stored records.
// Results keep insertion order up to k. Every hit receives a constant score
// of 1.0, so scoreThreshold only distinguishes hit from miss.
func (m *InMemoryStore) Query(namespace string, queryText string, k int, scoreThreshold float64) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if scoreThreshold > 1.0 {
		return []core.SearchResult{}, nil
	}
	needle := strings.ToLower(queryText)
	results := make([]core.SearchResult, 0, k)
	for _, rec := range m.storage[namespace] {
		if len(results) >= k {
			break
		}
		if queryText == "" || strings.Contains(strings.ToLower(rec.Content), needle) {
			md := make(map[string]any, len(rec.Metadata))
			for k, v := range rec.Metadata {
				md[k] = v
			}
			results = append(results, core.SearchResult{ID: rec.ID, Content: rec.Content, Score: 1.0, Metadata: md})
		}
	}
	return results, nil
}

// ListRecent returns up to limit records ordered most-recent-first.
func (m *InMemoryStore) ListRecent(namespace string, limit int) ([]core.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.storage[namespace]
	out := make([]core.MemoryRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats reports record counts for the namespace.
func (m *InMemoryStore) Stats(namespace string) (core.MemoryStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := core.MemoryStats{Namespace: namespace, TotalRecords: len(m.storage[namespace])}
	var last time.Time
	for _, rec := range m.storage[namespace] {
		if rec.Timestamp.After(last) {
			last = rec.Timestamp
		}
	}
	if !last.IsZero() {
		stats.LastRecordTime = &last
	}
	return stats, nil
}

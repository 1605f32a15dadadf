package core

import "time"

// MemoryRecord is a single reflection persisted to a memory store. IDs are
// assigned by the store on Add.
type MemoryRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// SearchResult represents a retrieved memory item with a relevance score and
// arbitrary metadata.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// MemoryStats summarizes the contents of a namespace.
type MemoryStats struct {
	Namespace      string     `json:"namespace"`
	TotalRecords   int        `json:"total_records"`
	LastRecordTime *time.Time `json:"last_record_time,omitempty"`
}

// MemoryStore defines persistence + retrieval for character reflections.
// Records live in namespaces (one logical collection per character group).
// Implementations can back Query with embeddings, keywords or any heuristic.
// The caller never manages the store's persistence format or connection
// lifecycle beyond issuing these calls.
type MemoryStore interface {
	// Add persists content with metadata and returns the assigned record id.
	Add(namespace string, content string, metadata map[string]any) (string, error)
	// Query returns up to k records ranked by relevance to queryText,
	// dropping results below scoreThreshold.
	Query(namespace string, queryText string, k int, scoreThreshold float64) ([]SearchResult, error)
	// ListRecent returns up to limit records ordered most-recent-first.
	ListRecent(namespace string, limit int) ([]MemoryRecord, error)
	// Stats reports record counts for the namespace.
	Stats(namespace string) (MemoryStats, error)
}

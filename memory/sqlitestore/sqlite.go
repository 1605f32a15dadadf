// Package sqlitestore implements a durable MemoryStore on SQLite. Records are
// kept in a single table partitioned by namespace; when an Embedder is
// configured each record also stores an embedding vector and Query ranks by
// cosine similarity instead of substring matching.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
)

// Embedder turns texts into embedding vectors. The openai model package
// provides an implementation; any embedding source works.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Options configure a Store.
type Options struct {
	Embedder     Embedder
	EmbedTimeout time.Duration
	Logger       logging.Logger
}

// Store is a SQLite-backed MemoryStore.
type Store struct {
	db           *sql.DB
	embedder     Embedder
	embedTimeout time.Duration
	logger       logging.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	id         TEXT PRIMARY KEY,
	namespace  TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	embedding  BLOB
);
CREATE INDEX IF NOT EXISTS idx_memory_ns_created ON memory_records(namespace, created_at DESC);
`

// Open opens (creating if necessary) the database at path and applies the
// schema. An empty path is an error.
func Open(path string, optFns ...func(o *Options)) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty db path")
	}
	opts := Options{EmbedTimeout: 15 * time.Second, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, embedder: opts.Embedder, embedTimeout: opts.EmbedTimeout, logger: opts.Logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Add persists content with metadata, embedding it first when an embedder is
// configured. Embedding failure degrades to a keyword-only record rather than
// failing the write.
func (s *Store) Add(namespace string, content string, metadata map[string]any) (string, error) {
	md, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	var blob []byte
	if s.embedder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.embedTimeout)
		vecs, err := s.embedder.Embed(ctx, []string{content})
		cancel()
		if err != nil {
			s.logger.Warn("embedding failed, storing record without vector", "error", err)
		} else if len(vecs) == 1 {
			blob = encodeVector(vecs[0])
		}
	}

	id := core.NewID()
	_, err = s.db.Exec(
		`INSERT INTO memory_records (id, namespace, content, metadata, created_at, embedding) VALUES (?, ?, ?, ?, ?, ?)`,
		id, namespace, content, string(md), time.Now().UTC().UnixNano(), blob,
	)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// Query returns up to k records ranked by relevance. With an embedder the
// ranking is cosine similarity over stored vectors; without one it falls back
// to a case-insensitive substring match with constant score 1.0.
func (s *Store) Query(namespace string, queryText string, k int, scoreThreshold float64) ([]core.SearchResult, error) {
	if s.embedder == nil {
		return s.keywordQuery(namespace, queryText, k, scoreThreshold)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.embedTimeout)
	defer cancel()
	vecs, err := s.embedder.Embed(ctx, []string{queryText})
	if err != nil || len(vecs) != 1 {
		s.logger.Warn("query embedding failed, falling back to keyword match", "error", err)
		return s.keywordQuery(namespace, queryText, k, scoreThreshold)
	}
	qv := vecs[0]

	rows, err := s.db.Query(
		`SELECT id, content, metadata, embedding FROM memory_records WHERE namespace = ? AND embedding IS NOT NULL`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var results []core.SearchResult
	for rows.Next() {
		var (
			id, content, md string
			blob            []byte
		)
		if err := rows.Scan(&id, &content, &md, &blob); err != nil {
			return nil, err
		}
		score := cosine(qv, decodeVector(blob))
		if score < scoreThreshold {
			continue
		}
		results = append(results, core.SearchResult{ID: id, Content: content, Score: score, Metadata: decodeMetadata(md)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// highest similarity first
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *Store) keywordQuery(namespace, queryText string, k int, scoreThreshold float64) ([]core.SearchResult, error) {
	if scoreThreshold > 1.0 {
		return []core.SearchResult{}, nil
	}
	rows, err := s.db.Query(
		`SELECT id, content, metadata FROM memory_records
		 WHERE namespace = ? AND (? = '' OR instr(lower(content), lower(?)) > 0)
		 ORDER BY created_at DESC LIMIT ?`,
		namespace, queryText, queryText, k,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var results []core.SearchResult
	for rows.Next() {
		var id, content, md string
		if err := rows.Scan(&id, &content, &md); err != nil {
			return nil, err
		}
		results = append(results, core.SearchResult{ID: id, Content: content, Score: 1.0, Metadata: decodeMetadata(md)})
	}
	return results, rows.Err()
}

// ListRecent returns up to limit records ordered most-recent-first.
func (s *Store) ListRecent(namespace string, limit int) ([]core.MemoryRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, content, metadata, created_at FROM memory_records
		 WHERE namespace = ? ORDER BY created_at DESC LIMIT ?`,
		namespace, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []core.MemoryRecord
	for rows.Next() {
		var (
			id, content, md string
			createdAt       int64
		)
		if err := rows.Scan(&id, &content, &md, &createdAt); err != nil {
			return nil, err
		}
		recs = append(recs, core.MemoryRecord{
			ID:        id,
			Content:   content,
			Metadata:  decodeMetadata(md),
			Timestamp: time.Unix(0, createdAt).UTC(),
		})
	}
	return recs, rows.Err()
}

// Stats reports record counts for the namespace.
func (s *Store) Stats(namespace string) (core.MemoryStats, error) {
	stats := core.MemoryStats{Namespace: namespace}
	var last sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), MAX(created_at) FROM memory_records WHERE namespace = ?`,
		namespace,
	).Scan(&stats.TotalRecords, &last)
	if err != nil {
		return stats, fmt.Errorf("stats: %w", err)
	}
	if last.Valid {
		t := time.Unix(0, last.Int64).UTC()
		stats.LastRecordTime = &t
	}
	return stats, nil
}

func decodeMetadata(md string) map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal([]byte(md), &out)
	return out
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"debugnerd/internal/embedding"
	"debugnerd/internal/logging"
	"debugnerd/internal/retrieval"
)

// =============================================================================
// CHUNKS
// =============================================================================

// Chunk is one indexed slice of a project file.
type Chunk struct {
	ID        int64          `json:"id"`
	Path      string         `json:"path"`
	StartLine int            `json:"start_line"`
	EndLine   int            `json:"end_line"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
}

// AddChunk inserts a chunk and its embedding, mirroring the vector into
// the vec0 table when the extension is active. A nil embedding stores a
// lexical-only chunk.
func (s *Store) AddChunk(c Chunk, vector []float32) (int64, error) {
	if vector != nil && len(vector) != s.dims {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), s.dims)
	}

	meta := c.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	if _, ok := meta["file"]; !ok && c.Path != "" {
		meta["file"] = c.Path
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("failed to encode chunk metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT INTO chunks (path, start_line, end_line, content, metadata, embedding) VALUES (?, ?, ?, ?, ?, ?)",
		c.Path, c.StartLine, c.EndLine, c.Content, string(metaJSON), encodeVector(vector),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if s.vecAvailable && vector != nil {
		if _, err := s.db.Exec(
			"INSERT INTO chunk_vec (chunk_id, embedding) VALUES (?, ?)",
			id, encodeVector(vector),
		); err != nil {
			return 0, fmt.Errorf("failed to insert chunk vector: %w", err)
		}
	}

	logging.StoreDebug("chunk %d added: %s:%d-%d", id, c.Path, c.StartLine, c.EndLine)
	return id, nil
}

// DeleteChunksForPath removes every chunk indexed from one file. Used
// when a file is re-indexed.
func (s *Store) DeleteChunksForPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vecAvailable {
		if _, err := s.db.Exec(
			"DELETE FROM chunk_vec WHERE chunk_id IN (SELECT id FROM chunks WHERE path = ?)", path,
		); err != nil {
			return fmt.Errorf("failed to delete chunk vectors: %w", err)
		}
	}
	if _, err := s.db.Exec("DELETE FROM chunks WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// IndexSize returns the number of stored chunks that carry an embedding.
func (s *Store) IndexSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL").Scan(&n); err != nil {
		logging.Get(logging.CategoryStore).Error("index size query failed: %v", err)
		return 0
	}
	return n
}

// ChunkCount returns the total number of stored chunks.
func (s *Store) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0
	}
	return n
}

// =============================================================================
// VECTOR SEARCH
// =============================================================================

// Search returns the k chunks nearest to the query embedding. Uses the
// vec0 KNN index when active, otherwise scans all stored embeddings.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]retrieval.VectorHit, error) {
	if len(query) != s.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), s.dims)
	}
	if k <= 0 {
		k = 10
	}

	timer := logging.StartTimer(logging.CategoryStore, "vector search")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vecAvailable {
		return s.searchVec(ctx, query, k)
	}
	return s.searchBrute(ctx, query, k)
}

func (s *Store) searchVec(ctx context.Context, query []float32, k int) ([]retrieval.VectorHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.content, c.metadata, v.distance
		FROM chunk_vec v
		JOIN chunks c ON c.id = v.chunk_id
		WHERE v.embedding MATCH ? AND v.k = ?
		ORDER BY v.distance`,
		encodeVector(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("vec0 search failed: %w", err)
	}
	defer rows.Close()

	var hits []retrieval.VectorHit
	for rows.Next() {
		var (
			id       int64
			content  string
			metaJSON string
			distance float64
		)
		if err := rows.Scan(&id, &content, &metaJSON, &distance); err != nil {
			return nil, err
		}
		hits = append(hits, retrieval.VectorHit{
			ID:       fmt.Sprintf("%d", id),
			Score:    distanceToSimilarity(distance),
			Content:  content,
			Metadata: decodeMetadata(metaJSON),
		})
	}
	return hits, rows.Err()
}

func (s *Store) searchBrute(ctx context.Context, query []float32, k int) ([]retrieval.VectorHit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, metadata, embedding FROM chunks WHERE embedding IS NOT NULL",
	)
	if err != nil {
		return nil, fmt.Errorf("chunk scan failed: %w", err)
	}
	defer rows.Close()

	var hits []retrieval.VectorHit
	for rows.Next() {
		var (
			id       int64
			content  string
			metaJSON string
			blob     []byte
		)
		if err := rows.Scan(&id, &content, &metaJSON, &blob); err != nil {
			return nil, err
		}
		vec := decodeVector(blob)
		sim, err := embedding.CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		hits = append(hits, retrieval.VectorHit{
			ID:       fmt.Sprintf("%d", id),
			Score:    sim,
			Content:  content,
			Metadata: decodeMetadata(metaJSON),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// LoadBM25 feeds every stored chunk into a fresh lexical index.
func (s *Store) LoadBM25(k1, b float64, stoplist []string) (*retrieval.BM25Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, content, metadata FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("chunk scan failed: %w", err)
	}
	defer rows.Close()

	idx := retrieval.NewBM25Index(k1, b, stoplist)
	for rows.Next() {
		var (
			id       int64
			content  string
			metaJSON string
		)
		if err := rows.Scan(&id, &content, &metaJSON); err != nil {
			return nil, err
		}
		idx.Add(fmt.Sprintf("%d", id), content, decodeMetadata(metaJSON))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logging.Store("bm25 index loaded: %d chunks", idx.Size())
	return idx, nil
}

// =============================================================================
// ENCODING
// =============================================================================

func encodeVector(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}

func decodeMetadata(raw string) map[string]any {
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return meta
}

// distanceToSimilarity maps a vec0 L2 distance into a descending score.
func distanceToSimilarity(d float64) float64 {
	return 1.0 / (1.0 + d)
}

var _ retrieval.VectorSearcher = (*Store)(nil)

package retrieval

import (
	"context"
	"fmt"
	"sort"

	"debugnerd/internal/embedding"
	"debugnerd/internal/logging"
)

// =============================================================================
// VECTOR SEARCHER ABSTRACTION
// =============================================================================

// VectorHit is one ranked vector-modality result.
type VectorHit struct {
	ID       string
	Score    float64
	Content  string
	Metadata map[string]any
}

// VectorSearcher is the vector modality behind hybrid search. The SQLite
// store implements it.
type VectorSearcher interface {
	IndexSize() int
	Search(ctx context.Context, embedding []float32, k int) ([]VectorHit, error)
}

// =============================================================================
// HYBRID FUSION
// =============================================================================

// Result is one fused search result.
type Result struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	BM25Score   float64        `json:"bm25_score"`
	VectorScore float64        `json:"vector_score"`
	Score       float64        `json:"combined_score"`
}

// Hybrid fuses BM25 and vector rankings with weighted scores.
type Hybrid struct {
	bm25         *BM25Index
	vectors      VectorSearcher
	embedder     embedding.Engine
	bm25Weight   float64
	vectorWeight float64
}

// NewHybrid creates the fusion core. Weights are normalized to sum to 1 at
// search time; zero weights fall back to 0.3/0.7.
func NewHybrid(bm25 *BM25Index, vectors VectorSearcher, embedder embedding.Engine, bm25Weight, vectorWeight float64) *Hybrid {
	if bm25Weight <= 0 && vectorWeight <= 0 {
		bm25Weight, vectorWeight = 0.3, 0.7
	}
	return &Hybrid{
		bm25:         bm25,
		vectors:      vectors,
		embedder:     embedder,
		bm25Weight:   bm25Weight,
		vectorWeight: vectorWeight,
	}
}

// Search runs both modalities with an expanded top-k, fuses their scores,
// and returns the top k combined results. Ties keep the vector ranking's
// incoming order.
func (h *Hybrid) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	enhanced := EnhanceQuery(query)

	vecSize := 0
	if h.vectors != nil {
		vecSize = h.vectors.IndexSize()
	}
	bmSize := 0
	if h.bm25 != nil {
		bmSize = h.bm25.Size()
	}

	expanded := 3 * k
	if max := maxInt(vecSize, bmSize); expanded > max {
		expanded = max
	}
	if expanded == 0 {
		return nil, nil
	}

	timer := logging.StartTimer(logging.CategoryRetrieval, "hybrid search")
	defer timer.Stop()

	var vectorHits []VectorHit
	if h.vectors != nil && h.embedder != nil && vecSize > 0 {
		queryVec, err := h.embedder.Embed(ctx, enhanced)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		vectorHits, err = h.vectors.Search(ctx, queryVec, expanded)
		if err != nil {
			return nil, fmt.Errorf("vector search failed: %w", err)
		}
	}

	var lexicalHits []ScoredDoc
	if h.bm25 != nil {
		lexicalHits = h.bm25.Search(enhanced, expanded)
	}

	wb, wv := normalizeWeights(h.bm25Weight, h.vectorWeight)

	merged := make(map[string]*Result, len(vectorHits)+len(lexicalHits))
	order := make([]string, 0, len(vectorHits)+len(lexicalHits))

	for _, hit := range vectorHits {
		merged[hit.ID] = &Result{
			ID:          hit.ID,
			Content:     hit.Content,
			Metadata:    hit.Metadata,
			VectorScore: hit.Score,
		}
		order = append(order, hit.ID)
	}
	for _, hit := range lexicalHits {
		if r, ok := merged[hit.ID]; ok {
			r.BM25Score = hit.Score
			if r.Content == "" {
				r.Content = hit.Content
			}
			if r.Metadata == nil {
				r.Metadata = hit.Metadata
			}
			continue
		}
		merged[hit.ID] = &Result{
			ID:        hit.ID,
			Content:   hit.Content,
			Metadata:  hit.Metadata,
			BM25Score: hit.Score,
		}
		order = append(order, hit.ID)
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		r := merged[id]
		r.Score = wb*r.BM25Score + wv*r.VectorScore
		results = append(results, *r)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}

	logging.Retrieval("hybrid search: query=%q k=%d expanded=%d fused=%d", query, k, expanded, len(results))
	return results, nil
}

func normalizeWeights(wb, wv float64) (float64, float64) {
	sum := wb + wv
	if sum <= 0 {
		return 0.3, 0.7
	}
	return wb / sum, wv / sum
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

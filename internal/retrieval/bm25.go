// Package retrieval implements the hybrid search core: a BM25 lexical index
// fused with vector similarity, plus query enhancement and root-cause
// heuristics over the fused ranking.
package retrieval

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"debugnerd/internal/logging"
)

// =============================================================================
// BM25 INDEX
// =============================================================================

// DefaultStoplist filters tokens too common to carry signal.
var DefaultStoplist = []string{
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "to", "of", "in", "for", "on", "with", "at", "by", "from",
	"as", "and", "but", "or", "not", "this", "that", "these", "those",
	"it", "its", "if", "then", "else", "when", "where", "how", "what",
	"def", "class", "import", "return", "self", "none", "true", "false",
	"file", "line", "error", "value", "name", "type", "data", "test",
}

// ScoredDoc is one ranked lexical result.
type ScoredDoc struct {
	ID       string
	Score    float64
	Content  string
	Metadata map[string]any
}

type bm25Doc struct {
	id       string
	content  string
	metadata map[string]any
	termFreq map[string]int
	length   int
}

// BM25Index is an in-memory lexical index with Okapi BM25 scoring.
type BM25Index struct {
	mu       sync.RWMutex
	k1       float64
	b        float64
	stoplist map[string]bool
	docs     []bm25Doc
	byID     map[string]int
	docFreq  map[string]int
	totalLen int
}

// NewBM25Index creates an index with the given parameters. Zero k1/b fall
// back to 1.5/0.75; an empty stoplist falls back to DefaultStoplist.
func NewBM25Index(k1, b float64, stoplist []string) *BM25Index {
	if k1 <= 0 {
		k1 = 1.5
	}
	if b <= 0 {
		b = 0.75
	}
	if len(stoplist) == 0 {
		stoplist = DefaultStoplist
	}
	stop := make(map[string]bool, len(stoplist))
	for _, w := range stoplist {
		stop[strings.ToLower(w)] = true
	}
	return &BM25Index{
		k1:       k1,
		b:        b,
		stoplist: stop,
		byID:     make(map[string]int),
		docFreq:  make(map[string]int),
	}
}

// Tokenize lowercases and splits on runes other than letters, digits and
// underscores, dropping stoplist words and single characters.
func (idx *BM25Index) Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || idx.stoplist[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Add indexes one document. Re-adding an existing id replaces it.
func (idx *BM25Index) Add(id, content string, metadata map[string]any) {
	tokens := idx.Tokenize(content)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if pos, exists := idx.byID[id]; exists {
		old := idx.docs[pos]
		for term := range old.termFreq {
			idx.docFreq[term]--
			if idx.docFreq[term] <= 0 {
				delete(idx.docFreq, term)
			}
		}
		idx.totalLen -= old.length
		idx.docs[pos] = bm25Doc{id: id, content: content, metadata: metadata, termFreq: tf, length: len(tokens)}
	} else {
		idx.byID[id] = len(idx.docs)
		idx.docs = append(idx.docs, bm25Doc{id: id, content: content, metadata: metadata, termFreq: tf, length: len(tokens)})
	}

	for term := range tf {
		idx.docFreq[term]++
	}
	idx.totalLen += len(tokens)
}

// Size returns the number of indexed documents.
func (idx *BM25Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search scores all documents against the query and returns the top k.
func (idx *BM25Index) Search(query string, k int) []ScoredDoc {
	terms := idx.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docs)
	if n == 0 {
		return nil
	}
	avgLen := float64(idx.totalLen) / float64(n)
	if avgLen == 0 {
		avgLen = 1
	}

	scored := make([]ScoredDoc, 0, n)
	for _, doc := range idx.docs {
		var score float64
		for _, term := range terms {
			tf := doc.termFreq[term]
			if tf == 0 {
				continue
			}
			df := idx.docFreq[term]
			idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
			norm := float64(tf) * (idx.k1 + 1) /
				(float64(tf) + idx.k1*(1-idx.b+idx.b*float64(doc.length)/avgLen))
			score += idf * norm
		}
		if score > 0 {
			scored = append(scored, ScoredDoc{
				ID:       doc.id,
				Score:    score,
				Content:  doc.content,
				Metadata: doc.metadata,
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}

	logging.RetrievalDebug("bm25 search: %d terms, %d hits", len(terms), len(scored))
	return scored
}

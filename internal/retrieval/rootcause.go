package retrieval

import (
	"path"
	"sort"
	"strings"

	"debugnerd/internal/logging"
)

// =============================================================================
// ROOT-CAUSE HEURISTIC
// =============================================================================

// FindRootCause rescores fused results against the raw error log and returns
// the most likely origin. A result whose filename appears in the log gets a
// 2x boost; each significant distinct error token found in its content adds
// another 10%.
func FindRootCause(results []Result, errorLog string, stoplist []string) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}

	tokens := significantTokens(errorLog, stoplist)

	best := results[0]
	bestScore := -1.0
	for _, r := range results {
		score := r.Score

		if name := resultFile(r); name != "" && strings.Contains(errorLog, path.Base(name)) {
			score *= 2.0
		}

		m := 0
		lowered := strings.ToLower(r.Content)
		for token := range tokens {
			if strings.Contains(lowered, token) {
				m++
			}
		}
		score *= 1 + 0.1*float64(m)

		if score > bestScore {
			bestScore = score
			best = r
		}
	}

	logging.RetrievalDebug("root cause: %s (score=%.4f)", resultFile(best), bestScore)
	return best, true
}

// significantTokens returns the distinct error-log tokens longer than three
// characters that are not stoplisted.
func significantTokens(errorLog string, stoplist []string) map[string]bool {
	if len(stoplist) == 0 {
		stoplist = DefaultStoplist
	}
	stop := make(map[string]bool, len(stoplist))
	for _, w := range stoplist {
		stop[strings.ToLower(w)] = true
	}

	tokens := make(map[string]bool)
	for _, f := range strings.FieldsFunc(strings.ToLower(errorLog), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	}) {
		if len(f) > 3 && !stop[f] {
			tokens[f] = true
		}
	}
	return tokens
}

// =============================================================================
// GROUPING
// =============================================================================

// FileGroup aggregates the results that landed in one file.
type FileGroup struct {
	FilePath   string   `json:"file_path"`
	MaxScore   float64  `json:"max_score"`
	TotalScore float64  `json:"total_score"`
	Results    []Result `json:"results"`
}

// GroupByFile buckets results by their file path, sorted by max score
// descending. Used to surface related files beyond the root cause.
func GroupByFile(results []Result) []FileGroup {
	byFile := make(map[string]*FileGroup)
	var order []string

	for _, r := range results {
		file := resultFile(r)
		if file == "" {
			file = r.ID
		}
		g, ok := byFile[file]
		if !ok {
			g = &FileGroup{FilePath: file}
			byFile[file] = g
			order = append(order, file)
		}
		g.Results = append(g.Results, r)
		g.TotalScore += r.Score
		if r.Score > g.MaxScore {
			g.MaxScore = r.Score
		}
	}

	groups := make([]FileGroup, 0, len(order))
	for _, file := range order {
		groups = append(groups, *byFile[file])
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].MaxScore > groups[j].MaxScore })
	return groups
}

func resultFile(r Result) string {
	if r.Metadata == nil {
		return ""
	}
	if f, ok := r.Metadata["file"].(string); ok && f != "" {
		return f
	}
	if f, ok := r.Metadata["path"].(string); ok && f != "" {
		return f
	}
	return ""
}

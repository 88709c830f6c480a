package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
)

const searchMaxDepth = 3

// =============================================================================
// search_file_content
// =============================================================================

func searchFileContentTool(deps Deps) *Tool {
	return &Tool{
		Name:        "search_file_content",
		Description: "Case-insensitive substring search across project files with matching extensions",
		Category:    CategoryInspection,
		Execute:     func(ctx context.Context, args map[string]any) map[string]any { return executeSearch(deps, args) },
		Schema: ToolSchema{
			Required: []string{"search_pattern"},
			Properties: map[string]Property{
				"search_pattern": {
					Type:        "string",
					Description: "Substring to search for (matched case-insensitively)",
				},
				"file_extensions": {
					Type:        "array",
					Description: "Extensions to search, without leading dots (defaults to the configured relevant set)",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of matching lines to return",
					Default:     10,
				},
			},
		},
	}
}

func executeSearch(deps Deps, args map[string]any) map[string]any {
	agent := deps.Agent
	pattern := stringArg(args, "search_pattern")
	maxResults := intArg(args, "max_results", 10)

	extensions := normalizeExtensions(stringSliceArg(args, "file_extensions"))
	if len(extensions) == 0 {
		extensions = normalizeExtensions(deps.Cfg.Retrieval.RelevantExtensions)
	}

	key := memory.SearchCacheKey(pattern, extensions, maxResults)
	if entry, ok := agent.LookupSearch(key, deps.Cfg.SearchCacheTTL(), deps.Cfg.Memory.SearchCacheMtimeSample); ok {
		logging.KnowledgeDebug("search_file_content: cache hit for %s", key)
		return Success(map[string]any{
			"search_pattern": pattern,
			"matches":        entry.Results,
			"match_count":    len(entry.Results),
			"files_searched": entry.FilesSearched,
			"cached":         true,
		})
	}

	entry, err := runSearch(agent.CurrentWorkingDirectory, pattern, extensions, maxResults)
	if err != nil {
		return Failure(fmt.Sprintf("search failed: %v", err))
	}
	agent.CacheSearch(key, entry)

	return Success(map[string]any{
		"search_pattern": pattern,
		"matches":        entry.Results,
		"match_count":    len(entry.Results),
		"files_searched": entry.FilesSearched,
		"cached":         false,
	})
}

func runSearch(root, pattern string, extensions []string, maxResults int) (memory.SearchCacheEntry, error) {
	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		wanted[ext] = true
	}
	needle := strings.ToLower(pattern)

	entry := memory.SearchCacheEntry{Timestamp: time.Now()}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/")
		name := d.Name()
		hidden := strings.HasPrefix(name, ".")

		if d.IsDir() {
			if hidden || name == "node_modules" || depth >= searchMaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || depth > searchMaxDepth {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if !wanted[ext] {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		entry.FilesSearched++
		entry.SearchedFilesMetadata = append(entry.SearchedFilesMetadata, memory.FileMeta{
			Path:        rel,
			MTime:       info.ModTime(),
			Size:        info.Size(),
			LastChecked: time.Now(),
		})

		for i, line := range strings.Split(string(data), "\n") {
			if len(entry.Results) >= maxResults {
				break
			}
			if strings.Contains(strings.ToLower(line), needle) {
				entry.Results = append(entry.Results, memory.SearchMatch{
					Path:       rel,
					LineNumber: i + 1,
					Line:       strings.TrimSpace(line),
				})
			}
		}
		return nil
	})
	if err != nil {
		return memory.SearchCacheEntry{}, err
	}
	return entry, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

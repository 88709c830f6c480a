package memory

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SearchCacheKey builds the canonical cache key for a content search.
func SearchCacheKey(pattern string, extensions []string, maxResults int) string {
	exts := append([]string(nil), extensions...)
	sort.Strings(exts)
	return pattern + ":" + strings.Join(exts, ",") + ":" + strconv.Itoa(maxResults)
}

// CacheSearch stores a search result set under its key.
func (c *AgentContext) CacheSearch(key string, entry SearchCacheEntry) {
	c.KnowledgeBase.SearchResults[key] = entry
}

// LookupSearch serves a cached search when it is younger than ttl and a
// sample of the searched files is unchanged on disk.
func (c *AgentContext) LookupSearch(key string, ttl time.Duration, sample int) (SearchCacheEntry, bool) {
	entry, ok := c.KnowledgeBase.SearchResults[key]
	if !ok {
		return SearchCacheEntry{}, false
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if time.Since(entry.Timestamp) >= ttl {
		return SearchCacheEntry{}, false
	}
	if sample <= 0 {
		sample = 5
	}
	if sample > len(entry.SearchedFilesMetadata) {
		sample = len(entry.SearchedFilesMetadata)
	}
	for _, meta := range entry.SearchedFilesMetadata[:sample] {
		info, err := os.Stat(filepath.Join(c.CurrentWorkingDirectory, meta.Path))
		if err != nil {
			return SearchCacheEntry{}, false
		}
		if !info.ModTime().Equal(meta.MTime) || info.Size() != meta.Size {
			return SearchCacheEntry{}, false
		}
	}
	return entry, true
}

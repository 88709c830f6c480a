package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFilePath_OrderedRules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "present.py"), []byte("x = 1\n"), 0644))

	ctx := NewAgentContext("s", "", CommandResult{}, dir, Constraints{})

	t.Run("mapping wins", func(t *testing.T) {
		ctx.FileState.FileMappings = map[string]string{"app.py": "src/app.py"}
		assert.Equal(t, "src/app.py", ctx.ResolveFilePath("app.py"))
		ctx.FileState.FileMappings = map[string]string{}
	})

	t.Run("existing file used as requested", func(t *testing.T) {
		assert.Equal(t, "present.py", ctx.ResolveFilePath("present.py"))
	})

	t.Run("primary error file fallback", func(t *testing.T) {
		ctx.FileState.PrimaryErrorFile = "etl.py"
		assert.Equal(t, "etl.py", ctx.ResolveFilePath("missing.py"))
		ctx.FileState.PrimaryErrorFile = ""
	})

	t.Run("first discovered file fallback", func(t *testing.T) {
		ctx.FileState.DiscoveredFiles = []string{"main.py", "util.py"}
		assert.Equal(t, "main.py", ctx.ResolveFilePath("missing.py"))
		ctx.FileState.DiscoveredFiles = nil
	})

	t.Run("unresolvable returned unchanged", func(t *testing.T) {
		assert.Equal(t, "missing.py", ctx.ResolveFilePath("missing.py"))
	})
}

func TestBuildFileMappings(t *testing.T) {
	tests := []struct {
		name       string
		traceback  []string
		discovered []string
		want       map[string]string
	}{
		{
			name:       "exact basename match",
			traceback:  []string{"/home/user/proj/etl.py"},
			discovered: []string{"src/etl.py", "data.csv"},
			want:       map[string]string{"etl.py": "src/etl.py"},
		},
		{
			name:       "stem containment match",
			traceback:  []string{"app.py"},
			discovered: []string{"my_app_v2.py"},
			want:       map[string]string{"app.py": "my_app_v2.py"},
		},
		{
			name:       "no match yields no mapping",
			traceback:  []string{"ghost.py"},
			discovered: []string{"main.py"},
			want:       map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFileMappings(tt.traceback, tt.discovered)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveFileState(t *testing.T) {
	ctx := newTestContext()
	ctx.InstallCurrentError(&ErrorRecord{
		Type:     "KeyError",
		FileRefs: []string{"/home/user/proj/etl.py"},
	}, 0)

	ctx.DeriveFileState([]string{"etl.py", "data.csv"})

	assert.Equal(t, []string{"etl.py", "data.csv"}, ctx.FileState.DiscoveredFiles)
	assert.Equal(t, "etl.py", ctx.FileState.PrimaryErrorFile)
	assert.Equal(t, "etl.py", ctx.FileState.FileMappings["etl.py"])
	assert.Equal(t, "/tmp/project", ctx.FileState.WorkingDirectory)
}

func TestLookupSearch_TTLAndMTimeSampling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("import os\n"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	ctx := NewAgentContext("s", "", CommandResult{}, dir, Constraints{})
	key := SearchCacheKey("import", []string{".py"}, 10)
	ctx.CacheSearch(key, SearchCacheEntry{
		Results:       []SearchMatch{{Path: "a.py", LineNumber: 1, Line: "import os"}},
		FilesSearched: 1,
		SearchedFilesMetadata: []FileMeta{
			{Path: "a.py", MTime: info.ModTime(), Size: info.Size()},
		},
		Timestamp: time.Now(),
	})

	_, ok := ctx.LookupSearch(key, 5*time.Minute, 5)
	assert.True(t, ok)

	// Touching the file invalidates via the mtime sample.
	require.NoError(t, os.WriteFile(path, []byte("import sys\nimport os\n"), 0644))
	_, ok = ctx.LookupSearch(key, 5*time.Minute, 5)
	assert.False(t, ok)
}

func TestLookupSearch_ExpiredTTL(t *testing.T) {
	ctx := newTestContext()
	key := SearchCacheKey("x", nil, 10)
	ctx.CacheSearch(key, SearchCacheEntry{Timestamp: time.Now().Add(-10 * time.Minute)})

	_, ok := ctx.LookupSearch(key, 5*time.Minute, 5)
	assert.False(t, ok)
}

func TestSearchCacheKey_SortsExtensions(t *testing.T) {
	a := SearchCacheKey("pat", []string{".py", ".go"}, 10)
	b := SearchCacheKey("pat", []string{".go", ".py"}, 10)
	assert.Equal(t, a, b)
}

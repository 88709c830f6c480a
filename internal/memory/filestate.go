package memory

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveFilePath maps a requested file name to a usable path using the
// session file state. Resolution order:
//
//  1. an explicit mapping for the requested name
//  2. the requested path, when it exists under the working directory
//  3. the primary error file
//  4. the first discovered file
//  5. the requested path unchanged
func (c *AgentContext) ResolveFilePath(requested string) string {
	fs := &c.FileState

	if mapped, ok := fs.FileMappings[requested]; ok && mapped != "" {
		return mapped
	}

	candidate := requested
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(c.CurrentWorkingDirectory, requested)
	}
	if _, err := os.Stat(candidate); err == nil {
		return c.RelativePath(requested)
	}

	if fs.PrimaryErrorFile != "" {
		return fs.PrimaryErrorFile
	}
	if len(fs.DiscoveredFiles) > 0 {
		return fs.DiscoveredFiles[0]
	}
	return requested
}

// BuildFileMappings maps traceback-mentioned basenames onto discovered files.
// A mapping is only created when the target is actually discovered: either a
// discovered file's basename equals the traceback basename, or it contains
// the basename's stem.
func BuildFileMappings(tracebackFiles, discoveredFiles []string) map[string]string {
	mappings := make(map[string]string)
	for _, tb := range tracebackFiles {
		base := filepath.Base(tb)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for _, df := range discoveredFiles {
			dfBase := filepath.Base(df)
			if dfBase == base || (stem != "" && strings.Contains(dfBase, stem)) {
				mappings[base] = df
				break
			}
		}
	}
	return mappings
}

// DeriveFileState assembles the session file state from discovered files and
// the files referenced by the blocking error.
func (c *AgentContext) DeriveFileState(discoveredFiles []string) {
	fs := FileState{
		DiscoveredFiles:  discoveredFiles,
		WorkingDirectory: c.CurrentWorkingDirectory,
		FileMappings:     map[string]string{},
	}
	if c.CurrentBlockingError != nil && len(c.CurrentBlockingError.FileRefs) > 0 {
		fs.FileMappings = BuildFileMappings(c.CurrentBlockingError.FileRefs, discoveredFiles)
		primary := filepath.Base(c.CurrentBlockingError.FileRefs[0])
		if mapped, ok := fs.FileMappings[primary]; ok {
			fs.PrimaryErrorFile = mapped
		}
	}
	c.FileState = fs
}

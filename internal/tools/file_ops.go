package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
)

// =============================================================================
// list_directory_contents
// =============================================================================

func listDirectoryTool(deps Deps) *Tool {
	return &Tool{
		Name:        "list_directory_contents",
		Description: "List the entries of a project directory with type, size, and relevance metadata",
		Category:    CategoryInspection,
		Execute:     func(ctx context.Context, args map[string]any) map[string]any { return executeListDirectory(deps, args) },
		Schema: ToolSchema{
			Properties: map[string]Property{
				"directory_path": {
					Type:        "string",
					Description: "Directory to list, relative to the project root (defaults to the root)",
					Default:     ".",
				},
			},
		},
	}
}

func executeListDirectory(deps Deps, args map[string]any) map[string]any {
	agent := deps.Agent
	dir := stringArg(args, "directory_path")
	if dir == "" {
		dir = "."
	}
	rel := agent.RelativePath(dir)
	isRoot := rel == "." || rel == ""

	if isRoot && len(agent.FileState.DiscoveredFiles) > 0 {
		if cached := cachedRootListing(agent); cached != nil {
			logging.KnowledgeDebug("list_directory_contents: serving root listing from discovery cache")
			return Success(map[string]any{
				"directory_path": ".",
				"entries":        cached,
				"entry_count":    len(cached),
				"cached":         true,
			})
		}
	}

	abs := filepath.Join(agent.CurrentWorkingDirectory, filepath.FromSlash(rel))
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return Failure(fmt.Sprintf("Directory not found: %s", rel))
	}

	entries := make([]memory.FileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entryRel := rel + "/" + de.Name()
		if isRoot {
			entryRel = de.Name()
		}
		entries = append(entries, buildFileEntry(entryRel, info, de.IsDir()))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	absorbDiscoveredFiles(agent, entries)

	return Success(map[string]any{
		"directory_path": rel,
		"entries":        entries,
		"entry_count":    len(entries),
		"cached":         false,
	})
}

func cachedRootListing(agent *memory.AgentContext) []memory.FileEntry {
	structure := agent.KnowledgeBase.FileStructure
	if structure == nil {
		return nil
	}
	var out []memory.FileEntry
	for _, f := range structure.FlatFiles {
		if f.Depth == 0 {
			out = append(out, f)
		}
	}
	return out
}

// absorbDiscoveredFiles merges newly observed plain files into the session
// file state so later path resolution can find them.
func absorbDiscoveredFiles(agent *memory.AgentContext, entries []memory.FileEntry) {
	seen := make(map[string]bool, len(agent.FileState.DiscoveredFiles))
	merged := append([]string(nil), agent.FileState.DiscoveredFiles...)
	for _, f := range merged {
		seen[f] = true
	}
	for _, e := range entries {
		if e.Type != "file" || e.IsHidden || seen[e.Path] {
			continue
		}
		merged = append(merged, e.Path)
		seen[e.Path] = true
	}
	agent.DeriveFileState(merged)
}

// =============================================================================
// read_file_content
// =============================================================================

func readFileTool(deps Deps) *Tool {
	return &Tool{
		Name:        "read_file_content",
		Description: "Read a file, optionally restricted to an inclusive line range",
		Category:    CategoryInspection,
		Execute:     func(ctx context.Context, args map[string]any) map[string]any { return executeReadFile(deps, args) },
		Schema: ToolSchema{
			Required: []string{"file_path"},
			Properties: map[string]Property{
				"file_path": {
					Type:        "string",
					Description: "Path of the file to read, relative to the project root",
				},
				"start_line": {
					Type:        "integer",
					Description: "First line to return (1-indexed)",
				},
				"end_line": {
					Type:        "integer",
					Description: "Last line to return (inclusive)",
				},
			},
		},
	}
}

func executeReadFile(deps Deps, args map[string]any) map[string]any {
	agent := deps.Agent
	requested := stringArg(args, "file_path")
	resolved := agent.ResolveFilePath(requested)
	rel := agent.RelativePath(resolved)
	abs := filepath.Join(agent.CurrentWorkingDirectory, filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return Failure(fmt.Sprintf("File not found: %s", requested))
	}

	recency := deps.Cfg.Memory.FilesReadRecencySteps
	content, cached := agent.CachedFileRead(rel, recency, info.ModTime())
	if !cached {
		data, err := os.ReadFile(abs)
		if err != nil {
			return Failure(fmt.Sprintf("File not found: %s", requested))
		}
		content = string(data)
		agent.CacheFileRead(rel, content, agent.CurrentStep(), info.ModTime())
	} else {
		logging.KnowledgeDebug("read_file_content: serving %s from cache", rel)
	}

	lines := strings.Split(content, "\n")
	total := len(lines)
	start := intArg(args, "start_line", 1)
	end := intArg(args, "end_line", total)
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}
	if start > end {
		return Failure(fmt.Sprintf("invalid line range %d-%d for %s (%d lines)", start, end, rel, total))
	}
	slice := strings.Join(lines[start-1:end], "\n")

	return Success(map[string]any{
		"file_path":   rel,
		"content":     slice,
		"total_lines": total,
		"start_line":  start,
		"end_line":    end,
		"cached":      cached,
	})
}

// =============================================================================
// get_file_structure
// =============================================================================

func fileStructureTool(deps Deps) *Tool {
	return &Tool{
		Name:        "get_file_structure",
		Description: "Render the project tree with per-file sizes up to a depth limit",
		Category:    CategoryInspection,
		Execute:     func(ctx context.Context, args map[string]any) map[string]any { return executeFileStructure(deps, args) },
		Schema: ToolSchema{
			Properties: map[string]Property{
				"max_depth": {
					Type:        "integer",
					Description: "Maximum directory depth to scan",
					Default:     3,
				},
				"include_hidden": {
					Type:        "boolean",
					Description: "Include dotfiles and dot-directories",
					Default:     false,
				},
			},
		},
	}
}

func executeFileStructure(deps Deps, args map[string]any) map[string]any {
	agent := deps.Agent
	maxDepth := intArg(args, "max_depth", deps.Cfg.Memory.FileStructureDepth)
	includeHidden := boolArg(args, "include_hidden", false)

	if structure, ok := agent.CachedFileStructure(maxDepth, includeHidden); ok {
		logging.KnowledgeDebug("get_file_structure: cache hit (depth=%d hidden=%v)", maxDepth, includeHidden)
		return Success(map[string]any{
			"tree_structure": structure.TreeStructure,
			"metadata":       structure.Metadata,
			"file_count":     len(structure.FlatFiles),
			"cached":         true,
		})
	}

	structure, err := ScanStructure(agent.CurrentWorkingDirectory, maxDepth, includeHidden, deps.Cfg.Retrieval.RelevantExtensions)
	if err != nil {
		return Failure(fmt.Sprintf("failed to scan project structure: %v", err))
	}
	agent.SetFileStructure(structure)

	var fileNames []string
	for _, f := range structure.FlatFiles {
		if f.Type == "file" {
			fileNames = append(fileNames, f.Path)
		}
	}
	agent.DeriveFileState(fileNames)

	return Success(map[string]any{
		"tree_structure": structure.TreeStructure,
		"metadata":       structure.Metadata,
		"file_count":     len(structure.FlatFiles),
		"cached":         false,
	})
}

// ScanStructure walks the project tree to the given depth and builds
// the rendered structure snapshot. Session seeding reuses it so the
// first planner prompt already carries the project layout.
func ScanStructure(root string, maxDepth int, includeHidden bool, relevantExts []string) (*memory.FileStructure, error) {
	var flat []memory.FileEntry

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
			if name == "node_modules" || name == ".git" || (hidden && !includeHidden) {
				return filepath.SkipDir
			}
			if depth >= maxDepth {
				return filepath.SkipDir
			}
		}
		if hidden && !includeHidden {
			return nil
		}
		if depth > maxDepth {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		flat = append(flat, buildFileEntry(rel, info, d.IsDir()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(flat, func(i, j int) bool { return flat[i].Path < flat[j].Path })

	meta := memory.StructureMetadata{
		RelevantExtensions: relevantExts,
		ProjectRoot:        root,
	}
	for _, f := range flat {
		if f.Type != "file" {
			continue
		}
		meta.TotalFiles++
		if f.IsCodeFile {
			meta.CodeFiles++
		}
		if memory.IsDebugRelevant(f) {
			meta.RelevantFiles++
		}
	}

	return &memory.FileStructure{
		TreeStructure:  renderTree(flat),
		FlatFiles:      flat,
		Metadata:       meta,
		MaxDepth:       maxDepth,
		IncludedHidden: includeHidden,
		CachedAt:       time.Now(),
	}, nil
}

func renderTree(flat []memory.FileEntry) string {
	var sb strings.Builder
	for _, f := range flat {
		sb.WriteString(strings.Repeat("  ", f.Depth))
		if f.Type == "directory" {
			sb.WriteString(f.Name)
			sb.WriteString("/\n")
			continue
		}
		fmt.Fprintf(&sb, "%s (%s)\n", f.Name, f.SizeHuman)
	}
	return sb.String()
}

// =============================================================================
// ENTRY CONSTRUCTION
// =============================================================================

func buildFileEntry(relPath string, info fs.FileInfo, isDir bool) memory.FileEntry {
	relPath = filepath.ToSlash(relPath)
	name := info.Name()
	entryType := "file"
	ext := ""
	size := info.Size()
	if isDir {
		entryType = "directory"
		size = 0
	} else {
		ext = strings.TrimPrefix(filepath.Ext(name), ".")
	}
	return memory.FileEntry{
		Name:       name,
		Type:       entryType,
		IsHidden:   strings.HasPrefix(name, "."),
		Path:       relPath,
		SizeBytes:  size,
		SizeHuman:  humanSize(size),
		Extension:  strings.ToLower(ext),
		IsCodeFile: !isDir && memory.IsCodeFile(strings.ToLower(ext)),
		Depth:      strings.Count(relPath, "/"),
	}
}

func humanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1024*1024*1024))
	}
}

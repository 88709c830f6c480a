package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"debugnerd/internal/embedding"
	"debugnerd/internal/logging"
)

// =============================================================================
// INDEX BUILDER
// =============================================================================

const indexWorkers = 4

// IndexOptions configures a project indexing run.
type IndexOptions struct {
	// Extensions without a leading dot, e.g. "py", "go".
	Extensions []string

	ChunkLines   int
	ChunkOverlap int
}

// IndexStats summarizes a finished indexing run.
type IndexStats struct {
	Files    int `json:"files"`
	Chunks   int `json:"chunks"`
	Embedded int `json:"embedded"`
}

// BuildIndex chunks every relevant file under root and stores the chunks
// with their embeddings. A nil embedder builds a lexical-only index.
// Files are embedded concurrently; writes serialize on the store.
func (s *Store) BuildIndex(ctx context.Context, root string, embedder embedding.Engine, opts IndexOptions) (IndexStats, error) {
	if opts.ChunkLines <= 0 {
		opts.ChunkLines = 40
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkLines {
		opts.ChunkOverlap = 8
	}

	files, err := collectFiles(root, opts.Extensions)
	if err != nil {
		return IndexStats{}, err
	}

	timer := logging.StartTimer(logging.CategoryStore, "build index")
	defer timer.Stop()

	var chunkCount, embeddedCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			return s.indexFile(gctx, root, file, embedder, opts, &chunkCount, &embeddedCount)
		})
	}
	if err := g.Wait(); err != nil {
		return IndexStats{}, err
	}

	stats := IndexStats{
		Files:    len(files),
		Chunks:   int(chunkCount.Load()),
		Embedded: int(embeddedCount.Load()),
	}
	logging.Store("index built: files=%d chunks=%d embedded=%d", stats.Files, stats.Chunks, stats.Embedded)
	return stats, nil
}

func (s *Store) indexFile(ctx context.Context, root, file string, embedder embedding.Engine, opts IndexOptions, chunkCount, embeddedCount *atomic.Int64) error {
	data, err := os.ReadFile(filepath.Join(root, file))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	chunks := chunkLines(file, string(data), opts.ChunkLines, opts.ChunkOverlap)
	if len(chunks) == 0 {
		return nil
	}

	var vectors [][]float32
	if embedder != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err = embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", file, err)
		}
	}

	if err := s.DeleteChunksForPath(file); err != nil {
		return err
	}
	for i, c := range chunks {
		var vec []float32
		if vectors != nil && i < len(vectors) {
			vec = vectors[i]
		}
		if _, err := s.AddChunk(c, vec); err != nil {
			return err
		}
		chunkCount.Add(1)
		if vec != nil {
			embeddedCount.Add(1)
		}
	}
	return nil
}

// collectFiles returns relative paths of indexable files under root.
// Hidden entries and node_modules are skipped.
func collectFiles(root string, extensions []string) ([]string, error) {
	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		wanted[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if len(wanted) > 0 && !wanted[ext] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// chunkLines splits content into overlapping line windows.
func chunkLines(path, content string, size, overlap int) []Chunk {
	lines := strings.Split(content, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []Chunk
	for start := 0; start < len(lines); start += step {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, Chunk{
				Path:      path,
				StartLine: start + 1,
				EndLine:   end,
				Content:   text,
				Metadata: map[string]any{
					"file":       path,
					"start_line": start + 1,
					"end_line":   end,
				},
			})
		}
		if end == len(lines) {
			break
		}
	}
	return chunks
}

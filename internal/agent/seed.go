package agent

import (
	"context"
	"fmt"
	"strings"

	"debugnerd/internal/config"
	"debugnerd/internal/evolution"
	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
	"debugnerd/internal/retrieval"
	"debugnerd/internal/tools"
)

// =============================================================================
// KNOWLEDGE-BASE SEEDING
// =============================================================================

// Seed eagerly populates the knowledge base before the first planner call:
// the initial command output becomes notes and the current blocking error,
// the project structure is scanned, and file state is derived from the
// debugging-relevant files. No tool is invoked.
func Seed(agent *memory.AgentContext, cfg *config.Config) error {
	combined := agent.InitialCommandRun.CombinedOutput()

	if rec := evolution.Parse(combined); rec != nil {
		agent.InstallCurrentError(rec, 0)
		agent.AppendProgression(0, rec, nil)
		note := fmt.Sprintf("Initial command failed with %s: %s", rec.Type, rec.Message)
		if len(rec.FileRefs) > 0 {
			note += fmt.Sprintf(" (files: %s)", strings.Join(rec.FileRefs, ", "))
		}
		agent.AddNote("initial_error", note)
		logging.Agent("seeded blocking error: type=%s files=%d", rec.Type, len(rec.FileRefs))
	} else {
		agent.AddNote("initial_analysis", "Initial command output matched no known error pattern; inspect the output manually.")
	}

	structure, err := tools.ScanStructure(
		agent.CurrentWorkingDirectory,
		cfg.Memory.FileStructureDepth,
		false,
		cfg.Retrieval.RelevantExtensions,
	)
	if err != nil {
		return fmt.Errorf("failed to seed project structure: %w", err)
	}
	agent.SetFileStructure(structure)

	var relevant []string
	for _, f := range structure.FlatFiles {
		if f.Type == "file" && memory.IsDebugRelevant(f) {
			relevant = append(relevant, f.Path)
		}
	}
	agent.DeriveFileState(relevant)

	logging.Agent("seeded knowledge base: %d relevant files, primary=%q",
		len(relevant), agent.FileState.PrimaryErrorFile)
	return nil
}

// EnrichFromIndex runs one hybrid search over the enhanced error text and
// records the likely root cause plus the top related files as notes. A nil
// or empty index is a no-op.
func EnrichFromIndex(ctx context.Context, agent *memory.AgentContext, hybrid *retrieval.Hybrid, cfg *config.Config) error {
	if hybrid == nil {
		return nil
	}
	combined := agent.InitialCommandRun.CombinedOutput()
	if strings.TrimSpace(combined) == "" {
		return nil
	}

	query := retrieval.EnhanceQuery(combined)
	results, err := hybrid.Search(ctx, query, 5)
	if err != nil {
		return fmt.Errorf("index enrichment failed: %w", err)
	}
	if len(results) == 0 {
		return nil
	}

	if root, ok := retrieval.FindRootCause(results, combined, cfg.Retrieval.Stoplist); ok {
		agent.AddNote("related_files", fmt.Sprintf("Indexed code suggests the root cause is near %s (score %.2f)", resultLabel(root), root.Score))
	}

	groups := retrieval.GroupByFile(results)
	if len(groups) > 3 {
		groups = groups[:3]
	}
	labels := make([]string, 0, len(groups))
	for _, g := range groups {
		labels = append(labels, g.FilePath)
	}
	if len(labels) > 0 {
		agent.AddNote("related_files", "Indexed files related to the error: "+strings.Join(labels, ", "))
	}

	logging.Agent("index enrichment: %d results, %d file groups", len(results), len(groups))
	return nil
}

func resultLabel(r retrieval.Result) string {
	if f, ok := r.Metadata["file"].(string); ok && f != "" {
		return f
	}
	return r.ID
}

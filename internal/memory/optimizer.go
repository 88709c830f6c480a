package memory

import (
	"fmt"
	"strings"
)

// TruncationMarker separates the head and tail of a truncated file.
const TruncationMarker = "\n... [content truncated] ...\n"

// OptimizerConfig carries the thresholds the optimizer applies.
type OptimizerConfig struct {
	FocusRecentSteps      int // steps kept verbatim in focus mode
	FocusMinSteps         int // floor on retained steps
	FocusRecentActionsCap int // recent_actions cap in focus mode
	DriftThreshold        int // history length before drift summarization
	DriftKeepSteps        int // full steps kept in drift mode
	TruncationThreshold   int // file content length triggering truncation
	TruncationKeep        int // chars kept at each end
	NotesCap              int // notes kept before consolidation
	NotesMaxChars         int // consolidated notes char cap
	ProgressionCap        int // error_progression entries kept
}

// DefaultOptimizerConfig returns the standard thresholds.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		FocusRecentSteps:      5,
		FocusMinSteps:         3,
		FocusRecentActionsCap: 5,
		DriftThreshold:        5,
		DriftKeepSteps:        3,
		TruncationThreshold:   2000,
		TruncationKeep:        1000,
		NotesCap:              3,
		NotesMaxChars:         1500,
		ProgressionCap:        10,
	}
}

// Optimizer shrinks a context copy to fit the planner's working window.
type Optimizer struct {
	cfg OptimizerConfig
}

// NewOptimizer creates an optimizer with the given thresholds.
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	def := DefaultOptimizerConfig()
	if cfg.FocusRecentSteps <= 0 {
		cfg.FocusRecentSteps = def.FocusRecentSteps
	}
	if cfg.FocusMinSteps <= 0 {
		cfg.FocusMinSteps = def.FocusMinSteps
	}
	if cfg.FocusRecentActionsCap <= 0 {
		cfg.FocusRecentActionsCap = def.FocusRecentActionsCap
	}
	if cfg.DriftThreshold <= 0 {
		cfg.DriftThreshold = def.DriftThreshold
	}
	if cfg.DriftKeepSteps <= 0 {
		cfg.DriftKeepSteps = def.DriftKeepSteps
	}
	if cfg.TruncationThreshold <= 0 {
		cfg.TruncationThreshold = def.TruncationThreshold
	}
	if cfg.TruncationKeep <= 0 {
		cfg.TruncationKeep = def.TruncationKeep
	}
	if cfg.NotesCap <= 0 {
		cfg.NotesCap = def.NotesCap
	}
	if cfg.NotesMaxChars <= 0 {
		cfg.NotesMaxChars = def.NotesMaxChars
	}
	if cfg.ProgressionCap <= 0 {
		cfg.ProgressionCap = def.ProgressionCap
	}
	return &Optimizer{cfg: cfg}
}

// Optimize returns an optimized deep copy. The input is never mutated.
func (o *Optimizer) Optimize(ctx *AgentContext) *AgentContext {
	out := ctx.Clone()

	if out.CurrentBlockingError != nil {
		o.applyFocusMode(out)
	} else {
		o.applyDriftMode(out)
	}
	o.truncateFileContents(out)
	o.consolidateNotes(out)
	out.EvictOldProgression(o.cfg.ProgressionCap)

	return out
}

// applyFocusMode keeps only the steps and files relevant to the blocking
// error.
func (o *Optimizer) applyFocusMode(ctx *AgentContext) {
	history := ctx.SessionHistory
	total := len(history)

	keepFrom := total - o.cfg.FocusRecentSteps
	kept := make([]Step, 0, total)
	for i, s := range history {
		recent := i >= keepFrom
		proposal := s.ActionTaken.Tool == "propose_code_patch" || s.ActionTaken.Tool == "propose_fix_by_command"
		if recent || proposal {
			kept = append(kept, s)
		}
	}
	if len(kept) < o.cfg.FocusMinSteps && total >= o.cfg.FocusMinSteps {
		kept = append([]Step(nil), history[total-o.cfg.FocusMinSteps:]...)
	}
	ctx.SessionHistory = kept

	refs := ctx.CurrentBlockingError.FileRefs
	filtered := make(map[string]FileReadEntry)
	for path, entry := range ctx.KnowledgeBase.FilesRead {
		if fileRelatesToError(path, refs) {
			filtered[path] = entry
		}
	}
	ctx.KnowledgeBase.FilesRead = filtered

	if len(ctx.RecentActions) > o.cfg.FocusRecentActionsCap {
		ctx.RecentActions = ctx.RecentActions[len(ctx.RecentActions)-o.cfg.FocusRecentActionsCap:]
	}
}

// applyDriftMode replaces old history with a single summary step.
func (o *Optimizer) applyDriftMode(ctx *AgentContext) {
	history := ctx.SessionHistory
	if len(history) <= o.cfg.DriftThreshold {
		return
	}

	cut := len(history) - o.cfg.DriftKeepSteps
	var parts []string
	for _, s := range history[:cut] {
		status := "unknown"
		if s.Result != nil {
			if v, ok := s.Result["status"].(string); ok {
				status = v
			}
		}
		parts = append(parts, fmt.Sprintf("step %d: %s (%s)", s.StepNo, s.ActionTaken.Tool, status))
	}
	summary := Step{
		StepNo:  history[0].StepNo,
		Thought: "Summary of earlier steps: " + strings.Join(parts, "; "),
		ActionTaken: Action{
			Tool: "summary",
		},
		Result: map[string]any{"status": "success", "summarized_steps": cut},
	}
	ctx.SessionHistory = append([]Step{summary}, history[cut:]...)
}

// truncateFileContents shortens any cached file over the threshold to its
// head and tail.
func (o *Optimizer) truncateFileContents(ctx *AgentContext) {
	for path, entry := range ctx.KnowledgeBase.FilesRead {
		if len(entry.Content) > o.cfg.TruncationThreshold {
			entry.Content = entry.Content[:o.cfg.TruncationKeep] +
				TruncationMarker +
				entry.Content[len(entry.Content)-o.cfg.TruncationKeep:]
			ctx.KnowledgeBase.FilesRead[path] = entry
		}
	}
}

// consolidateNotes collapses an overgrown notes list into one bounded note.
func (o *Optimizer) consolidateNotes(ctx *AgentContext) {
	notes := ctx.KnowledgeBase.ErrorAnalysisNotes
	if len(notes) <= o.cfg.NotesCap {
		return
	}
	var sb strings.Builder
	for i, n := range notes {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(n.Type)
		sb.WriteString(": ")
		sb.WriteString(n.Content)
	}
	combined := sb.String()
	if len(combined) > o.cfg.NotesMaxChars {
		combined = combined[:o.cfg.NotesMaxChars]
	}
	ctx.KnowledgeBase.ErrorAnalysisNotes = []Note{{
		Type:      "consolidated",
		Content:   combined,
		CreatedAt: notes[len(notes)-1].CreatedAt,
	}}
}

func fileRelatesToError(path string, refs []string) bool {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if strings.Contains(path, ref) || strings.Contains(ref, path) {
			return true
		}
	}
	return false
}

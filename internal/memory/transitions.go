package memory

import (
	"path/filepath"
	"strings"
	"time"
)

// Transitions are the only sanctioned way to mutate an AgentContext.
// Each preserves the session invariants: appending a step always records a
// recent action, recent_actions stays within its cap, and the blocking error
// always matches the tail of the progression ledger.

// AppendStep appends a completed step and its deduplication record.
func (c *AgentContext) AppendStep(thought string, action Action, result map[string]any, signature string) Step {
	step := Step{
		StepNo:      c.NextStep(),
		Thought:     thought,
		ActionTaken: action,
		Result:      result,
	}
	c.SessionHistory = append(c.SessionHistory, step)
	c.RecordRecentAction(RecentAction{
		Signature:  signature,
		StepNo:     step.StepNo,
		Tool:       action.Tool,
		Parameters: action.Parameters,
		Result:     result,
	})
	return step
}

// RecordRecentAction appends to the dedup window, evicting the oldest entry
// when the cap is exceeded.
func (c *AgentContext) RecordRecentAction(a RecentAction) {
	c.RecentActions = append(c.RecentActions, a)
	cap := c.Constraints.RecentActionsCap
	if cap <= 0 {
		cap = 10
	}
	if len(c.RecentActions) > cap {
		c.RecentActions = c.RecentActions[len(c.RecentActions)-cap:]
	}
}

// FindDuplicate reports whether signature already occurred within the dedup
// window ending at the upcoming step.
func (c *AgentContext) FindDuplicate(signature string) (RecentAction, bool) {
	window := c.Constraints.DedupWindow
	if window <= 0 {
		window = 3
	}
	next := c.NextStep()
	for i := len(c.RecentActions) - 1; i >= 0; i-- {
		a := c.RecentActions[i]
		if a.StepNo <= next-window {
			break
		}
		if a.Signature == signature {
			return a, true
		}
	}
	return RecentAction{}, false
}

// InstallCurrentError makes err the blocking error, stamping first/last seen.
func (c *AgentContext) InstallCurrentError(err *ErrorRecord, step int) {
	if err == nil {
		c.CurrentBlockingError = nil
		return
	}
	err.FirstSeenStep = step
	err.LastSeenStep = step
	err.Status = "active"
	c.CurrentBlockingError = err
}

// ArchiveSolved moves the blocking error into solved_issues.
func (c *AgentContext) ArchiveSolved(resolutionStep int) {
	if c.CurrentBlockingError == nil {
		return
	}
	solved := *c.CurrentBlockingError
	solved.Status = "resolved"
	c.SolvedIssues = append(c.SolvedIssues, SolvedIssue{
		Error:          solved,
		ResolutionStep: resolutionStep,
		ResolvedAt:     time.Now(),
	})
	c.CurrentBlockingError = nil
}

// AppendProgression records an observation in the error ledger.
func (c *AgentContext) AppendProgression(step int, detected, previous *ErrorRecord) {
	c.ErrorProgression = append(c.ErrorProgression, ProgressionEntry{
		Step:          step,
		ErrorDetected: detected,
		PreviousError: previous,
		Timestamp:     time.Now(),
	})
}

// EvictOldProgression trims the ledger to its cap, keeping the newest entries.
func (c *AgentContext) EvictOldProgression(cap int) {
	if cap <= 0 {
		cap = 10
	}
	if len(c.ErrorProgression) > cap {
		c.ErrorProgression = c.ErrorProgression[len(c.ErrorProgression)-cap:]
	}
}

// CacheFileRead stores file content under its project-relative path.
func (c *AgentContext) CacheFileRead(path, content string, step int, mtime time.Time) {
	rel := c.RelativePath(path)
	c.KnowledgeBase.FilesRead[rel] = FileReadEntry{
		Content: content,
		StepNo:  step,
		MTime:   mtime,
	}
	c.KnowledgeBase.FileMetadata[rel] = FileMeta{
		Path:        rel,
		MTime:       mtime,
		LastChecked: time.Now(),
	}
}

// CachedFileRead serves a prior read when it is recent and the file is
// unchanged on disk.
func (c *AgentContext) CachedFileRead(path string, recencySteps int, currentMTime time.Time) (string, bool) {
	if recencySteps <= 0 {
		recencySteps = 3
	}
	entry, ok := c.KnowledgeBase.FilesRead[c.RelativePath(path)]
	if !ok {
		return "", false
	}
	if c.CurrentStep()-entry.StepNo > recencySteps {
		return "", false
	}
	if !entry.MTime.Equal(currentMTime) {
		return "", false
	}
	return entry.Content, true
}

// SetFileStructure installs a structure scan result.
func (c *AgentContext) SetFileStructure(fs *FileStructure) {
	c.KnowledgeBase.FileStructure = fs
}

// CachedFileStructure serves the cached structure when it was scanned at
// least as deep as requested and with a compatible hidden-files setting.
func (c *AgentContext) CachedFileStructure(maxDepth int, includeHidden bool) (*FileStructure, bool) {
	fs := c.KnowledgeBase.FileStructure
	if fs == nil {
		return nil, false
	}
	if fs.MaxDepth < maxDepth {
		return nil, false
	}
	if includeHidden && !fs.IncludedHidden {
		return nil, false
	}
	return fs, true
}

// AddNote appends a typed error-analysis note.
func (c *AgentContext) AddNote(noteType, content string) {
	c.KnowledgeBase.ErrorAnalysisNotes = append(c.KnowledgeBase.ErrorAnalysisNotes, Note{
		Type:      noteType,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// RelativePath normalizes a path against the session working directory.
// Absolute paths inside the project become project-relative; everything
// else is cleaned and kept as given.
func (c *AgentContext) RelativePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) && c.CurrentWorkingDirectory != "" {
		if rel, err := filepath.Rel(c.CurrentWorkingDirectory, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// Package memory implements the agent context and knowledge base: the single
// authoritative session value the orchestrator mutates between planner calls.
//
// The context is a plain value updated through a small set of named
// transitions (transitions.go). The optimizer (optimizer.go) never touches
// the authoritative value; it works on a deep copy used only for prompt
// assembly.
package memory

import (
	"time"
)

// =============================================================================
// SECTION 1: Command & Step Types
// =============================================================================

// CommandResult captures a single shell command execution.
type CommandResult struct {
	CommandString string `json:"command_string"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	ExitCode      int    `json:"exit_code"`
}

// CombinedOutput returns stderr followed by stdout, the view the error
// evolution engine parses.
func (c CommandResult) CombinedOutput() string {
	if c.Stderr == "" {
		return c.Stdout
	}
	if c.Stdout == "" {
		return c.Stderr
	}
	return c.Stderr + "\n" + c.Stdout
}

// Action is a planner-selected tool invocation.
type Action struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// Step is one completed iteration of the agent loop.
type Step struct {
	StepNo      int            `json:"step_no"`
	Thought     string         `json:"thought"`
	ActionTaken Action         `json:"action_taken"`
	Result      map[string]any `json:"result"`
}

// RecentAction is the deduplication view of a step.
type RecentAction struct {
	Signature  string         `json:"signature"`
	StepNo     int            `json:"step_no"`
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
	Result     map[string]any `json:"result"`
}

// =============================================================================
// SECTION 2: Error Types
// =============================================================================

// ErrorRecord is a structured view of a parsed error.
type ErrorRecord struct {
	Type          string   `json:"type"`
	Message       string   `json:"message"`
	FileRefs      []string `json:"file_refs"`
	LineRefs      []int    `json:"line_refs"`
	RawOutput     string   `json:"raw_output"`
	FirstSeenStep int      `json:"first_seen_step"`
	LastSeenStep  int      `json:"last_seen_step"`
	Status        string   `json:"status"`
}

// SolvedIssue is a previously blocking error that has since disappeared.
type SolvedIssue struct {
	Error          ErrorRecord `json:"error"`
	ResolutionStep int         `json:"resolution_step"`
	ResolvedAt     time.Time   `json:"resolved_at"`
}

// ProgressionEntry is one observation in the chronological error ledger.
type ProgressionEntry struct {
	Step          int          `json:"step"`
	ErrorDetected *ErrorRecord `json:"error_detected"`
	PreviousError *ErrorRecord `json:"previous_error"`
	Timestamp     time.Time    `json:"timestamp"`
}

// =============================================================================
// SECTION 3: Knowledge Base Types
// =============================================================================

// FileReadEntry is a cached file read.
type FileReadEntry struct {
	Content string    `json:"content"`
	StepNo  int       `json:"step_no"`
	MTime   time.Time `json:"mtime"`
}

// FileEntry describes one file observed during a structure scan or listing.
type FileEntry struct {
	Name       string `json:"name"`
	Type       string `json:"type"` // file or directory
	IsHidden   bool   `json:"isHidden"`
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes"`
	SizeHuman  string `json:"size_formatted"`
	Extension  string `json:"extension"`
	IsCodeFile bool   `json:"is_code_file"`
	Depth      int    `json:"depth"`
}

// StructureMetadata summarizes a structure scan.
type StructureMetadata struct {
	TotalFiles         int      `json:"total_files"`
	RelevantFiles      int      `json:"relevant_files"`
	CodeFiles          int      `json:"code_files"`
	RelevantExtensions []string `json:"relevant_extensions"`
	ProjectRoot        string   `json:"project_root"`
}

// FileStructure is the cached result of a project structure scan.
type FileStructure struct {
	TreeStructure  string            `json:"tree_structure"`
	FlatFiles      []FileEntry       `json:"flat_files"`
	Metadata       StructureMetadata `json:"metadata"`
	MaxDepth       int               `json:"max_depth"`
	IncludedHidden bool              `json:"included_hidden"`
	CachedAt       time.Time         `json:"cached_at"`
}

// SearchMatch is a single line hit from search_file_content.
type SearchMatch struct {
	Path       string `json:"path"`
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
}

// FileMeta records the observed state of a file on disk.
type FileMeta struct {
	Path        string    `json:"path"`
	MTime       time.Time `json:"mtime"`
	Size        int64     `json:"size"`
	LastChecked time.Time `json:"last_checked"`
}

// SearchCacheEntry is a cached search result set.
type SearchCacheEntry struct {
	Results               []SearchMatch `json:"results"`
	FilesSearched         int           `json:"files_searched"`
	SearchedFilesMetadata []FileMeta    `json:"searched_files_metadata"`
	Timestamp             time.Time     `json:"timestamp"`
}

// Note is a typed error-analysis note.
type Note struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// KnowledgeBase holds everything the agent has learned about the project.
type KnowledgeBase struct {
	FilesRead          map[string]FileReadEntry    `json:"files_read"`
	FileStructure      *FileStructure              `json:"file_structure"`
	SearchResults      map[string]SearchCacheEntry `json:"search_results"`
	FileMetadata       map[string]FileMeta         `json:"file_metadata"`
	ErrorAnalysisNotes []Note                      `json:"error_analysis_notes"`
}

// =============================================================================
// SECTION 4: File State
// =============================================================================

// FileState is the resolution table from requested filenames to on-disk paths.
type FileState struct {
	DiscoveredFiles  []string          `json:"discovered_files"`
	PrimaryErrorFile string            `json:"primary_error_file"`
	FileMappings     map[string]string `json:"file_mappings"`
	WorkingDirectory string            `json:"working_directory"`
}

// =============================================================================
// SECTION 5: Agent Context
// =============================================================================

// ToolDescriptor advertises one catalog tool to the planner.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Constraints bounds a session.
type Constraints struct {
	MaxSessionSteps          int  `json:"max_session_steps"`
	RecentActionsCap         int  `json:"recent_actions_cap"`
	DedupWindow              int  `json:"dedup_window"`
	AllowedFileModifications bool `json:"allowed_file_modifications"`
	AllowedCommandExecution  bool `json:"allowed_command_execution"`
}

// AgentContext is the authoritative session value.
type AgentContext struct {
	SessionID               string             `json:"session_id"`
	InitialUserRequest      string             `json:"initial_user_request"`
	InitialCommandRun       CommandResult      `json:"initial_command_run"`
	CurrentWorkingDirectory string             `json:"current_working_directory"`
	SessionHistory          []Step             `json:"session_history"`
	RecentActions           []RecentAction     `json:"recent_actions"`
	SolvedIssues            []SolvedIssue      `json:"solved_issues"`
	CurrentBlockingError    *ErrorRecord       `json:"current_blocking_error"`
	ErrorProgression        []ProgressionEntry `json:"error_progression"`
	KnowledgeBase           KnowledgeBase      `json:"knowledge_base"`
	FileState               FileState          `json:"file_state"`
	AvailableTools          []ToolDescriptor   `json:"available_tools"`
	Constraints             Constraints        `json:"constraints"`
	StartedAt               time.Time          `json:"started_at"`
}

// NewAgentContext creates a session context from the initial request,
// the captured failing command, and the session working directory.
func NewAgentContext(sessionID, userRequest string, cmd CommandResult, cwd string, constraints Constraints) *AgentContext {
	return &AgentContext{
		SessionID:               sessionID,
		InitialUserRequest:      userRequest,
		InitialCommandRun:       cmd,
		CurrentWorkingDirectory: cwd,
		KnowledgeBase: KnowledgeBase{
			FilesRead:     map[string]FileReadEntry{},
			SearchResults: map[string]SearchCacheEntry{},
			FileMetadata:  map[string]FileMeta{},
		},
		FileState: FileState{
			FileMappings:     map[string]string{},
			WorkingDirectory: cwd,
		},
		Constraints: constraints,
		StartedAt:   time.Now(),
	}
}

// CurrentStep returns the step number of the last appended step.
func (c *AgentContext) CurrentStep() int {
	if len(c.SessionHistory) == 0 {
		return 0
	}
	return c.SessionHistory[len(c.SessionHistory)-1].StepNo
}

// NextStep returns the step number the next appended step will receive.
func (c *AgentContext) NextStep() int {
	return c.CurrentStep() + 1
}

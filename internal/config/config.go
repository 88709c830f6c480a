package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// WorkspaceDir is the per-project state directory.
const WorkspaceDir = ".debugnerd"

// Config holds all debugnerd configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Agent loop settings
	Agent AgentConfig `yaml:"agent"`

	// Context memory and optimization settings
	Memory MemoryConfig `yaml:"memory"`

	// Subprocess execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// Hybrid retrieval settings
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Planner LLM settings
	Planner PlannerConfig `yaml:"planner"`

	// Embedding backend settings
	Embedding EmbeddingConfig `yaml:"embedding"`

	// SQLite store settings
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// AgentConfig bounds the agentic debugging loop.
type AgentConfig struct {
	// Hard cap on planner/tool steps per session.
	MaxSessionSteps int `yaml:"max_session_steps"`

	// Consecutive tool failures before the session aborts.
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`

	// Sliding window of prior steps checked for duplicate actions.
	DedupWindow int `yaml:"dedup_window"`

	// Delay between loop iterations.
	PacingDelay string `yaml:"pacing_delay"`

	// Soft token budget for the assembled planner prompt.
	ContextBudgetTokens int `yaml:"context_budget_tokens"`
}

// MemoryConfig bounds the agent context and its optimizer.
type MemoryConfig struct {
	// recent_actions list cap in normal operation.
	RecentActionsCap int `yaml:"recent_actions_cap"`

	// recent_actions cap while a blocking error is active.
	FocusRecentActionsCap int `yaml:"focus_recent_actions_cap"`

	// Steps kept verbatim in focus mode, and the floor below which
	// focus mode keeps everything.
	FocusRecentSteps int `yaml:"focus_recent_steps"`
	FocusMinSteps    int `yaml:"focus_min_steps"`

	// Cached file contents longer than Threshold chars are reduced to
	// the first and last Keep chars around a truncation marker.
	FileTruncationThreshold int `yaml:"file_truncation_threshold"`
	FileTruncationKeep      int `yaml:"file_truncation_keep"`

	// Notes list cap and the consolidated-notes character cap.
	NotesCap      int `yaml:"notes_cap"`
	NotesMaxChars int `yaml:"notes_max_chars"`

	// error_progression entries kept after optimization.
	ProgressionCap int `yaml:"progression_cap"`

	// A cached files_read entry is served again only within this many
	// steps of the read and while the file's mtime is unchanged.
	FilesReadRecencySteps int `yaml:"files_read_recency_steps"`

	// Default depth for file-structure scans.
	FileStructureDepth int `yaml:"file_structure_depth"`

	// search_results cache TTL and the number of result files sampled
	// for mtime staleness checks.
	SearchCacheTTL         string `yaml:"search_cache_ttl"`
	SearchCacheMtimeSample int    `yaml:"search_cache_mtime_sample"`
}

// ExecutionConfig configures the subprocess runner.
type ExecutionConfig struct {
	// Timeout for run_diagnostic_command invocations.
	DiagnosticTimeout string `yaml:"diagnostic_timeout"`

	// Timeout for the initial user command.
	CommandTimeout string `yaml:"command_timeout"`

	// Substring-matched tokens that reject a diagnostic command.
	DenylistTokens []string `yaml:"denylist_tokens"`
}

// RetrievalConfig configures BM25 scoring and hybrid fusion.
type RetrievalConfig struct {
	BM25K1 float64 `yaml:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b"`

	// Fusion weights, normalized to sum 1 at query time.
	BM25Weight   float64 `yaml:"bm25_weight"`
	VectorWeight float64 `yaml:"vector_weight"`

	// Tokens excluded from indexing and from root-cause boosting.
	Stoplist []string `yaml:"stoplist"`

	// Extensions considered project-relevant when scanning files.
	RelevantExtensions []string `yaml:"relevant_extensions"`

	// Lines per chunk when indexing project files.
	ChunkLines   int `yaml:"chunk_lines"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// PlannerConfig selects and configures the planner backend.
type PlannerConfig struct {
	// Backend selection: "ollama" or "genai".
	Backend string `yaml:"backend"`

	Ollama OllamaConfig `yaml:"ollama"`
	GenAI  GenAIConfig  `yaml:"genai"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Backend selection: "ollama" or "genai".
	Backend string `yaml:"backend"`

	Ollama OllamaConfig `yaml:"ollama"`
	GenAI  GenAIConfig  `yaml:"genai"`

	// Expected embedding dimensionality.
	Dimensions int `yaml:"dimensions"`
}

// OllamaConfig points at a local Ollama server.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// GenAIConfig configures the Google GenAI backend.
type GenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// StoreConfig configures SQLite persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	SessionsDir  string `yaml:"sessions_dir"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "debugnerd",
		Version: "0.9.0",

		Agent: AgentConfig{
			MaxSessionSteps:        20,
			MaxConsecutiveFailures: 3,
			DedupWindow:            3,
			PacingDelay:            "500ms",
			ContextBudgetTokens:    8000,
		},

		Memory: MemoryConfig{
			RecentActionsCap:        10,
			FocusRecentActionsCap:   5,
			FocusRecentSteps:        5,
			FocusMinSteps:           3,
			FileTruncationThreshold: 2000,
			FileTruncationKeep:      1000,
			NotesCap:                3,
			NotesMaxChars:           1500,
			ProgressionCap:          10,
			FilesReadRecencySteps:   3,
			FileStructureDepth:      3,
			SearchCacheTTL:          "5m",
			SearchCacheMtimeSample:  5,
		},

		Execution: ExecutionConfig{
			DiagnosticTimeout: "8s",
			CommandTimeout:    "120s",
			DenylistTokens: []string{
				"rm", "del", "format", "mkfs", "dd", "mv", "cp",
				">", ">>", "sudo",
			},
		},

		Retrieval: RetrievalConfig{
			BM25K1:       1.5,
			BM25B:        0.75,
			BM25Weight:   0.3,
			VectorWeight: 0.7,
			Stoplist: []string{
				"the", "and", "for", "with", "this", "that", "from",
				"line", "file", "error", "while", "when", "into",
				"none", "null", "true", "false",
			},
			RelevantExtensions: []string{
				".py", ".go", ".js", ".ts", ".jsx", ".tsx", ".java",
				".rb", ".rs", ".c", ".h", ".cpp", ".hpp", ".cs",
				".sh", ".sql", ".yaml", ".yml", ".toml", ".json",
				".cfg", ".ini", ".txt", ".md",
			},
			ChunkLines:   40,
			ChunkOverlap: 8,
		},

		Planner: PlannerConfig{
			Backend: "ollama",
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "qwen2.5-coder:7b",
				Timeout: "120s",
			},
			GenAI: GenAIConfig{
				Model: "gemini-2.0-flash",
			},
		},

		Embedding: EmbeddingConfig{
			Backend: "ollama",
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "nomic-embed-text",
				Timeout: "30s",
			},
			GenAI: GenAIConfig{
				Model: "text-embedding-004",
			},
			Dimensions: 768,
		},

		Store: StoreConfig{
			DatabasePath: filepath.Join(WorkspaceDir, "debugnerd.db"),
			SessionsDir:  filepath.Join(WorkspaceDir, "sessions"),
		},

		Logging: LoggingConfig{
			DebugMode:  false,
			Categories: map[string]bool{},
			Level:      "info",
			JSONFormat: false,
		},
	}
}

// DefaultPath returns the config file path for a project root.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, WorkspaceDir, "config.yaml")
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// PacingDelay returns the agent pacing delay as a duration.
func (c *Config) PacingDelay() time.Duration {
	return parseDuration(c.Agent.PacingDelay, 500*time.Millisecond)
}

// DiagnosticTimeout returns the diagnostic command timeout as a duration.
func (c *Config) DiagnosticTimeout() time.Duration {
	return parseDuration(c.Execution.DiagnosticTimeout, 8*time.Second)
}

// CommandTimeout returns the initial command timeout as a duration.
func (c *Config) CommandTimeout() time.Duration {
	return parseDuration(c.Execution.CommandTimeout, 2*time.Minute)
}

// SearchCacheTTL returns the search-results cache TTL as a duration.
func (c *Config) SearchCacheTTL() time.Duration {
	return parseDuration(c.Memory.SearchCacheTTL, 5*time.Minute)
}

// PlannerTimeout returns the planner request timeout as a duration.
func (c *Config) PlannerTimeout() time.Duration {
	return parseDuration(c.Planner.Ollama.Timeout, 2*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

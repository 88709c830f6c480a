package config

import (
	"os"
	"strconv"
)

// applyEnvOverrides applies DEBUGNERD_* environment variable overrides.
// Environment always wins over the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEBUGNERD_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.MaxSessionSteps = n
		}
	}
	if v := os.Getenv("DEBUGNERD_CONTEXT_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.ContextBudgetTokens = n
		}
	}
	if v := os.Getenv("DEBUGNERD_PACING_DELAY"); v != "" {
		c.Agent.PacingDelay = v
	}
	if v := os.Getenv("DEBUGNERD_DIAGNOSTIC_TIMEOUT"); v != "" {
		c.Execution.DiagnosticTimeout = v
	}

	if v := os.Getenv("DEBUGNERD_PLANNER_BACKEND"); v != "" {
		c.Planner.Backend = v
	}
	if v := os.Getenv("DEBUGNERD_PLANNER_MODEL"); v != "" {
		c.Planner.Ollama.Model = v
	}
	if v := os.Getenv("DEBUGNERD_EMBEDDING_BACKEND"); v != "" {
		c.Embedding.Backend = v
	}
	if v := os.Getenv("DEBUGNERD_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Ollama.Model = v
	}

	// Shared Ollama host convention.
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Planner.Ollama.BaseURL = host
		c.Embedding.Ollama.BaseURL = host
	}

	// GenAI key from the standard variable.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Planner.GenAI.APIKey = key
		c.Embedding.GenAI.APIKey = key
	}

	if v := os.Getenv("DEBUGNERD_DB"); v != "" {
		c.Store.DatabasePath = v
	}

	if v := os.Getenv("DEBUGNERD_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
	if v := os.Getenv("DEBUGNERD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

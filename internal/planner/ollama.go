package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"debugnerd/internal/logging"
)

// =============================================================================
// OLLAMA PLANNER
// =============================================================================

// OllamaPlanner plans through a local Ollama server's generate endpoint.
type OllamaPlanner struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaPlanner creates a planner against the given Ollama endpoint.
func NewOllamaPlanner(endpoint, model string) *OllamaPlanner {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &OllamaPlanner{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Plan sends the prompt and returns the raw completion. Generation is
// deterministic (temperature 0) so identical contexts replan the same
// action.
func (p *OllamaPlanner) Plan(ctx context.Context, prompt string) (string, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "ollama plan")
	defer timer.Stop()

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   p.model,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(data))
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}

	logging.API("ollama plan: model=%s prompt_len=%d response_len=%d", p.model, len(prompt), len(decoded.Response))
	return decoded.Response, nil
}

// Name identifies the backend and model.
func (p *OllamaPlanner) Name() string {
	return fmt.Sprintf("ollama:%s", p.model)
}

package planner

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"debugnerd/internal/logging"
)

// =============================================================================
// GOOGLE GENAI PLANNER
// =============================================================================

// GenAIPlanner plans through Google's Gemini API.
type GenAIPlanner struct {
	client *genai.Client
	model  string
}

// NewGenAIPlanner creates a planner against the GenAI API.
func NewGenAIPlanner(apiKey, model string) (*GenAIPlanner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIPlanner{client: client, model: model}, nil
}

// Plan sends the prompt and returns the raw completion text. Generation
// is deterministic (temperature 0) with JSON output requested.
func (p *GenAIPlanner) Plan(ctx context.Context, prompt string) (string, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "genai plan")
	defer timer.Stop()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI plan failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("no completion returned")
	}

	logging.API("genai plan: model=%s prompt_len=%d response_len=%d", p.model, len(prompt), len(text))
	return text, nil
}

// Name identifies the backend and model.
func (p *GenAIPlanner) Name() string {
	return fmt.Sprintf("genai:%s", p.model)
}

// Close closes the GenAI client.
func (p *GenAIPlanner) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

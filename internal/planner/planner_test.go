package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_BareObject(t *testing.T) {
	raw := `{"thought":"read the file","tool_to_use":"read_file_content","tool_parameters":{"file_path":"etl.py"}}`
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestExtractJSON_CodeFence(t *testing.T) {
	raw := "Here is my plan:\n```json\n{\"thought\":\"x\",\"tool_to_use\":\"finish_debugging\",\"tool_parameters\":{}}\n```\nDone."
	got, err := ExtractJSON(raw)
	require.NoError(t, err)

	var action Action
	require.NoError(t, json.Unmarshal([]byte(got), &action))
	assert.Equal(t, "finish_debugging", action.ToolToUse)
}

func TestExtractJSON_NestedObjectsAndBracesInStrings(t *testing.T) {
	raw := `prose {"thought":"check {braces} inside","tool_to_use":"search_file_content","tool_parameters":{"search_pattern":"dict = {}"}} trailing`
	got, err := ExtractJSON(raw)
	require.NoError(t, err)

	var action Action
	require.NoError(t, json.Unmarshal([]byte(got), &action))
	assert.Equal(t, "dict = {}", action.ToolParameters["search_pattern"])
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON("I am not sure what to do next.")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ExtractJSON(`{"unterminated": true`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestParseAction_Valid(t *testing.T) {
	action, err := ParseAction(`{"thought":"list first","tool_to_use":"list_directory_contents","tool_parameters":{}}`)
	require.NoError(t, err)
	assert.Equal(t, "list first", action.Thought)
	assert.Equal(t, "list_directory_contents", action.ToolToUse)
	assert.NotNil(t, action.ToolParameters)
}

func TestParseAction_MissingTool(t *testing.T) {
	_, err := ParseAction(`{"thought":"hmm","tool_parameters":{}}`)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParseAction_NilParametersDefaulted(t *testing.T) {
	action, err := ParseAction(`{"thought":"t","tool_to_use":"get_file_structure"}`)
	require.NoError(t, err)
	assert.NotNil(t, action.ToolParameters)
}

func TestOllamaPlanner_Plan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, "json", req.Format)
		assert.Equal(t, float64(0), req.Options["temperature"])

		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Response: `{"thought":"t","tool_to_use":"finish_debugging","tool_parameters":{}}`,
			Done:     true,
		})
	}))
	defer server.Close()

	p := NewOllamaPlanner(server.URL, "test-model")
	out, err := p.Plan(context.Background(), "what next?")
	require.NoError(t, err)

	action, err := ParseAction(out)
	require.NoError(t, err)
	assert.Equal(t, "finish_debugging", action.ToolToUse)
}

func TestOllamaPlanner_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewOllamaPlanner(server.URL, "missing")
	_, err := p.Plan(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNew_UnsupportedBackend(t *testing.T) {
	_, err := New(Config{Backend: "anthropic"})
	assert.Error(t, err)
}

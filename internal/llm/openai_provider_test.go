package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("test-api-key")
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())
	assert.NotNil(t, provider.client)
}

func TestOpenAIProvider_BuildRequestParams(t *testing.T) {
	provider := NewOpenAIProvider("test-key")
	temperature := 0.1

	tests := []struct {
		name    string
		request *GenerationRequest
		checks  func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest)
	}{
		{
			name: "basic request with user message",
			request: &GenerationRequest{
				Model:        "gpt-4.1-mini",
				SystemPrompt: "test system prompt",
				InputArray:   []map[string]any{UserMessage("test content")},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.Equal(t, "gpt-4.1-mini", params.Model)
				assert.Equal(t, "test system prompt", params.Instructions.Value)
				assert.Len(t, params.Input.OfInputItemList, 1)
			},
		},
		{
			name: "invalid input items skipped",
			request: &GenerationRequest{
				Model:        "gpt-4.1-mini",
				SystemPrompt: "test prompt",
				InputArray: []map[string]any{
					{"role": "developer", "content": "dev message"},
					{"role": "user"},
				},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.Len(t, params.Input.OfInputItemList, 1)
			},
		},
		{
			name: "temperature on a non-reasoning model",
			request: &GenerationRequest{
				Model:       "gpt-4.1-mini",
				Temperature: &temperature,
				InputArray:  []map[string]any{UserMessage("test")},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.True(t, params.Temperature.Valid())
				assert.InDelta(t, 0.1, params.Temperature.Value, 1e-9)
			},
		},
		{
			name: "temperature dropped for a reasoning model",
			request: &GenerationRequest{
				Model:         "gpt-5-mini",
				ReasoningMode: "low",
				Temperature:   &temperature,
				InputArray:    []map[string]any{UserMessage("test")},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.False(t, params.Temperature.Valid())
				assert.NotEmpty(t, params.Reasoning.Effort)
			},
		},
		{
			name: "request with output schema",
			request: &GenerationRequest{
				Model:        "gpt-4.1-mini",
				SystemPrompt: "test prompt",
				InputArray:   []map[string]any{UserMessage("test")},
				OutputSchema: CommandOutputSchema(),
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				require.NotNil(t, params.Text.Format.OfJSONSchema)
				assert.Equal(t, CommandSchemaName, params.Text.Format.OfJSONSchema.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checks(t, provider, tt.request)
		})
	}
}

func TestReasoningEffort(t *testing.T) {
	tests := []struct {
		mode     string
		expected string
	}{
		{"minimal", "low"},
		{"min", "low"},
		{"low", "low"},
		{"medium", "medium"},
		{"med", "medium"},
		{"high", "high"},
		{"", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(reasoningEffort(tt.mode)))
		})
	}
}

func TestCleanTextOutput(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanTextOutput("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanTextOutput(`{"a":1}`))
	assert.Equal(t, "", cleanTextOutput(""))
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "resp_1",
			"object": "response",
			"created_at": 1,
			"model": "gpt-4.1-mini",
			"status": "completed",
			"output": [{
				"type": "message",
				"id": "msg_1",
				"status": "completed",
				"role": "assistant",
				"content": [{"type": "output_text", "text": "{\"command_type\":\"trim\"}", "annotations": []}]
			}],
			"usage": {
				"input_tokens": 40,
				"input_tokens_details": {"cached_tokens": 0},
				"output_tokens": 12,
				"output_tokens_details": {"reasoning_tokens": 0},
				"total_tokens": 52
			}
		}`))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider("test-key", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	temperature := 0.1

	resp, err := provider.Generate(context.Background(), &GenerationRequest{
		Model:        "gpt-4.1-mini",
		SystemPrompt: "interpret audio edits",
		InputArray:   []map[string]any{UserMessage("cut the intro")},
		Temperature:  &temperature,
		OutputSchema: CommandOutputSchema(),
	})
	require.NoError(t, err)

	assert.Equal(t, `{"command_type":"trim"}`, resp.RawOutput)
	assert.Equal(t, int64(52), resp.Usage.TotalTokens)
	assert.Equal(t, "interpret audio edits", gotBody["instructions"])
	assert.InDelta(t, 0.1, gotBody["temperature"], 1e-9)
}

func TestOpenAIProvider_GenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider("test-key", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := provider.Generate(context.Background(), &GenerationRequest{
		Model:      "gpt-4.1-mini",
		InputArray: []map[string]any{UserMessage("x")},
	})
	assert.Error(t, err)
}

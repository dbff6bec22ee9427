package llm

import (
	"context"
	"testing"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a test implementation of the Provider interface
type MockProvider struct {
	name         string
	generateFunc func(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &GenerationResponse{}, nil
}

func TestMockProviderGenerate(t *testing.T) {
	callCount := 0
	mock := &MockProvider{
		name: "test",
		generateFunc: func(_ context.Context, request *GenerationRequest) (*GenerationResponse, error) {
			callCount++
			require.Equal(t, "test-model", request.Model)
			return &GenerationResponse{RawOutput: `{"command_type":"trim"}`, Usage: Usage{TotalTokens: 12}}, nil
		},
	}

	var p Provider = mock
	resp, err := p.Generate(context.Background(), &GenerationRequest{Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, int64(12), resp.Usage.TotalTokens)
}

func TestUsageMap(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5, ReasoningTokens: 2, TotalTokens: 17}
	m := u.Map()
	assert.Equal(t, int64(10), m["input_tokens"])
	assert.Equal(t, int64(17), m["total_tokens"])
}

func TestGetCommandSchema(t *testing.T) {
	schema := GetCommandSchema()

	props := schema["properties"].(map[string]any)
	kindEnum := props["command_type"].(map[string]any)["enum"].([]string)
	for _, k := range command.Kinds {
		assert.Contains(t, kindEnum, string(k))
	}
	assert.Contains(t, kindEnum, "unknown")

	item := props["parameters"].(map[string]any)["items"].(map[string]any)
	typeEnum := item["properties"].(map[string]any)["type"].(map[string]any)["enum"].([]string)
	assert.Len(t, typeEnum, len(command.ParamKinds))

	assert.ElementsMatch(t, []string{"command_type", "confidence", "parameters"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestProviderFactory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		openai   string
		gemini   string
		model    string
		provider string
		wantName string
		wantErr  bool
	}{
		{"gpt model", "sk-test", "", "gpt-4.1-mini", "", "openai", false},
		{"unknown model defaults to openai", "sk-test", "", "mystery", "", "openai", false},
		{"explicit openai without key", "", "", "gpt-4.1-mini", "openai", "", true},
		{"gemini model without key", "sk-test", "", "gemini-2.5-flash", "", "", true},
		{"unknown provider", "sk-test", "", "", "anthropic", "", true},
		{"no keys", "", "", "gpt-4.1-mini", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewProviderFactory(tt.openai, tt.gemini)
			p, err := f.GetProvider(ctx, tt.model, tt.provider)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

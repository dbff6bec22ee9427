package llm

import (
	"context"
)

// Provider defines the interface for text-completion backends.
// Providers must honor OutputSchema when it is set so replies can be decoded reliably.
type Provider interface {
	// Generate runs a single completion. It is not retried and respects ctx cancellation.
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for a completion
type GenerationRequest struct {
	Model         string
	InputArray    []map[string]any
	ReasoningMode string
	SystemPrompt  string
	// Temperature is ignored by models that do not accept it. Nil uses the provider default.
	Temperature *float64
	// Structured output schema
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// Usage is the token accounting of one completion
type Usage struct {
	InputTokens     int64 `json:"input_tokens"`
	OutputTokens    int64 `json:"output_tokens"`
	ReasoningTokens int64 `json:"reasoning_tokens,omitempty"`
	TotalTokens     int64 `json:"total_tokens"`
}

// Map returns usage in the shape the observability layer records
func (u Usage) Map() map[string]any {
	return map[string]any{
		"input_tokens":     u.InputTokens,
		"output_tokens":    u.OutputTokens,
		"reasoning_tokens": u.ReasoningTokens,
		"total_tokens":     u.TotalTokens,
	}
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	RawOutput string `json:"-"` // Raw text output, JSON when OutputSchema was set
	Usage     Usage  `json:"usage"`
}

// UserMessage builds one InputArray item
func UserMessage(content string) map[string]any {
	return map[string]any{"role": userRole, "content": content}
}

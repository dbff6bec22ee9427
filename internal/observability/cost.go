package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-edit/internal/llm"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// Fallback model when a name is not in the table
	defaultPricedModel = "gpt-4.1-mini"
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for the models extraction is expected to run on
var PricingTable = map[string]ModelPricing{
	"gpt-4.1":          {InputPricePer1K: 0.002, OutputPricePer1K: 0.008},
	"gpt-4.1-mini":     {InputPricePer1K: 0.0004, OutputPricePer1K: 0.0016},
	"gpt-4.1-nano":     {InputPricePer1K: 0.0001, OutputPricePer1K: 0.0004},
	"gpt-4o":           {InputPricePer1K: 0.005, OutputPricePer1K: 0.015},
	"gpt-4o-mini":      {InputPricePer1K: 0.00015, OutputPricePer1K: 0.0006},
	"gpt-5-mini":       {InputPricePer1K: 0.00025, OutputPricePer1K: 0.002},
	"gpt-5.1":          {InputPricePer1K: 0.001, OutputPricePer1K: 0.003},
	"gpt-5.1-mini":     {InputPricePer1K: 0.0005, OutputPricePer1K: 0.0015},
	"gemini-2.5-flash": {InputPricePer1K: 0.0003, OutputPricePer1K: 0.0025},
	"gemini-2.5-pro":   {InputPricePer1K: 0.00125, OutputPricePer1K: 0.01},
}

// CalculateCost calculates the cost in USD of one completion
func CalculateCost(modelName string, usage llm.Usage) float64 {
	pricing, exists := PricingTable[strings.ToLower(modelName)]
	if !exists {
		pricing = PricingTable[defaultPricedModel]
	}

	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K

	// Reasoning tokens are billed at the input rate
	reasoningCost := (float64(usage.ReasoningTokens) / tokensPerKilo) * pricing.InputPricePer1K

	return inputCost + outputCost + reasoningCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}

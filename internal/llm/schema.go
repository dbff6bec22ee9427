package llm

import (
	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// CommandSchemaName is the schema name sent with extraction requests
const CommandSchemaName = "audio_edit_command"

// GetCommandSchema returns the JSON schema for one interpreted edit command.
// Enumerations come from the command vocabulary, so the schema cannot drift from the
// kinds the validator and executor understand.
// Note: OpenAI requires additionalProperties: false and every property in 'required',
// so optional values are expressed as nullable types.
func GetCommandSchema() map[string]any {
	kinds := make([]string, 0, len(command.Kinds)+1)
	for _, k := range command.Kinds {
		kinds = append(kinds, string(k))
	}
	kinds = append(kinds, string(command.KindUnknown))

	paramKinds := make([]string, 0, len(command.ParamKinds))
	for _, k := range command.ParamKinds {
		paramKinds = append(paramKinds, string(k))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command_type": map[string]any{
				"type":        "string",
				"enum":        kinds,
				"description": "The edit requested, or unknown when the instruction is not an audio edit",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "How sure you are of this interpretation",
			},
			"parameters": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Parameter name from the command vocabulary",
						},
						"type": map[string]any{
							"type": "string",
							"enum": paramKinds,
						},
						"value": map[string]any{
							"type":        []any{"number", "boolean", "string"},
							"description": "Numbers for duration, level_db, percentage, frequency and number; text for label",
						},
						"unit": map[string]any{
							"type":        []any{"string", "null"},
							"description": "s, dB, %, Hz, ratio or channels. Use null for labels and booleans.",
						},
					},
					"required":             []string{"name", "type", "value", "unit"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"command_type", "confidence", "parameters"},
		"additionalProperties": false,
	}
}

// CommandOutputSchema wraps GetCommandSchema for a GenerationRequest
func CommandOutputSchema() *OutputSchema {
	return &OutputSchema{
		Name:        CommandSchemaName,
		Description: "Structured interpretation of a natural-language audio edit",
		Schema:      GetCommandSchema(),
	}
}

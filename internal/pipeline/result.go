package pipeline

import (
	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/executor"
)

// Result is the only value returned across the pipeline boundary
type Result struct {
	Success        bool
	Message        string
	Command        *command.Command
	Execution      *executor.Result
	Suggestions    []string
	Warnings       []string
	Errors         []string
	ProcessingTime float64 // seconds
	OutputFile     string
	Metadata       map[string]any
}

// describe dumps the command and its parameters for the result metadata
func describe(cmd *command.Command) map[string]any {
	if cmd == nil {
		return map[string]any{}
	}
	params := make(map[string]any, len(cmd.Parameters))
	for _, p := range cmd.Parameters {
		entry := map[string]any{
			"value":   p.Value.Interface(),
			"type":    string(p.Kind),
			"isValid": p.Valid,
		}
		if p.Unit != "" {
			entry["unit"] = p.Unit
		}
		if p.Diagnostic != "" {
			entry["validationMessage"] = p.Diagnostic
		}
		params[p.Name] = entry
	}
	return map[string]any{
		"command": map[string]any{
			"type":       string(cmd.Kind),
			"confidence": cmd.Confidence,
			"source":     string(cmd.Source),
		},
		"parameters": params,
	}
}

func mergeUnique(lists ...[]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, list := range lists {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

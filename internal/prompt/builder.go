package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/validator"
)

// Builder builds extraction prompts from the command catalog
type Builder struct {
	catalog []command.Spec
}

// NewPromptBuilder creates a new prompt builder over the built-in catalog
func NewPromptBuilder() *Builder {
	return &Builder{catalog: command.Catalog()}
}

// BuildPrompt builds the complete system prompt for structured extraction
func (b *Builder) BuildPrompt() string {
	sections := []string{
		b.getSystemInstructions(),
		b.getParameterTypesReference(),
		b.getCommandReference(),
		b.getOutputFormatInstructions(),
	}

	return strings.Join(sections, "\n\n")
}

// BuildUserPrompt wraps the instruction with whatever facts about the asset are known
func (b *Builder) BuildUserPrompt(text string, actx *command.AudioContext) string {
	var sb strings.Builder
	sb.WriteString("Instruction: ")
	sb.WriteString(strconv.Quote(text))

	facts := contextFacts(actx)
	if len(facts) > 0 {
		sb.WriteString("\n\nAudio context:\n")
		for _, f := range facts {
			sb.WriteString("- ")
			sb.WriteString(f)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func contextFacts(actx *command.AudioContext) []string {
	if actx == nil {
		return nil
	}
	var facts []string
	if actx.Duration > 0 {
		facts = append(facts, fmt.Sprintf("duration: %s seconds", strconv.FormatFloat(actx.Duration, 'f', -1, 64)))
	}
	if actx.SampleRate > 0 {
		facts = append(facts, fmt.Sprintf("sample rate: %d Hz", actx.SampleRate))
	}
	if actx.Channels > 0 {
		facts = append(facts, fmt.Sprintf("channels: %d", actx.Channels))
	}
	return facts
}

func (b *Builder) getSystemInstructions() string {
	return `You interpret natural-language audio editing instructions for a single audio file.

Your job is to turn ONE instruction into ONE structured edit command.
- Pick the single command_type that best matches the instruction.
- Fill in only the parameters the instruction states or clearly implies. Omit anything else;
  defaults are applied later.
- Convert every time to seconds ("1:30" is 90, "500ms" is 0.5, "2 minutes" is 120).
- Use negative level_db values for cuts and reductions.
- If the instruction is not an audio edit, or you cannot tell what it asks for, answer with
  command_type "unknown", confidence 0 and no parameters.
- Report confidence between 0 and 1 for how sure you are of the interpretation.`
}

func (b *Builder) getParameterTypesReference() string {
	var sb strings.Builder
	sb.WriteString("**PARAMETER TYPES**:\n")
	for _, k := range command.ParamKinds {
		sb.WriteString(fmt.Sprintf("- %s: %s", k, paramKindRule(k)))
		if units := k.Units(); len(units) > 0 {
			sb.WriteString(fmt.Sprintf(" (unit: %s)", strings.Join(units, " | ")))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func paramKindRule(k command.ParamKind) string {
	switch k {
	case command.ParamDuration:
		return "seconds, never negative"
	case command.ParamLevelDb:
		return fmt.Sprintf("decibels between %g and %g", validator.MinLevelDb, validator.MaxLevelDb)
	case command.ParamPercentage:
		return fmt.Sprintf("between %g and %g", validator.MinPercent, validator.MaxPercent)
	case command.ParamFrequency:
		return fmt.Sprintf("hertz between %g and %g", validator.MinFrequency, validator.MaxFrequency)
	case command.ParamBoolean:
		return "true or false"
	case command.ParamLabel:
		return "short lower-case text"
	default:
		return "plain number"
	}
}

func (b *Builder) getCommandReference() string {
	var sb strings.Builder
	sb.WriteString("**COMMANDS**:\n")
	for _, spec := range b.catalog {
		sb.WriteString(fmt.Sprintf("\n### %s\n%s\n", spec.Kind, spec.Description))
		for _, p := range spec.Params {
			sb.WriteString(fmt.Sprintf("- %s (%s", p.Name, p.Kind))
			if p.Unit != "" {
				sb.WriteString(", " + p.Unit)
			}
			if !p.Default.IsZero() {
				sb.WriteString(", default " + p.Default.String())
			}
			sb.WriteString("): " + p.Description + "\n")
		}
		if len(spec.Examples) > 0 {
			sb.WriteString("Examples: " + quoteAll(spec.Examples) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) getOutputFormatInstructions() string {
	return `**OUTPUT FORMAT**:
Reply with a single JSON object and nothing else:
{"command_type": "<command>", "confidence": <0-1>, "parameters": [{"name": "<parameter>", "type": "<parameter type>", "value": <number | true/false | "text">, "unit": "<unit or null>"}]}

Example for "take the volume down a little, like 4 decibels":
{"command_type": "volume", "confidence": 0.85, "parameters": [{"name": "volume_change", "type": "level_db", "value": -4, "unit": "dB"}]}`
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}

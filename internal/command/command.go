package command

import "math"

// GrammarConfidence is the fixed confidence assigned to every grammar match.
//
// Extraction-path confidence is whatever the completion service reports, clamped to [0, 1]
// and otherwise unvalidated. The two numbers are not calibrated against each other, so
// callers must not rank a grammar parse against an extracted one by confidence alone.
const GrammarConfidence = 0.9

// Source records which engine produced a command
type Source string

const (
	SourceGrammar    Source = "grammar"
	SourceExtraction Source = "extraction"
)

// Parameter is one typed argument of a command
type Parameter struct {
	Name       string    `json:"name"`
	Kind       ParamKind `json:"type"`
	Value      Value     `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	Valid      bool      `json:"isValid"`
	Diagnostic string    `json:"validationMessage,omitempty"`
}

// NewParameter creates a parameter that has not been through validation yet
func NewParameter(name string, kind ParamKind, value Value, unit string) Parameter {
	return Parameter{
		Name:  name,
		Kind:  kind,
		Value: value,
		Unit:  unit,
		Valid: true,
	}
}

// Command is an interpreted instruction
type Command struct {
	Kind           Kind        `json:"commandType"`
	Confidence     float64     `json:"confidence"`
	Parameters     []Parameter `json:"parameters"`
	OriginalText   string      `json:"originalText"`
	NormalizedText string      `json:"normalizedText"`
	Suggestions    []string    `json:"suggestions,omitempty"`
	Warnings       []string    `json:"warnings,omitempty"`
	Errors         []string    `json:"errors,omitempty"`
	Source         Source      `json:"source,omitempty"`
}

// Unrecognized returns the Unknown command for text neither engine understood
func Unrecognized(original, normalized string) *Command {
	return &Command{
		Kind:           KindUnknown,
		Confidence:     0,
		OriginalText:   original,
		NormalizedText: normalized,
	}
}

// Recognized reports whether the command has a kind other than Unknown
func (c *Command) Recognized() bool {
	return c != nil && c.Kind != KindUnknown
}

// Param looks a parameter up by name
func (c *Command) Param(name string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Float returns a numeric parameter
func (c *Command) Float(name string) (float64, bool) {
	p, ok := c.Param(name)
	if !ok {
		return 0, false
	}
	return p.Value.AsFloat()
}

// Text returns a label parameter
func (c *Command) Text(name string) (string, bool) {
	p, ok := c.Param(name)
	if !ok {
		return "", false
	}
	return p.Value.AsText()
}

// Values flattens the parameters into a name to value map
func (c *Command) Values() map[string]Value {
	values := make(map[string]Value, len(c.Parameters))
	for _, p := range c.Parameters {
		values[p.Name] = p.Value
	}
	return values
}

// InvalidParameters returns the parameters the validator rejected
func (c *Command) InvalidParameters() []Parameter {
	var invalid []Parameter
	for _, p := range c.Parameters {
		if !p.Valid {
			invalid = append(invalid, p)
		}
	}
	return invalid
}

// Clone returns a deep copy
func (c *Command) Clone() *Command {
	if c == nil {
		return nil
	}
	out := *c
	out.Parameters = append([]Parameter(nil), c.Parameters...)
	out.Suggestions = append([]string(nil), c.Suggestions...)
	out.Warnings = append([]string(nil), c.Warnings...)
	out.Errors = append([]string(nil), c.Errors...)
	return &out
}

// ClampConfidence bounds a reported confidence to [0, 1]
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// AudioContext carries facts about the asset being edited. Zero values mean unknown.
type AudioContext struct {
	FileInfo   map[string]any `json:"fileInfo,omitempty"`
	Duration   float64        `json:"duration,omitempty"`
	SampleRate int            `json:"sampleRate,omitempty"`
	Channels   int            `json:"channels,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Clone returns a copy whose maps can be written without touching the original
func (a *AudioContext) Clone() *AudioContext {
	if a == nil {
		return &AudioContext{}
	}
	out := *a
	out.FileInfo = copyMap(a.FileInfo)
	out.Metadata = copyMap(a.Metadata)
	return &out
}

// HasDuration reports whether the total length of the asset is known
func (a *AudioContext) HasDuration() bool {
	return a != nil && a.Duration > 0
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

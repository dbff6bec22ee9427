package parser

import (
	"errors"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// Matcher recognizes normalized instructions with an ordered table of patterns
type Matcher struct {
	rules []rule
}

// NewMatcher returns a matcher over the built-in grammar
func NewMatcher() *Matcher {
	return &Matcher{rules: grammar}
}

// Match recognizes a normalized instruction.
//
// Kinds are tried in declaration order, and patterns within a kind in declaration order; the
// first pattern that matches anywhere in the text wins. A kind whose unless pattern matches
// is skipped entirely, so "remove the reverb" is not read as adding one. A match yields a command with
// confidence command.GrammarConfidence. No match yields the Unknown command and a nil
// error. A *ParseError means a pattern matched but a captured value was unusable.
func (m *Matcher) Match(normalized string) (*command.Command, error) {
	for _, r := range m.rules {
		if r.unless != nil && r.unless.MatchString(normalized) {
			continue
		}
		for _, pattern := range r.patterns {
			match := pattern.FindStringSubmatch(normalized)
			if match == nil {
				continue
			}

			params, err := r.extract(newCaptures(pattern, normalized, match))
			if err != nil {
				var pe *ParseError
				if !errors.As(err, &pe) {
					pe = &ParseError{Err: err}
				}
				pe.Kind = r.kind
				pe.Text = normalized
				return nil, pe
			}

			return &command.Command{
				Kind:           r.kind,
				Confidence:     command.GrammarConfidence,
				Parameters:     params,
				NormalizedText: normalized,
				Source:         command.SourceGrammar,
			}, nil
		}
	}
	return command.Unrecognized("", normalized), nil
}

// Parse normalizes raw text and matches it, keeping the original text on the result
func (m *Matcher) Parse(text string) (*command.Command, error) {
	cmd, err := m.Match(command.Normalize(text))
	if cmd != nil {
		cmd.OriginalText = text
	}
	return cmd, err
}

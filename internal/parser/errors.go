package parser

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// ErrTimecodeRange is returned for timecodes such as "1:75" whose fields overflow
var ErrTimecodeRange = errors.New("timecode field out of range")

// ParseError reports that a grammar pattern matched but one of its captures could not be
// turned into a value. The instruction was recognized, so callers should not fall back
// to extraction.
type ParseError struct {
	Kind  command.Kind
	Text  string
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not read %s %q for %s command: %v", e.Field, e.Value, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func badValue(field, value string, err error) *ParseError {
	return &ParseError{Field: field, Value: value, Err: err}
}

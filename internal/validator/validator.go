package validator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// Numeric bounds per parameter kind
const (
	MinLevelDb   = -60.0
	MaxLevelDb   = 20.0
	MinPercent   = 0.0
	MaxPercent   = 100.0
	MinFrequency = 20.0
	MaxFrequency = 20000.0

	// VolumeWarningDb is the largest gain change accepted without a quality warning
	VolumeWarningDb = 10.0
)

// Cross-field warnings
const (
	WarnStartAfterEnd = "Start time should be less than end time"
)

// Validate checks every parameter of cmd against its kind's bounds and the command's
// cross-field rules, and returns a new command. The input is not modified.
//
// Invalid parameters get Valid=false and a diagnostic prefixed with the parameter name;
// each diagnostic is also appended to Errors. Cross-field findings go to Warnings, or to
// Errors when the command cannot be executed at all. Errors block execution, warnings
// never do. Appends skip messages already present, so validating a validated command
// returns an identical command.
func Validate(cmd *command.Command, actx *command.AudioContext) *command.Command {
	out := cmd.Clone()
	if out == nil || !out.Recognized() {
		return out
	}

	for i := range out.Parameters {
		p := &out.Parameters[i]
		p.Valid = true
		p.Diagnostic = ""
		if msg := checkParameter(*p, actx); msg != "" {
			p.Valid = false
			p.Diagnostic = p.Name + ": " + msg
			out.Errors = appendUnique(out.Errors, p.Diagnostic)
		}
	}

	r := crossFieldRules(out, actx)
	out.Errors = appendUnique(out.Errors, r.errors...)
	out.Warnings = appendUnique(out.Warnings, r.warnings...)
	return out
}

// Valid reports whether a validated command may be executed
func Valid(cmd *command.Command) bool {
	return cmd.Recognized() && len(cmd.Errors) == 0 && len(cmd.InvalidParameters()) == 0
}

func checkParameter(p command.Parameter, actx *command.AudioContext) string {
	if !p.Kind.AllowsUnit(p.Unit) {
		return fmt.Sprintf("unit %q is not valid for %s values", p.Unit, p.Kind)
	}

	if p.Kind.IsNumeric() {
		v, ok := p.Value.AsFloat()
		if !ok {
			return fmt.Sprintf("expected a number, got %s", describe(p.Value))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "value is not a finite number"
		}
		return checkRange(p, v, actx)
	}

	switch p.Kind {
	case command.ParamBoolean:
		if _, ok := p.Value.AsBool(); !ok {
			return fmt.Sprintf("expected true or false, got %s", describe(p.Value))
		}
	case command.ParamLabel:
		if _, ok := p.Value.AsText(); !ok {
			return fmt.Sprintf("expected text, got %s", describe(p.Value))
		}
	default:
		return fmt.Sprintf("unsupported parameter type %q", p.Kind)
	}
	return ""
}

func checkRange(p command.Parameter, v float64, actx *command.AudioContext) string {
	switch p.Kind {
	case command.ParamDuration:
		if v < 0 {
			return fmt.Sprintf("%s s is negative", num(v))
		}
		if actx.HasDuration() && v > actx.Duration {
			return fmt.Sprintf("%s s exceeds the audio duration of %s s", num(v), num(actx.Duration))
		}
	case command.ParamLevelDb:
		if v > MaxLevelDb {
			return fmt.Sprintf("%s dB is above the maximum of %s dB and would clip", num(v), num(MaxLevelDb))
		}
		if v < MinLevelDb {
			return fmt.Sprintf("%s dB is below the minimum of %s dB and would be inaudible", num(v), num(MinLevelDb))
		}
	case command.ParamPercentage:
		if v < MinPercent || v > MaxPercent {
			return fmt.Sprintf("%s%% is outside 0-100%%", num(v))
		}
	case command.ParamFrequency:
		if v < MinFrequency || v > MaxFrequency {
			return fmt.Sprintf("%s Hz is outside the audible range of %s-%s Hz", num(v), num(MinFrequency), num(MaxFrequency))
		}
	}
	return ""
}

func describe(v command.Value) string {
	switch v.Type() {
	case command.ValueNone:
		return "nothing"
	case command.ValueBool:
		return "a boolean"
	case command.ValueText:
		return "text " + strconv.Quote(v.String())
	default:
		return "a number"
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		if !contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

type reply struct {
	CommandType *string       `json:"command_type"`
	Confidence  *float64      `json:"confidence"`
	Parameters  *[]replyParam `json:"parameters"`
}

type replyParam struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Value any     `json:"value"`
	Unit  *string `json:"unit"`
}

// decodeReply finds the first JSON object in raw and maps it onto a command
func decodeReply(raw string) (*command.Command, error) {
	object := firstObject(raw)
	if object == "" {
		return nil, ErrNoStructuredReply
	}

	var r reply
	if err := json.Unmarshal([]byte(object), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoStructuredReply, err)
	}
	if r.CommandType == nil || r.Confidence == nil || r.Parameters == nil {
		return nil, fmt.Errorf("%w: missing command_type, confidence or parameters", ErrNoStructuredReply)
	}

	kind, ok := command.ParseKind(*r.CommandType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown command type %q", ErrNoStructuredReply, *r.CommandType)
	}
	if kind == command.KindUnknown {
		return nil, fmt.Errorf("%w: service did not recognize the instruction", ErrNoStructuredReply)
	}

	params := make([]command.Parameter, 0, len(*r.Parameters))
	for _, rp := range *r.Parameters {
		p, err := rp.toParameter()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoStructuredReply, err)
		}
		params = append(params, p)
	}

	return &command.Command{
		Kind:       kind,
		Confidence: command.ClampConfidence(*r.Confidence),
		Parameters: params,
		Source:     command.SourceExtraction,
	}, nil
}

func (rp replyParam) toParameter() (command.Parameter, error) {
	name := strings.TrimSpace(rp.Name)
	if name == "" {
		return command.Parameter{}, fmt.Errorf("parameter without a name")
	}
	kind, ok := command.ParseParamKind(rp.Type)
	if !ok {
		return command.Parameter{}, fmt.Errorf("parameter %s has unknown type %q", name, rp.Type)
	}

	unit := ""
	if rp.Unit != nil {
		unit = strings.TrimSpace(*rp.Unit)
	}

	value, unit := coerce(kind, rp.Value, unit)
	return command.NewParameter(name, kind, value, unit), nil
}

// coerce converts the reply value to the Go type the kind expects and rescales common units
// onto the canonical one. Values that cannot be converted are kept as-is so the validator
// reports them.
func coerce(kind command.ParamKind, raw any, unit string) (command.Value, string) {
	switch {
	case kind.IsNumeric():
		v, ok := toNumber(raw)
		if !ok {
			return toValue(raw), unit
		}
		scale, canonical := canonicalUnit(kind, unit)
		return command.FloatValue(v * scale), canonical
	case kind == command.ParamBoolean:
		if s, ok := raw.(string); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				return command.BoolValue(b), ""
			}
		}
		return toValue(raw), ""
	default:
		switch x := raw.(type) {
		case string:
			return command.TextValue(strings.ToLower(strings.TrimSpace(x))), ""
		case float64:
			return command.TextValue(strconv.FormatFloat(x, 'f', -1, 64)), ""
		}
		return toValue(raw), ""
	}
}

func toValue(raw any) command.Value {
	switch x := raw.(type) {
	case float64:
		return command.FloatValue(x)
	case bool:
		return command.BoolValue(x)
	case string:
		return command.TextValue(x)
	default:
		return command.Value{}
	}
}

func toNumber(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimSuffix(s, "%")
		s = strings.TrimSuffix(strings.ToLower(s), "db")
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// canonicalUnit returns the multiplier onto the kind's canonical unit and that unit.
// Unrecognized units are returned unchanged with a multiplier of 1.
func canonicalUnit(kind command.ParamKind, unit string) (float64, string) {
	u := strings.ToLower(unit)
	switch kind {
	case command.ParamDuration:
		switch u {
		case "", "s", "sec", "secs", "second", "seconds":
			return 1, command.UnitSeconds
		case "ms", "millisecond", "milliseconds":
			return 0.001, command.UnitSeconds
		case "m", "min", "mins", "minute", "minutes":
			return 60, command.UnitSeconds
		}
	case command.ParamLevelDb:
		if u == "" || u == "db" || u == "decibels" {
			return 1, command.UnitDecibels
		}
	case command.ParamPercentage:
		if u == "" || u == "%" || u == "percent" {
			return 1, command.UnitPercent
		}
	case command.ParamFrequency:
		switch u {
		case "", "hz", "hertz":
			return 1, command.UnitHertz
		case "khz":
			return 1000, command.UnitHertz
		}
	case command.ParamNumber:
		switch u {
		case "hz":
			return 1, command.UnitHertz
		case "khz":
			return 1000, command.UnitHertz
		case ":1", "ratio":
			return 1, command.UnitRatio
		case "channel", "channels":
			return 1, command.UnitChannels
		}
	}
	return 1, unit
}

// firstObject returns the first balanced {...} span in s, skipping braces inside JSON strings
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

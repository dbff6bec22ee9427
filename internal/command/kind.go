package command

import "strings"

// Kind is the closed set of edits a command can request
type Kind string

const (
	KindTrim           Kind = "trim"
	KindVolume         Kind = "volume"
	KindFade           Kind = "fade"
	KindNormalize      Kind = "normalize"
	KindNoiseReduction Kind = "noise_reduction"
	KindEqualize       Kind = "equalize"
	KindReverb         Kind = "reverb"
	KindDelay          Kind = "delay"
	KindCompress       Kind = "compress"
	KindConvert        Kind = "convert"
	KindAnalyze        Kind = "analyze"
	KindUnknown        Kind = "unknown"
)

// Kinds lists every executable kind in declaration order.
// Grammar matching walks kinds in this order, so it is significant.
var Kinds = []Kind{
	KindTrim,
	KindVolume,
	KindFade,
	KindNormalize,
	KindNoiseReduction,
	KindEqualize,
	KindReverb,
	KindDelay,
	KindCompress,
	KindConvert,
	KindAnalyze,
}

// ParseKind maps a free-form kind name ("noise-reduction", "Trim") onto the closed vocabulary
func ParseKind(s string) (Kind, bool) {
	key := canonicalName(s)
	if key == string(KindUnknown) {
		return KindUnknown, true
	}
	for _, k := range Kinds {
		if string(k) == key {
			return k, true
		}
	}
	// Common spellings that do not reduce to the canonical name
	switch key {
	case "noisereduction", "denoise":
		return KindNoiseReduction, true
	case "eq", "equalizer":
		return KindEqualize, true
	case "gain":
		return KindVolume, true
	case "compression", "compressor":
		return KindCompress, true
	}
	return KindUnknown, false
}

func (k Kind) String() string {
	return string(k)
}

// ParamKind is the closed set of value types a parameter can carry
type ParamKind string

const (
	ParamDuration   ParamKind = "duration"
	ParamLevelDb    ParamKind = "level_db"
	ParamPercentage ParamKind = "percentage"
	ParamFrequency  ParamKind = "frequency"
	ParamBoolean    ParamKind = "boolean"
	ParamLabel      ParamKind = "label"
	ParamNumber     ParamKind = "number"
)

// ParamKinds lists every parameter kind in declaration order
var ParamKinds = []ParamKind{
	ParamDuration,
	ParamLevelDb,
	ParamPercentage,
	ParamFrequency,
	ParamBoolean,
	ParamLabel,
	ParamNumber,
}

// Canonical units per parameter kind
const (
	UnitSeconds  = "s"
	UnitDecibels = "dB"
	UnitPercent  = "%"
	UnitHertz    = "Hz"
	UnitRatio    = "ratio"
	UnitChannels = "channels"
)

var unitVocabulary = map[ParamKind][]string{
	ParamDuration:   {UnitSeconds},
	ParamLevelDb:    {UnitDecibels},
	ParamPercentage: {UnitPercent},
	ParamFrequency:  {UnitHertz},
	ParamBoolean:    {},
	ParamLabel:      {},
	ParamNumber:     {UnitRatio, UnitHertz, UnitChannels},
}

// ParseParamKind maps a parameter type name onto the closed vocabulary
func ParseParamKind(s string) (ParamKind, bool) {
	key := canonicalName(s)
	for _, k := range ParamKinds {
		if string(k) == key {
			return k, true
		}
	}
	switch key {
	case "leveldb", "db", "level", "decibels":
		return ParamLevelDb, true
	case "percent":
		return ParamPercentage, true
	case "bool":
		return ParamBoolean, true
	case "string", "text":
		return ParamLabel, true
	case "float", "integer", "int":
		return ParamNumber, true
	case "time", "seconds":
		return ParamDuration, true
	}
	return "", false
}

// Units returns the unit vocabulary accepted for the kind. Kinds without units return an empty slice.
func (k ParamKind) Units() []string {
	units := unitVocabulary[k]
	out := make([]string, len(units))
	copy(out, units)
	return out
}

// AllowsUnit reports whether unit belongs to the kind's vocabulary. The empty unit is always allowed.
func (k ParamKind) AllowsUnit(unit string) bool {
	if unit == "" {
		return true
	}
	for _, u := range unitVocabulary[k] {
		if u == unit {
			return true
		}
	}
	return false
}

// IsNumeric reports whether values of this kind are floats
func (k ParamKind) IsNumeric() bool {
	switch k {
	case ParamDuration, ParamLevelDb, ParamPercentage, ParamFrequency, ParamNumber:
		return true
	default:
		return false
	}
}

func canonicalName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return s
}

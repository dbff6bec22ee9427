package command

// Parameter names shared by the grammar matcher, the extraction prompt and the executor
const (
	ParamStartTime       = "start_time"
	ParamEndTime         = "end_time"
	ParamDurationName    = "duration"
	ParamEndOffset       = "end_offset"
	ParamTrimMode        = "mode"
	ParamVolumeChange    = "volume_change"
	ParamVolumePercent   = "volume_percent"
	ParamDirection       = "direction"
	ParamFadeType        = "fade_type"
	ParamTargetLevel     = "target_level"
	ParamReductionAmount = "reduction_amount"
	ParamNoiseType       = "noise_type"
	ParamBand            = "band"
	ParamFrequencyName   = "frequency"
	ParamGain            = "gain"
	ParamWetLevel        = "wet_level"
	ParamRoomType        = "room_type"
	ParamDelayTime       = "delay_time"
	ParamFeedback        = "feedback"
	ParamRatio           = "ratio"
	ParamThreshold       = "threshold"
	ParamFormat          = "format"
	ParamSampleRate      = "sample_rate"
	ParamChannels        = "channels"
)

// Defaults applied when an instruction names an edit without its amount
const (
	DefaultFadeDuration    = 2.0
	DefaultVolumeStep      = 3.0
	DefaultNormalizeTarget = -1.0
	DefaultReduction       = 50.0
	DefaultEQGain          = 3.0
	DefaultWetLevel        = 30.0
	DefaultDelayTime       = 0.25
	DefaultFeedback        = 30.0
	DefaultRatio           = 4.0
	DefaultThreshold       = -20.0
)

// Trim modes
const (
	TrimRemove = "remove"
	TrimKeep   = "keep"
)

// ParamSpec describes one parameter a command kind accepts
type ParamSpec struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"type"`
	Unit        string    `json:"unit,omitempty"`
	Default     Value     `json:"default,omitempty"`
	Description string    `json:"description"`
}

// Spec describes a command kind
type Spec struct {
	Kind        Kind        `json:"commandType"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"parameters"`
	Examples    []string    `json:"examples"`
}

var catalog = []Spec{
	{
		Kind:        KindTrim,
		Description: "Cut audio: remove time from the start or end, or keep/remove an explicit range",
		Params: []ParamSpec{
			{Name: ParamStartTime, Kind: ParamDuration, Unit: UnitSeconds, Description: "range start, seconds from the beginning"},
			{Name: ParamEndTime, Kind: ParamDuration, Unit: UnitSeconds, Description: "range end, seconds from the beginning"},
			{Name: ParamDurationName, Kind: ParamDuration, Unit: UnitSeconds, Description: "length removed starting at start_time"},
			{Name: ParamEndOffset, Kind: ParamDuration, Unit: UnitSeconds, Description: "length removed from the end of the audio"},
			{Name: ParamTrimMode, Kind: ParamLabel, Default: TextValue(TrimRemove), Description: "remove or keep the range"},
		},
		Examples: []string{"Cut the first 30 seconds", "Remove the last 10 seconds", "Trim from 0:10 to 1:30", "Keep the first 2 minutes"},
	},
	{
		Kind:        KindVolume,
		Description: "Change loudness by a dB amount or a percentage",
		Params: []ParamSpec{
			{Name: ParamVolumeChange, Kind: ParamLevelDb, Unit: UnitDecibels, Description: "signed gain change"},
			{Name: ParamVolumePercent, Kind: ParamPercentage, Unit: UnitPercent, Description: "relative change, used with direction"},
			{Name: ParamDirection, Kind: ParamLabel, Description: "up or down, for percentage changes"},
		},
		Examples: []string{"Increase volume by 6dB", "Lower volume by 3dB", "Make it louder", "Reduce the volume by 20%"},
	},
	{
		Kind:        KindFade,
		Description: "Fade in, fade out, or both",
		Params: []ParamSpec{
			{Name: ParamFadeType, Kind: ParamLabel, Description: "in, out or both"},
			{Name: ParamDurationName, Kind: ParamDuration, Unit: UnitSeconds, Default: FloatValue(DefaultFadeDuration), Description: "fade length"},
		},
		Examples: []string{"Fade in over 3 seconds", "Add a 5 second fade out", "Fade in and out"},
	},
	{
		Kind:        KindNormalize,
		Description: "Normalize peak level to a target",
		Params: []ParamSpec{
			{Name: ParamTargetLevel, Kind: ParamLevelDb, Unit: UnitDecibels, Default: FloatValue(DefaultNormalizeTarget), Description: "target peak level"},
		},
		Examples: []string{"Normalize to -3dB", "Normalize the audio"},
	},
	{
		Kind:        KindNoiseReduction,
		Description: "Reduce background noise, hum or hiss",
		Params: []ParamSpec{
			{Name: ParamReductionAmount, Kind: ParamPercentage, Unit: UnitPercent, Default: FloatValue(DefaultReduction), Description: "reduction strength"},
			{Name: ParamNoiseType, Kind: ParamLabel, Default: TextValue("general"), Description: "general, hum, hiss, click or wind"},
		},
		Examples: []string{"Remove background noise", "Reduce the hum", "Clean up the hiss by 70%"},
	},
	{
		Kind:        KindEqualize,
		Description: "Boost or cut a frequency band",
		Params: []ParamSpec{
			{Name: ParamBand, Kind: ParamLabel, Description: "bass, mid or treble"},
			{Name: ParamFrequencyName, Kind: ParamFrequency, Unit: UnitHertz, Description: "center frequency"},
			{Name: ParamGain, Kind: ParamLevelDb, Unit: UnitDecibels, Default: FloatValue(DefaultEQGain), Description: "signed band gain"},
		},
		Examples: []string{"Boost the bass by 4dB", "Cut the treble", "Boost 2khz by 3db"},
	},
	{
		Kind:        KindReverb,
		Description: "Add reverb",
		Params: []ParamSpec{
			{Name: ParamWetLevel, Kind: ParamPercentage, Unit: UnitPercent, Default: FloatValue(DefaultWetLevel), Description: "wet mix"},
			{Name: ParamRoomType, Kind: ParamLabel, Default: TextValue("room"), Description: "small, room, hall, plate or cathedral"},
		},
		Examples: []string{"Add some reverb", "Add hall reverb at 40%"},
	},
	{
		Kind:        KindDelay,
		Description: "Add delay or echo",
		Params: []ParamSpec{
			{Name: ParamDelayTime, Kind: ParamDuration, Unit: UnitSeconds, Default: FloatValue(DefaultDelayTime), Description: "time between repeats"},
			{Name: ParamFeedback, Kind: ParamPercentage, Unit: UnitPercent, Default: FloatValue(DefaultFeedback), Description: "repeat level"},
		},
		Examples: []string{"Add a 300ms delay", "Add echo with 50% feedback"},
	},
	{
		Kind:        KindCompress,
		Description: "Compress dynamic range",
		Params: []ParamSpec{
			{Name: ParamRatio, Kind: ParamNumber, Unit: UnitRatio, Default: FloatValue(DefaultRatio), Description: "compression ratio, N means N:1"},
			{Name: ParamThreshold, Kind: ParamLevelDb, Unit: UnitDecibels, Default: FloatValue(DefaultThreshold), Description: "threshold level"},
		},
		Examples: []string{"Compress the audio", "Compress with a 4:1 ratio at -18dB"},
	},
	{
		Kind:        KindConvert,
		Description: "Change file format, sample rate or channel count",
		Params: []ParamSpec{
			{Name: ParamFormat, Kind: ParamLabel, Description: "mp3, wav, flac, ogg, aac, m4a, opus or aiff"},
			{Name: ParamSampleRate, Kind: ParamNumber, Unit: UnitHertz, Description: "output sample rate"},
			{Name: ParamChannels, Kind: ParamNumber, Unit: UnitChannels, Description: "1 for mono, 2 for stereo"},
		},
		Examples: []string{"Convert to mp3", "Make it mono", "Resample to 48khz"},
	},
	{
		Kind:        KindAnalyze,
		Description: "Report duration, format and loudness without changing the audio",
		Examples:    []string{"Analyze the audio", "What is the loudness?"},
	},
}

// Catalog returns every command kind with its parameters and examples, in declaration order
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the spec for a kind
func Lookup(k Kind) (Spec, bool) {
	for _, s := range catalog {
		if s.Kind == k {
			return s, true
		}
	}
	return Spec{}, false
}

// LookupParam returns the spec for one parameter of a kind
func LookupParam(k Kind, name string) (ParamSpec, bool) {
	s, ok := Lookup(k)
	if !ok {
		return ParamSpec{}, false
	}
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

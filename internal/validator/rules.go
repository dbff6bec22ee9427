package validator

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// CommonSampleRates are accepted without a warning
var CommonSampleRates = []float64{8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000, 176400, 192000}

type findings struct {
	errors   []string
	warnings []string
}

func (f *findings) fail(format string, args ...any) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *findings) warn(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

// validFloat returns a parameter's value only when the parameter passed its own checks
func validFloat(cmd *command.Command, name string) (float64, bool) {
	p, ok := cmd.Param(name)
	if !ok || !p.Valid {
		return 0, false
	}
	return p.Value.AsFloat()
}

func has(cmd *command.Command, names ...string) bool {
	for _, name := range names {
		if _, ok := cmd.Param(name); ok {
			return true
		}
	}
	return false
}

func crossFieldRules(cmd *command.Command, actx *command.AudioContext) findings {
	var f findings

	switch cmd.Kind {
	case command.KindTrim:
		if !has(cmd, command.ParamEndTime, command.ParamDurationName, command.ParamEndOffset) {
			f.fail("trim: needs an end_time, duration or end_offset")
		}
		start, okStart := validFloat(cmd, command.ParamStartTime)
		end, okEnd := validFloat(cmd, command.ParamEndTime)
		if okStart && okEnd && start >= end {
			f.warn(WarnStartAfterEnd)
		}
		if d, ok := validFloat(cmd, command.ParamDurationName); ok && actx.HasDuration() && start+d > actx.Duration {
			f.warn("trim: range ends at %s s, past the end of the audio (%s s)", num(start+d), num(actx.Duration))
		}

	case command.KindVolume:
		if !has(cmd, command.ParamVolumeChange, command.ParamVolumePercent) {
			f.fail("volume: needs a volume_change or volume_percent")
		}
		if v, ok := validFloat(cmd, command.ParamVolumeChange); ok && math.Abs(v) > VolumeWarningDb {
			f.warn("Volume change of %s dB exceeds %s dB and may reduce audio quality", num(v), num(VolumeWarningDb))
		}

	case command.KindFade:
		if !has(cmd, command.ParamFadeType) {
			f.fail("fade: needs a fade_type of in, out or both")
		}
		if d, ok := validFloat(cmd, command.ParamDurationName); ok && d == 0 {
			f.warn("fade: a zero-length fade has no effect")
		}

	case command.KindEqualize:
		if !has(cmd, command.ParamFrequencyName, command.ParamBand) {
			f.fail("equalize: needs a band or frequency")
		}

	case command.KindCompress:
		if r, ok := validFloat(cmd, command.ParamRatio); ok && r < 1 {
			f.warn("ratio: %s:1 is below 1:1 and will not reduce dynamic range", num(r))
		}

	case command.KindConvert:
		if !has(cmd, command.ParamFormat, command.ParamSampleRate, command.ParamChannels) {
			f.fail("convert: needs a format, sample_rate or channels")
		}
		if sr, ok := validFloat(cmd, command.ParamSampleRate); ok && !containsFloat(CommonSampleRates, sr) {
			f.warn("sample_rate: %s Hz is not a common sample rate", num(sr))
		}
	}

	return f
}

func containsFloat(list []float64, v float64) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

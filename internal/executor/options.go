package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Conceptual-Machines/magda-edit/internal/audio"
	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// Sample rates ffmpeg is asked to resample to
const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// labelChoices are the values each editor operation knows how to honor
var labelChoices = map[string][]string{
	command.ParamTrimMode:  {command.TrimRemove, command.TrimKeep},
	command.ParamDirection: {"up", "down"},
	command.ParamFadeType:  {"in", "out", "both"},
	command.ParamNoiseType: {"general", "hum", "hiss", "click", "wind"},
	command.ParamBand:      {"bass", "mid", "treble", "custom"},
	command.ParamRoomType:  {"small", "room", "hall", "plate", "cathedral"},
}

// checkOptions rejects label and number values the editor cannot honor.
// Only parameters present on the command are checked; catalog defaults always pass.
func checkOptions(cmd *command.Command) error {
	for _, p := range cmd.Parameters {
		switch p.Kind {
		case command.ParamLabel:
			s, _ := p.Value.AsText()
			if p.Name == command.ParamFormat {
				if !audio.SupportedFormats[s] {
					return fmt.Errorf("%w: %q, use one of %s", audio.ErrUnsupportedFormat, s, strings.Join(formats(), ", "))
				}
				continue
			}
			if allowed, ok := labelChoices[p.Name]; ok && !containsString(allowed, s) {
				return fmt.Errorf("%w: %s %q, use one of %s", audio.ErrUnsupportedOption, p.Name, s, strings.Join(allowed, ", "))
			}

		case command.ParamNumber:
			v, _ := p.Value.AsFloat()
			if err := checkNumber(p.Name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkNumber(name string, v float64) error {
	switch name {
	case command.ParamChannels:
		if v != 1 && v != 2 {
			return fmt.Errorf("%w: %s channels, use 1 (mono) or 2 (stereo)", audio.ErrUnsupportedOption, num(v))
		}
	case command.ParamSampleRate:
		if v < MinSampleRate || v > MaxSampleRate {
			return fmt.Errorf("%w: sample rate %s Hz is outside %d-%d Hz", audio.ErrUnsupportedOption, num(v), MinSampleRate, MaxSampleRate)
		}
	case command.ParamRatio:
		if v <= 0 {
			return fmt.Errorf("%w: ratio %s must be positive", audio.ErrUnsupportedOption, num(v))
		}
	}
	return nil
}

func formats() []string {
	out := make([]string, 0, len(audio.SupportedFormats))
	for f := range audio.SupportedFormats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

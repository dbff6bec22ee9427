package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// param is a compact expectation: name, value, unit
type param struct {
	name  string
	value any
	unit  string
}

func assertParams(t *testing.T, want []param, got []command.Parameter) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.name, got[i].Name)
		assert.Equal(t, w.unit, got[i].Unit, w.name)
		switch v := w.value.(type) {
		case float64:
			f, ok := got[i].Value.AsFloat()
			require.True(t, ok, w.name)
			assert.InDelta(t, v, f, 1e-9, w.name)
		case string:
			s, ok := got[i].Value.AsText()
			require.True(t, ok, w.name)
			assert.Equal(t, v, s, w.name)
		}
		assert.True(t, got[i].Valid, "parser output starts valid")
	}
}

func TestMatcher_Parse(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		in     string
		kind   command.Kind
		params []param
	}{
		{"Cut the first 30 seconds", command.KindTrim, []param{{"start_time", 0.0, "s"}, {"duration", 30.0, "s"}}},
		{"Remove the last 10 seconds", command.KindTrim, []param{{"end_offset", 10.0, "s"}}},
		{"Trim 1.5 minutes from the end", command.KindTrim, []param{{"end_offset", 90.0, "s"}}},
		{"Cut the first 500ms", command.KindTrim, []param{{"start_time", 0.0, "s"}, {"duration", 0.5, "s"}}},
		{"Keep the first 2 minutes", command.KindTrim, []param{{"start_time", 0.0, "s"}, {"end_time", 120.0, "s"}, {"mode", "keep", ""}}},
		{"Trim from 0:10 to 0:05", command.KindTrim, []param{{"start_time", 10.0, "s"}, {"end_time", 5.0, "s"}, {"mode", "keep", ""}}},
		{"Cut from 1:00 to 1:30", command.KindTrim, []param{{"start_time", 60.0, "s"}, {"end_time", 90.0, "s"}, {"mode", "remove", ""}}},
		{"Increase volume by 6dB", command.KindVolume, []param{{"volume_change", 6.0, "dB"}}},
		{"Lower volume by 75dB", command.KindVolume, []param{{"volume_change", -75.0, "dB"}}},
		{"Make it louder", command.KindVolume, []param{{"volume_change", 3.0, "dB"}}},
		{"Turn the volume down by 4db", command.KindVolume, []param{{"volume_change", -4.0, "dB"}}},
		{"Reduce the volume by 20%", command.KindVolume, []param{{"volume_percent", 20.0, "%"}, {"direction", "down", ""}}},
		{"Fade in over 3 seconds", command.KindFade, []param{{"fade_type", "in", ""}, {"duration", 3.0, "s"}}},
		{"Add a 5 second fade out", command.KindFade, []param{{"fade_type", "out", ""}, {"duration", 5.0, "s"}}},
		{"Fade in and out", command.KindFade, []param{{"fade_type", "both", ""}, {"duration", 2.0, "s"}}},
		{"Normalize to -3dB", command.KindNormalize, []param{{"target_level", -3.0, "dB"}}},
		{"Normalize the audio", command.KindNormalize, []param{{"target_level", -1.0, "dB"}}},
		{"Normalize the volume to -3dB", command.KindNormalize, []param{{"target_level", -3.0, "dB"}}},
		{"normalize gain to -1db", command.KindNormalize, []param{{"target_level", -1.0, "dB"}}},
		{"Set the volume to -6dB", command.KindVolume, []param{{"volume_change", -6.0, "dB"}}},
		{"volume +4db", command.KindVolume, []param{{"volume_change", 4.0, "dB"}}},
		{"Remove background noise", command.KindNoiseReduction, []param{{"reduction_amount", 50.0, "%"}, {"noise_type", "general", ""}}},
		{"Reduce the hum by 70%", command.KindNoiseReduction, []param{{"reduction_amount", 70.0, "%"}, {"noise_type", "hum", ""}}},
		{"Boost the bass by 4dB", command.KindEqualize, []param{{"band", "bass", ""}, {"frequency", 100.0, "Hz"}, {"gain", 4.0, "dB"}}},
		{"Cut the treble", command.KindEqualize, []param{{"band", "treble", ""}, {"frequency", 8000.0, "Hz"}, {"gain", -3.0, "dB"}}},
		{"Boost 2khz by 3db", command.KindEqualize, []param{{"band", "custom", ""}, {"frequency", 2000.0, "Hz"}, {"gain", 3.0, "dB"}}},
		{"Add hall reverb at 40%", command.KindReverb, []param{{"wet_level", 40.0, "%"}, {"room_type", "hall", ""}}},
		{"Add some reverb", command.KindReverb, []param{{"wet_level", 30.0, "%"}, {"room_type", "room", ""}}},
		{"Add a 300ms delay", command.KindDelay, []param{{"delay_time", 0.3, "s"}, {"feedback", 30.0, "%"}}},
		{"Add echo with 50% feedback", command.KindDelay, []param{{"delay_time", 0.25, "s"}, {"feedback", 50.0, "%"}}},
		{"Compress with a 4:1 ratio at -18dB", command.KindCompress, []param{{"ratio", 4.0, "ratio"}, {"threshold", -18.0, "dB"}}},
		{"Compress the audio", command.KindCompress, []param{{"ratio", 4.0, "ratio"}, {"threshold", -20.0, "dB"}}},
		{"Convert to mp3", command.KindConvert, []param{{"format", "mp3", ""}}},
		{"Make it mono", command.KindConvert, []param{{"channels", 1.0, "channels"}}},
		{"Resample to 48khz", command.KindConvert, []param{{"sample_rate", 48000.0, "Hz"}}},
		{"Analyze the audio", command.KindAnalyze, nil},
		{"What's the loudness?", command.KindAnalyze, nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, err := m.Parse(tt.in)
			require.NoError(t, err)
			require.NotNil(t, cmd)

			assert.Equal(t, tt.kind, cmd.Kind)
			assert.Equal(t, command.GrammarConfidence, cmd.Confidence)
			assert.Equal(t, command.SourceGrammar, cmd.Source)
			assert.Equal(t, tt.in, cmd.OriginalText)
			assert.Equal(t, command.Normalize(tt.in), cmd.NormalizedText)
			assertParams(t, tt.params, cmd.Parameters)
		})
	}
}

func TestMatcher_Unknown(t *testing.T) {
	m := NewMatcher()

	inputs := []string{
		"asdkjasd nonsense",
		"",
		"please make me a sandwich",
		"remove the reverb",
		"Remove the echo",
		"get rid of the delay",
		"cut the room reverb",
		"less reverb please",
		"no echo",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			cmd, err := m.Parse(in)
			require.NoError(t, err)
			assert.Equal(t, command.KindUnknown, cmd.Kind)
			assert.Zero(t, cmd.Confidence)
			assert.Empty(t, cmd.Parameters)
		})
	}
}

// A removal of one effect does not veto a different effect named alongside it
func TestMatcher_RemovalOnlyVetoesItsOwnKind(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		in   string
		kind command.Kind
	}{
		{"remove the reverb and add a 300ms delay", command.KindDelay},
		{"add hall reverb but no echo", command.KindReverb},
		{"add echo without reverb", command.KindDelay},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, err := m.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cmd.Kind)
		})
	}
}

// Every catalog example, and every phrasing of a normalize request, must land on its own kind
func TestMatcher_ExamplesKeepTheirKind(t *testing.T) {
	m := NewMatcher()

	type example struct {
		text string
		kind command.Kind
	}
	var examples []example
	for _, spec := range command.Catalog() {
		for _, text := range spec.Examples {
			examples = append(examples, example{text, spec.Kind})
		}
	}
	for _, text := range []string{
		"Normalize the volume to -3dB",
		"normalize gain to -1db",
		"normalise the track to -2 db",
		"normalize the volume",
		"normalize loudness",
		"normalize the levels",
		"normalize it to -6 dbfs",
	} {
		examples = append(examples, example{text, command.KindNormalize})
	}

	for _, ex := range examples {
		t.Run(ex.text, func(t *testing.T) {
			cmd, err := m.Parse(ex.text)
			require.NoError(t, err)
			assert.Equal(t, ex.kind, cmd.Kind)
		})
	}
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		in   string
		kind command.Kind
	}{
		{"cut the first 10 seconds and fade out", command.KindTrim},
		{"fade out then normalize", command.KindFade},
		{"normalize and compress", command.KindNormalize},
		{"reduce the hum and boost the bass", command.KindNoiseReduction},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, err := m.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cmd.Kind)
		})
	}
}

func TestMatcher_ParseErrors(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name   string
		in     string
		kind   command.Kind
		target error
	}{
		{"timecode seconds overflow", "Trim from 0:75 to 1:00", command.KindTrim, ErrTimecodeRange},
		{"timecode minutes overflow", "Cut from 1:61:00 to 2:00:00", command.KindTrim, ErrTimecodeRange},
		{"number out of float range", "Increase volume by " + strings.Repeat("9", 400) + "dB", command.KindVolume, strconv.ErrRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := m.Parse(tt.in)
			assert.Nil(t, cmd)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.kind, pe.Kind)
			assert.NotEmpty(t, pe.Field)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParseTimecode(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0:10", 10, false},
		{"1:30", 90, false},
		{"1:02:03", 3723, false},
		{"0:05.5", 5.5, false},
		{"0:60", 0, true},
		{"1:60:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimecode("start_time", tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

// Every grammar match carries confidence 0.9 and units from the declared vocabulary
func TestMatcher_GrammarProperties(t *testing.T) {
	m := NewMatcher()

	phrases := []func(n int, unit string) (string, command.Kind){
		func(n int, unit string) (string, command.Kind) {
			return fmt.Sprintf("cut the first %d %s", n, unit), command.KindTrim
		},
		func(n int, unit string) (string, command.Kind) {
			return fmt.Sprintf("remove the last %d %s", n, unit), command.KindTrim
		},
		func(n int, _ string) (string, command.Kind) {
			return fmt.Sprintf("increase the volume by %d db", n), command.KindVolume
		},
		func(n int, _ string) (string, command.Kind) {
			return fmt.Sprintf("lower the gain by %d%%", n), command.KindVolume
		},
		func(n int, unit string) (string, command.Kind) {
			return fmt.Sprintf("fade out over %d %s", n, unit), command.KindFade
		},
		func(n int, _ string) (string, command.Kind) {
			return fmt.Sprintf("normalize to -%d db", n), command.KindNormalize
		},
		func(n int, _ string) (string, command.Kind) {
			return fmt.Sprintf("normalize the volume to -%d db", n), command.KindNormalize
		},
		func(n int, _ string) (string, command.Kind) {
			return fmt.Sprintf("boost the bass by %d db", n), command.KindEqualize
		},
		func(n int, unit string) (string, command.Kind) {
			return fmt.Sprintf("add a %d %s delay", n, unit), command.KindDelay
		},
	}

	rapid.Check(t, func(t *rapid.T) {
		idx := rapid.IntRange(0, len(phrases)-1).Draw(t, "phrase")
		n := rapid.IntRange(0, 5000).Draw(t, "n")
		unit := rapid.SampledFrom([]string{"seconds", "second", "secs", "s", "ms", "minutes", "min"}).Draw(t, "unit")

		text, kind := phrases[idx](n, unit)
		cmd, err := m.Parse(text)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", text, err)
		}
		if cmd.Kind != kind {
			t.Fatalf("%q: kind %s, want %s", text, cmd.Kind, kind)
		}
		if cmd.Confidence != command.GrammarConfidence {
			t.Fatalf("%q: confidence %v", text, cmd.Confidence)
		}
		for _, p := range cmd.Parameters {
			if !p.Kind.AllowsUnit(p.Unit) {
				t.Fatalf("%q: parameter %s has unit %q outside %v", text, p.Name, p.Unit, p.Kind.Units())
			}
		}
	})
}

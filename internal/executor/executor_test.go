package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/audio"
	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/parser"
	"github.com/Conceptual-Machines/magda-edit/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEditor records every call; Err fails every operation
type recordingEditor struct {
	mu       sync.Mutex
	calls    []string
	last     any
	duration float64
	Err      error
	InfoErr  error
	Panic    bool
}

func (r *recordingEditor) record(op string, spec any) (*audio.Outcome, error) {
	r.mu.Lock()
	r.calls = append(r.calls, op)
	r.last = spec
	r.mu.Unlock()
	if r.Panic {
		panic("editor exploded")
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &audio.Outcome{
		OutputFile:     "/out/" + op + ".wav",
		ProcessingTime: 250 * time.Millisecond,
		Details:        map[string]any{"op": op},
	}, nil
}

func (r *recordingEditor) Info(_ context.Context, _ string) (*audio.Info, error) {
	r.mu.Lock()
	r.calls = append(r.calls, "info")
	r.mu.Unlock()
	if r.InfoErr != nil {
		return nil, r.InfoErr
	}
	return &audio.Info{Duration: r.duration, SampleRate: 44100, Channels: 2}, nil
}

func (r *recordingEditor) Trim(_ context.Context, _ string, s audio.TrimSpec) (*audio.Outcome, error) {
	return r.record("trim", s)
}
func (r *recordingEditor) AdjustVolume(_ context.Context, _ string, g float64) (*audio.Outcome, error) {
	return r.record("volume", g)
}
func (r *recordingEditor) ApplyFade(_ context.Context, _ string, s audio.FadeSpec) (*audio.Outcome, error) {
	return r.record("fade", s)
}
func (r *recordingEditor) Normalize(_ context.Context, _ string, t float64) (*audio.Outcome, error) {
	return r.record("normalize", t)
}
func (r *recordingEditor) ReduceNoise(_ context.Context, _ string, s audio.NoiseSpec) (*audio.Outcome, error) {
	return r.record("noise", s)
}
func (r *recordingEditor) Equalize(_ context.Context, _ string, s audio.EQSpec) (*audio.Outcome, error) {
	return r.record("eq", s)
}
func (r *recordingEditor) ApplyReverb(_ context.Context, _ string, s audio.ReverbSpec) (*audio.Outcome, error) {
	return r.record("reverb", s)
}
func (r *recordingEditor) ApplyDelay(_ context.Context, _ string, s audio.DelaySpec) (*audio.Outcome, error) {
	return r.record("delay", s)
}
func (r *recordingEditor) Compress(_ context.Context, _ string, s audio.CompressSpec) (*audio.Outcome, error) {
	return r.record("compress", s)
}
func (r *recordingEditor) Convert(_ context.Context, _ string, s audio.ConvertSpec) (*audio.Outcome, error) {
	return r.record("convert", s)
}
func (r *recordingEditor) Analyze(_ context.Context, _ string) (*audio.Outcome, error) {
	return r.record("analyze", nil)
}

func parsed(t *testing.T, text string, actx *command.AudioContext) *command.Command {
	t.Helper()
	cmd, err := parser.NewMatcher().Parse(text)
	require.NoError(t, err)
	require.True(t, cmd.Recognized(), text)
	return validator.Validate(cmd, actx)
}

func TestExecute_Dispatch(t *testing.T) {
	tests := []struct {
		text  string
		op    string
		spec  any
		inMsg string
	}{
		{"Cut the first 30 seconds", "trim", audio.TrimSpec{Start: 0, End: 30}, "Removed 0 to 30 seconds"},
		{"Trim from 0:10 to 1:30", "trim", audio.TrimSpec{Start: 10, End: 90, Keep: true}, "Kept 10 to 90 seconds"},
		{"Increase volume by 6dB", "volume", 6.0, "+6 dB"},
		{"Reduce the volume by 50%", "volume", -6.02, "-6.02 dB"},
		{"Fade in over 3 seconds", "fade", audio.FadeSpec{Type: "in", Duration: 3}, "fade in"},
		{"Normalize to -3dB", "normalize", -3.0, "-3 dB"},
		{"Reduce the hum by 70%", "noise", audio.NoiseSpec{Amount: 70, Type: "hum"}, "hum"},
		{"Boost the bass by 4dB", "eq", audio.EQSpec{Frequency: 100, Gain: 4}, "100 Hz"},
		{"Add hall reverb at 40%", "reverb", audio.ReverbSpec{WetLevel: 40, Room: "hall"}, "hall reverb"},
		{"Compress the audio", "compress", audio.CompressSpec{Ratio: 4, Threshold: -20}, "4:1"},
		{"Convert to mp3", "convert", audio.ConvertSpec{Format: "mp3"}, "to mp3"},
		{"Analyze the audio", "analyze", nil, "Analyzed"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ed := &recordingEditor{duration: 120}
			x := New(ed, nil)

			res := x.Execute(context.Background(), parsed(t, tt.text, nil), "/in/song.wav", nil)
			require.Equal(t, StatusSuccess, res.Status, res.Errors)

			assert.Equal(t, []string{tt.op}, ed.calls)
			if f, ok := tt.spec.(float64); ok {
				assert.InDelta(t, f, ed.last.(float64), 1e-9)
			} else {
				assert.Equal(t, tt.spec, ed.last)
			}
			assert.Contains(t, res.Message, tt.inMsg)
			assert.Equal(t, "/out/"+tt.op+".wav", res.OutputFile)
			assert.InDelta(t, 0.25, res.ProcessingTime, 1e-9)
			assert.Equal(t, tt.op, res.Metadata["op"])
			assert.Empty(t, res.Errors)
		})
	}
}

func TestExecute_EndOffsetQueriesDuration(t *testing.T) {
	ed := &recordingEditor{duration: 100}
	x := New(ed, nil)

	res := x.Execute(context.Background(), parsed(t, "Remove the last 10 seconds", nil), "/in/song.wav", nil)
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, []string{"info", "trim"}, ed.calls)
	assert.Equal(t, audio.TrimSpec{Start: 0, End: 90, Keep: true}, ed.last)
}

func TestExecute_EndOffsetFailures(t *testing.T) {
	t.Run("duration unavailable", func(t *testing.T) {
		ed := &recordingEditor{InfoErr: errors.New("ffprobe: exit status 1")}
		res := New(ed, nil).Execute(context.Background(), parsed(t, "Remove the last 10 seconds", nil), "/in/a.wav", nil)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Contains(t, res.Message, "could not determine audio duration")
		assert.Equal(t, []string{"info"}, ed.calls)
	})

	t.Run("context duration fills in", func(t *testing.T) {
		ed := &recordingEditor{InfoErr: errors.New("ffprobe: exit status 1")}
		actx := &command.AudioContext{Duration: 50}
		res := New(ed, nil).Execute(context.Background(), parsed(t, "Remove the last 10 seconds", actx), "/in/a.wav", actx)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, audio.TrimSpec{Start: 0, End: 40, Keep: true}, ed.last)
	})

	t.Run("offset longer than audio", func(t *testing.T) {
		ed := &recordingEditor{duration: 5}
		res := New(ed, nil).Execute(context.Background(), parsed(t, "Remove the last 10 seconds", nil), "/in/a.wav", nil)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, []string{"info"}, ed.calls)
	})
}

func TestExecute_Preconditions(t *testing.T) {
	tests := []struct {
		name string
		cmd  *command.Command
		errs []string
	}{
		{"nil command", nil, []string{"Cannot execute an unrecognized command"}},
		{"unknown", command.Unrecognized("x", "x"), []string{"Cannot execute an unrecognized command"}},
		{
			name: "errors present",
			cmd:  &command.Command{Kind: command.KindVolume, Errors: []string{"volume_change: too loud"}},
			errs: []string{"volume_change: too loud"},
		},
		{
			name: "invalid parameter without errors",
			cmd: &command.Command{Kind: command.KindVolume, Parameters: []command.Parameter{
				{Name: "volume_change", Kind: command.ParamLevelDb, Value: command.FloatValue(-75), Valid: false, Diagnostic: "volume_change: below -60 dB"},
			}},
			errs: []string{"volume_change: below -60 dB"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := &recordingEditor{}
			res := New(ed, nil).Execute(context.Background(), tt.cmd, "/in/a.wav", nil)
			assert.Equal(t, StatusFailed, res.Status)
			assert.Equal(t, tt.errs, res.Errors)
			assert.Empty(t, ed.calls, "editor must not be contacted")
		})
	}
}

func TestExecute_ValidatorRejectionNeverReachesEditor(t *testing.T) {
	ed := &recordingEditor{}
	cmd := parsed(t, "Lower volume by 75dB", nil)
	require.NotEmpty(t, cmd.Errors)

	res := New(ed, nil).Execute(context.Background(), cmd, "/in/a.wav", nil)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, cmd.Errors, res.Errors)
	assert.Empty(t, ed.calls)
}

func TestExecute_UnsupportedOptionsFail(t *testing.T) {
	label := func(name, v string) command.Parameter {
		return command.NewParameter(name, command.ParamLabel, command.TextValue(v), "")
	}
	number := func(name string, v float64, unit string) command.Parameter {
		return command.NewParameter(name, command.ParamNumber, command.FloatValue(v), unit)
	}

	tests := []struct {
		name    string
		kind    command.Kind
		params  []command.Parameter
		wantErr error
		inMsg   string
	}{
		{"six channels", command.KindConvert, []command.Parameter{number("channels", 6, command.UnitChannels)}, audio.ErrUnsupportedOption, "6 channels"},
		{"unknown format", command.KindConvert, []command.Parameter{label("format", "wma")}, audio.ErrUnsupportedFormat, `"wma"`},
		{"sample rate too high", command.KindConvert, []command.Parameter{number("sample_rate", 384000, command.UnitHertz)}, audio.ErrUnsupportedOption, "384000 Hz"},
		{"zero ratio", command.KindCompress, []command.Parameter{number("ratio", 0, command.UnitRatio)}, audio.ErrUnsupportedOption, "ratio 0"},
		{"unknown room", command.KindReverb, []command.Parameter{label("room_type", "spaceship")}, audio.ErrUnsupportedOption, "spaceship"},
		{"empty fade type", command.KindFade, []command.Parameter{label("fade_type", "")}, audio.ErrUnsupportedOption, "fade_type"},
		{"unknown noise", command.KindNoiseReduction, []command.Parameter{label("noise_type", "traffic")}, audio.ErrUnsupportedOption, "traffic"},
		{"unknown trim mode", command.KindTrim, []command.Parameter{command.NewParameter("end_time", command.ParamDuration, command.FloatValue(5), command.UnitSeconds), label("mode", "shuffle")}, audio.ErrUnsupportedOption, "shuffle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validator.Validate(&command.Command{Kind: tt.kind, Confidence: command.GrammarConfidence, Parameters: tt.params}, nil)
			require.Empty(t, cmd.Errors, "value is structurally valid")
			assert.ErrorIs(t, checkOptions(cmd), tt.wantErr)

			ed := &recordingEditor{}
			res := New(ed, nil).Execute(context.Background(), cmd, "/in/a.wav", nil)
			assert.Equal(t, StatusFailed, res.Status)
			assert.Contains(t, res.Message, tt.inMsg)
			assert.Empty(t, ed.calls, "editor must not be contacted")
		})
	}
}

func TestExecute_EditorFailure(t *testing.T) {
	ed := &recordingEditor{Err: errors.New("ffmpeg: exit status 1: Invalid data found")}
	res := New(ed, nil).Execute(context.Background(), parsed(t, "Increase volume by 6dB", nil), "/in/a.wav", nil)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "ffmpeg: exit status 1: Invalid data found", res.Message)
	assert.Equal(t, []string{"ffmpeg: exit status 1: Invalid data found"}, res.Errors)
	assert.False(t, res.Succeeded())
}

func TestExecute_RecoversPanic(t *testing.T) {
	ed := &recordingEditor{Panic: true}
	var res *Result
	assert.NotPanics(t, func() {
		res = New(ed, nil).Execute(context.Background(), parsed(t, "Increase volume by 6dB", nil), "/in/a.wav", nil)
	})
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Message, "editor exploded")
}

func TestExecute_WaitsForAssetLock(t *testing.T) {
	locks := audio.NewAssetLocks()
	release, err := locks.Acquire(context.Background(), "/in/a.wav")
	require.NoError(t, err)
	defer release()

	ed := &recordingEditor{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := New(ed, locks).Execute(ctx, parsed(t, "Increase volume by 6dB", nil), "/in/a.wav", nil)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, ed.calls)
}

func TestVolumeGain(t *testing.T) {
	tests := []struct {
		name    string
		params  []command.Parameter
		want    float64
		wantErr bool
	}{
		{"db", []command.Parameter{command.NewParameter("volume_change", command.ParamLevelDb, command.FloatValue(-4), "dB")}, -4, false},
		{"double", []command.Parameter{
			command.NewParameter("volume_percent", command.ParamPercentage, command.FloatValue(100), "%"),
			command.NewParameter("direction", command.ParamLabel, command.TextValue("up"), ""),
		}, 6.02, false},
		{"silence", []command.Parameter{
			command.NewParameter("volume_percent", command.ParamPercentage, command.FloatValue(100), "%"),
			command.NewParameter("direction", command.ParamLabel, command.TextValue("down"), ""),
		}, 0, true},
		{"nothing", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := volumeGain(args{cmd: &command.Command{Kind: command.KindVolume, Parameters: tt.params}})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestReservedStatusesAreDistinct(t *testing.T) {
	statuses := []Status{StatusSuccess, StatusFailed, StatusPartial, StatusSkipped}
	seen := map[Status]bool{}
	for _, s := range statuses {
		assert.False(t, seen[s])
		seen[s] = true
	}
	assert.False(t, (&Result{Status: StatusPartial}).Succeeded())
}

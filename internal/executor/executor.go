// Package executor dispatches validated commands to audio editing operations.
package executor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/audio"
	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/logger"
)

// Executor runs commands against an audio.Editor
type Executor struct {
	editor audio.Editor
	locks  *audio.AssetLocks
}

// New creates an executor. A nil locks value uses a private lock table.
func New(editor audio.Editor, locks *audio.AssetLocks) *Executor {
	if locks == nil {
		locks = audio.NewAssetLocks()
	}
	return &Executor{editor: editor, locks: locks}
}

// Execute runs cmd against asset and always returns a result.
//
// A command that is unrecognized, carries errors or has an invalid parameter fails without
// touching the editor. Otherwise the asset is locked for the duration of the operation.
func (x *Executor) Execute(ctx context.Context, cmd *command.Command, asset string, actx *command.AudioContext) (res *Result) {
	if failure := checkPreconditions(cmd); failure != nil {
		return failure
	}

	fields := logger.Fields{"command_type": cmd.Kind, "asset": asset, "stage": "execute"}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			logger.Error("execution panicked", err, fields)
			res = failed("Execution failed: "+err.Error(), err.Error())
		}
	}()

	release, err := x.locks.Acquire(ctx, asset)
	if err != nil {
		return failed("Execution cancelled while waiting for the asset", err.Error())
	}
	defer release()

	start := time.Now()
	outcome, message, err := x.dispatch(ctx, cmd, asset, actx)
	if err != nil {
		logger.Warn("execution failed", fields.With(logger.Fields{"error": err}))
		return failed(err.Error())
	}
	if outcome == nil {
		outcome = &audio.Outcome{}
	}

	metadata := map[string]any{"command_type": string(cmd.Kind)}
	for k, v := range outcome.Details {
		metadata[k] = v
	}

	elapsed := outcome.ProcessingTime
	if elapsed == 0 {
		elapsed = time.Since(start)
	}

	logger.Info("execution succeeded", fields.With(logger.Fields{"output": outcome.OutputFile, "duration": elapsed}))
	return &Result{
		Status:         StatusSuccess,
		Message:        message,
		OutputFile:     outcome.OutputFile,
		ProcessingTime: seconds(elapsed),
		Metadata:       metadata,
	}
}

func checkPreconditions(cmd *command.Command) *Result {
	if !cmd.Recognized() {
		return failed("Cannot execute an unrecognized command")
	}

	errs := append([]string(nil), cmd.Errors...)
	for _, p := range cmd.InvalidParameters() {
		diag := p.Diagnostic
		if diag == "" {
			diag = p.Name + ": invalid value"
		}
		if !containsString(errs, diag) {
			errs = append(errs, diag)
		}
	}
	if len(errs) > 0 {
		return failed("Command failed validation", errs...)
	}
	return nil
}

// dispatch maps each kind onto exactly one editor operation
func (x *Executor) dispatch(ctx context.Context, cmd *command.Command, asset string, actx *command.AudioContext) (*audio.Outcome, string, error) {
	a := args{cmd: cmd}
	if err := checkOptions(cmd); err != nil {
		return nil, "", err
	}

	switch cmd.Kind {
	case command.KindTrim:
		return x.trim(ctx, a, asset, actx)

	case command.KindVolume:
		gain, err := volumeGain(a)
		if err != nil {
			return nil, "", err
		}
		out, err := x.editor.AdjustVolume(ctx, asset, gain)
		return out, fmt.Sprintf("Adjusted volume by %s dB", signed(gain)), err

	case command.KindFade:
		spec := audio.FadeSpec{Type: a.text(command.ParamFadeType), Duration: a.float(command.ParamDurationName)}
		out, err := x.editor.ApplyFade(ctx, asset, spec)
		return out, fmt.Sprintf("Applied fade %s over %s seconds", spec.Type, num(spec.Duration)), err

	case command.KindNormalize:
		target := a.float(command.ParamTargetLevel)
		out, err := x.editor.Normalize(ctx, asset, target)
		return out, fmt.Sprintf("Normalized peak level to %s dB", num(target)), err

	case command.KindNoiseReduction:
		spec := audio.NoiseSpec{Amount: a.float(command.ParamReductionAmount), Type: a.text(command.ParamNoiseType)}
		out, err := x.editor.ReduceNoise(ctx, asset, spec)
		return out, fmt.Sprintf("Reduced %s noise by %s%%", spec.Type, num(spec.Amount)), err

	case command.KindEqualize:
		spec := audio.EQSpec{Gain: a.float(command.ParamGain)}
		if f, ok := a.lookup(command.ParamFrequencyName); ok {
			spec.Frequency = f
		} else if f, ok := audio.BandCenters[a.text(command.ParamBand)]; ok {
			spec.Frequency = f
		} else {
			return nil, "", fmt.Errorf("equalize needs a frequency or a band")
		}
		out, err := x.editor.Equalize(ctx, asset, spec)
		return out, fmt.Sprintf("Applied %s dB at %s Hz", signed(spec.Gain), num(spec.Frequency)), err

	case command.KindReverb:
		spec := audio.ReverbSpec{WetLevel: a.float(command.ParamWetLevel), Room: a.text(command.ParamRoomType)}
		out, err := x.editor.ApplyReverb(ctx, asset, spec)
		return out, fmt.Sprintf("Added %s reverb at %s%% wet", spec.Room, num(spec.WetLevel)), err

	case command.KindDelay:
		spec := audio.DelaySpec{Time: a.float(command.ParamDelayTime), Feedback: a.float(command.ParamFeedback)}
		out, err := x.editor.ApplyDelay(ctx, asset, spec)
		return out, fmt.Sprintf("Added %s second delay with %s%% feedback", num(spec.Time), num(spec.Feedback)), err

	case command.KindCompress:
		spec := audio.CompressSpec{Ratio: a.float(command.ParamRatio), Threshold: a.float(command.ParamThreshold)}
		out, err := x.editor.Compress(ctx, asset, spec)
		return out, fmt.Sprintf("Compressed at %s:1 above %s dB", num(spec.Ratio), num(spec.Threshold)), err

	case command.KindConvert:
		spec := audio.ConvertSpec{
			Format:     a.text(command.ParamFormat),
			SampleRate: int(a.float(command.ParamSampleRate)),
			Channels:   int(a.float(command.ParamChannels)),
		}
		out, err := x.editor.Convert(ctx, asset, spec)
		return out, "Converted audio" + describeConvert(spec), err

	case command.KindAnalyze:
		out, err := x.editor.Analyze(ctx, asset)
		return out, "Analyzed audio", err

	case command.KindUnknown:
		return nil, "", fmt.Errorf("cannot execute an unrecognized command")

	default:
		return nil, "", fmt.Errorf("no handler for command type %q", cmd.Kind)
	}
}

func (x *Executor) trim(ctx context.Context, a args, asset string, actx *command.AudioContext) (*audio.Outcome, string, error) {
	keep := a.text(command.ParamTrimMode) == command.TrimKeep

	if offset, ok := a.lookup(command.ParamEndOffset); ok {
		total, err := x.totalDuration(ctx, asset, actx)
		if err != nil {
			return nil, "", err
		}
		end := total - offset
		if end <= 0 {
			return nil, "", fmt.Errorf("%w: cannot remove %s seconds from %s seconds of audio", audio.ErrInvalidRange, num(offset), num(total))
		}
		out, err := x.editor.Trim(ctx, asset, audio.TrimSpec{Start: 0, End: end, Keep: true})
		return out, fmt.Sprintf("Removed the last %s seconds", num(offset)), err
	}

	start, hasStart := a.lookup(command.ParamStartTime)
	if !hasStart {
		start = 0
	}
	end, hasEnd := a.lookup(command.ParamEndTime)
	if !hasEnd {
		d, ok := a.lookup(command.ParamDurationName)
		if !ok {
			return nil, "", fmt.Errorf("trim needs an end time or a duration")
		}
		end = start + d
	}

	spec := audio.TrimSpec{Start: start, End: end, Keep: keep}
	out, err := x.editor.Trim(ctx, asset, spec)
	verb := "Removed"
	if keep {
		verb = "Kept"
	}
	return out, fmt.Sprintf("%s %s to %s seconds", verb, num(start), num(end)), err
}

// totalDuration asks the editor, falling back to the caller's context
func (x *Executor) totalDuration(ctx context.Context, asset string, actx *command.AudioContext) (float64, error) {
	info, err := x.editor.Info(ctx, asset)
	if err == nil && info != nil && info.Duration > 0 {
		return info.Duration, nil
	}
	if actx.HasDuration() {
		return actx.Duration, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not determine audio duration: %w", err)
	}
	return 0, fmt.Errorf("could not determine audio duration")
}

// volumeGain returns the dB change, converting a percentage change when needed
func volumeGain(a args) (float64, error) {
	if v, ok := a.lookup(command.ParamVolumeChange); ok {
		return v, nil
	}
	pct, ok := a.lookup(command.ParamVolumePercent)
	if !ok {
		return 0, fmt.Errorf("volume needs a dB or percentage change")
	}
	factor := 1 + pct/100
	if a.text(command.ParamDirection) == "down" {
		factor = 1 - pct/100
	}
	if factor <= 0 {
		return 0, fmt.Errorf("cannot reduce volume by %s%%", num(pct))
	}
	return math.Round(20*math.Log10(factor)*100) / 100, nil
}

func describeConvert(spec audio.ConvertSpec) string {
	s := ""
	if spec.Format != "" {
		s += " to " + spec.Format
	}
	if spec.SampleRate > 0 {
		s += fmt.Sprintf(" at %d Hz", spec.SampleRate)
	}
	switch spec.Channels {
	case 1:
		s += " (mono)"
	case 2:
		s += " (stereo)"
	}
	return s
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

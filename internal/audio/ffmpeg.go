package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/logger"
	"github.com/google/uuid"
)

// SupportedFormats are the container extensions ffmpeg is asked to read and write
var SupportedFormats = map[string]bool{
	"mp3": true, "wav": true, "flac": true, "ogg": true,
	"aac": true, "m4a": true, "opus": true, "aiff": true,
}

const stderrTail = 400

// Runner executes an external program
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// FFmpegEditor implements Editor with the ffmpeg and ffprobe binaries
type FFmpegEditor struct {
	ffmpeg    string
	ffprobe   string
	outputDir string
	runner    Runner
}

// FFmpegOption configures an FFmpegEditor
type FFmpegOption func(*FFmpegEditor)

// WithRunner replaces process execution
func WithRunner(r Runner) FFmpegOption {
	return func(e *FFmpegEditor) { e.runner = r }
}

// WithOutputDir writes results to dir instead of next to the input
func WithOutputDir(dir string) FFmpegOption {
	return func(e *FFmpegEditor) { e.outputDir = dir }
}

// NewFFmpegEditor creates an editor. Empty binary paths fall back to ffmpeg and ffprobe on PATH.
func NewFFmpegEditor(ffmpegPath, ffprobePath string, opts ...FFmpegOption) *FFmpegEditor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	e := &FFmpegEditor{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		runner:  execRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Info probes duration, sample rate and channel count
func (e *FFmpegEditor) Info(ctx context.Context, asset string) (*Info, error) {
	p, err := e.Probe(ctx, asset)
	if err != nil {
		return nil, err
	}
	return p.Info(), nil
}

// Probe runs ffprobe on the asset
func (e *FFmpegEditor) Probe(ctx context.Context, asset string) (*Probe, error) {
	if err := checkAsset(asset); err != nil {
		return nil, err
	}
	stdout, stderr, err := e.runner.Run(ctx, e.ffprobe,
		"-v", "error", "-print_format", "json", "-show_format", "-show_streams", asset)
	if err != nil {
		return nil, toolError("ffprobe", err, stderr)
	}
	return parseProbe(stdout)
}

func (e *FFmpegEditor) Trim(ctx context.Context, asset string, spec TrimSpec) (*Outcome, error) {
	if spec.Start < 0 || spec.End <= spec.Start {
		return nil, fmt.Errorf("%w: %s to %s seconds", ErrInvalidRange, num(spec.Start), num(spec.End))
	}
	mode := "remove"
	if spec.Keep {
		mode = "keep"
	}
	return e.filter(ctx, asset, "trim", trimFilter(spec), map[string]any{
		"start_time": spec.Start,
		"end_time":   spec.End,
		"mode":       mode,
	})
}

func (e *FFmpegEditor) AdjustVolume(ctx context.Context, asset string, gainDb float64) (*Outcome, error) {
	return e.filter(ctx, asset, "volume", volumeFilter(gainDb), map[string]any{"volume_change_db": gainDb})
}

func (e *FFmpegEditor) ApplyFade(ctx context.Context, asset string, spec FadeSpec) (*Outcome, error) {
	total := 0.0
	if spec.Type != "in" {
		info, err := e.Info(ctx, asset)
		if err != nil {
			return nil, err
		}
		total = info.Duration
	}
	return e.filter(ctx, asset, "fade", fadeFilter(spec, total), map[string]any{
		"fade_type": spec.Type,
		"duration":  spec.Duration,
	})
}

// Normalize applies the gain that brings the measured peak to targetDb
func (e *FFmpegEditor) Normalize(ctx context.Context, asset string, targetDb float64) (*Outcome, error) {
	start := time.Now()
	_, peak, err := e.detectVolume(ctx, asset)
	if err != nil {
		return nil, err
	}
	if math.IsInf(peak, -1) {
		return nil, fmt.Errorf("cannot normalize silent audio")
	}

	gain := targetDb - peak
	out, err := e.filter(ctx, asset, "normalize", volumeFilter(gain), map[string]any{
		"target_level_db":  targetDb,
		"original_peak_db": peak,
		"applied_gain_db":  gain,
	})
	if err != nil {
		return nil, err
	}
	out.ProcessingTime = time.Since(start)
	return out, nil
}

func (e *FFmpegEditor) ReduceNoise(ctx context.Context, asset string, spec NoiseSpec) (*Outcome, error) {
	return e.filter(ctx, asset, "denoise", noiseFilter(spec), map[string]any{
		"reduction_amount": spec.Amount,
		"noise_type":       spec.Type,
	})
}

func (e *FFmpegEditor) Equalize(ctx context.Context, asset string, spec EQSpec) (*Outcome, error) {
	return e.filter(ctx, asset, "eq", eqFilter(spec), map[string]any{
		"frequency": spec.Frequency,
		"gain_db":   spec.Gain,
	})
}

func (e *FFmpegEditor) ApplyReverb(ctx context.Context, asset string, spec ReverbSpec) (*Outcome, error) {
	return e.filter(ctx, asset, "reverb", reverbFilter(spec), map[string]any{
		"wet_level": spec.WetLevel,
		"room_type": spec.Room,
	})
}

func (e *FFmpegEditor) ApplyDelay(ctx context.Context, asset string, spec DelaySpec) (*Outcome, error) {
	return e.filter(ctx, asset, "delay", delayFilter(spec), map[string]any{
		"delay_time": spec.Time,
		"feedback":   spec.Feedback,
	})
}

func (e *FFmpegEditor) Compress(ctx context.Context, asset string, spec CompressSpec) (*Outcome, error) {
	return e.filter(ctx, asset, "compressed", compressFilter(spec), map[string]any{
		"ratio":        spec.Ratio,
		"threshold_db": spec.Threshold,
	})
}

func (e *FFmpegEditor) Convert(ctx context.Context, asset string, spec ConvertSpec) (*Outcome, error) {
	if err := checkAsset(asset); err != nil {
		return nil, err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(asset)), ".")
	if spec.Format != "" {
		ext = strings.ToLower(spec.Format)
	}
	if !SupportedFormats[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	var args []string
	if spec.SampleRate > 0 {
		args = append(args, "-ar", fmt.Sprint(spec.SampleRate))
	}
	if spec.Channels > 0 {
		args = append(args, "-ac", fmt.Sprint(spec.Channels))
	}

	details := map[string]any{"format": ext}
	if spec.SampleRate > 0 {
		details["sample_rate"] = spec.SampleRate
	}
	if spec.Channels > 0 {
		details["channels"] = spec.Channels
	}
	return e.run(ctx, asset, e.outputPath(asset, "converted", ext), args, details)
}

// Analyze reports loudness and stream facts without writing a file
func (e *FFmpegEditor) Analyze(ctx context.Context, asset string) (*Outcome, error) {
	start := time.Now()
	info, err := e.Info(ctx, asset)
	if err != nil {
		return nil, err
	}
	mean, peak, err := e.detectVolume(ctx, asset)
	if err != nil {
		return nil, err
	}
	details := map[string]any{
		"duration":    info.Duration,
		"sample_rate": info.SampleRate,
		"channels":    info.Channels,
		"format":      strings.TrimPrefix(strings.ToLower(filepath.Ext(asset)), "."),
	}
	// JSON cannot carry -Inf
	if !math.IsInf(mean, 0) {
		details["mean_volume_db"] = mean
	}
	if !math.IsInf(peak, 0) {
		details["max_volume_db"] = peak
	}
	return &Outcome{ProcessingTime: time.Since(start), Details: details}, nil
}

func (e *FFmpegEditor) detectVolume(ctx context.Context, asset string) (mean, peak float64, err error) {
	if err := checkAsset(asset); err != nil {
		return 0, 0, err
	}
	_, stderr, err := e.runner.Run(ctx, e.ffmpeg,
		"-hide_banner", "-nostats", "-nostdin", "-i", asset, "-af", "volumedetect", "-f", "null", "-")
	if err != nil {
		return 0, 0, toolError("ffmpeg", err, stderr)
	}
	return volumeStats(string(stderr))
}

// filter writes asset through one audio filter graph, keeping its container
func (e *FFmpegEditor) filter(ctx context.Context, asset, suffix, graph string, details map[string]any) (*Outcome, error) {
	if err := checkAsset(asset); err != nil {
		return nil, err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(asset)), ".")
	details["filter"] = graph
	return e.run(ctx, asset, e.outputPath(asset, suffix, ext), []string{"-af", graph}, details)
}

func (e *FFmpegEditor) run(ctx context.Context, asset, output string, args []string, details map[string]any) (*Outcome, error) {
	start := time.Now()
	full := append([]string{"-hide_banner", "-nostdin", "-y", "-i", asset}, args...)
	full = append(full, output)

	logger.Debug("running ffmpeg", logger.Fields{"input": asset, "output": output, "args": strings.Join(args, " ")})
	_, stderr, err := e.runner.Run(ctx, e.ffmpeg, full...)
	if err != nil {
		return nil, toolError("ffmpeg", err, stderr)
	}
	return &Outcome{
		OutputFile:     output,
		ProcessingTime: time.Since(start),
		Details:        details,
	}, nil
}

// outputPath names the result after the input with the operation and a unique suffix
func (e *FFmpegEditor) outputPath(asset, suffix, ext string) string {
	dir := e.outputDir
	if dir == "" {
		dir = filepath.Dir(asset)
	}
	base := strings.TrimSuffix(filepath.Base(asset), filepath.Ext(asset))
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.%s", base, suffix, id, ext))
}

func checkAsset(asset string) error {
	info, err := os.Stat(asset)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, asset)
		}
		return fmt.Errorf("stat %s: %w", asset, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrAssetNotFound, asset)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(asset)), ".")
	if !SupportedFormats[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(asset))
	}
	return nil
}

func toolError(tool string, err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	if len(msg) > stderrTail {
		msg = msg[len(msg)-stderrTail:]
	}
	if msg == "" {
		return fmt.Errorf("%s: %w", tool, err)
	}
	return fmt.Errorf("%s: %w: %s", tool, err, msg)
}

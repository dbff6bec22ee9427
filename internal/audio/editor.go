// Package audio edits and inspects audio files.
package audio

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAssetNotFound     = errors.New("input file not found")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidRange      = errors.New("invalid time range")
	ErrUnsupportedOption = errors.New("unsupported option")
)

// Info holds the basic facts about an asset
type Info struct {
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
}

// Outcome is what a successful operation reports
type Outcome struct {
	OutputFile     string
	ProcessingTime time.Duration
	// Operation-specific facts, forwarded to callers as metadata
	Details map[string]any
}

// TrimSpec selects a range in seconds. Keep retains the range, otherwise it is removed.
type TrimSpec struct {
	Start float64
	End   float64
	Keep  bool
}

// FadeSpec describes a fade; Type is in, out or both
type FadeSpec struct {
	Type     string
	Duration float64
}

// NoiseSpec describes a noise reduction pass; Amount is a percentage
type NoiseSpec struct {
	Amount float64
	Type   string
}

// EQSpec boosts or cuts one band
type EQSpec struct {
	Frequency float64
	Gain      float64
}

// ReverbSpec adds reverb; WetLevel is a percentage
type ReverbSpec struct {
	WetLevel float64
	Room     string
}

// DelaySpec adds a delay; Time is in seconds and Feedback a percentage
type DelaySpec struct {
	Time     float64
	Feedback float64
}

// CompressSpec sets compressor ratio (N:1) and threshold in dB
type CompressSpec struct {
	Ratio     float64
	Threshold float64
}

// ConvertSpec changes container or stream parameters; zero fields are left as they are
type ConvertSpec struct {
	Format     string
	SampleRate int
	Channels   int
}

// Editor performs one editing operation per command kind. Every operation leaves the input
// untouched and writes a new file.
type Editor interface {
	Info(ctx context.Context, asset string) (*Info, error)

	Trim(ctx context.Context, asset string, spec TrimSpec) (*Outcome, error)
	AdjustVolume(ctx context.Context, asset string, gainDb float64) (*Outcome, error)
	ApplyFade(ctx context.Context, asset string, spec FadeSpec) (*Outcome, error)
	Normalize(ctx context.Context, asset string, targetDb float64) (*Outcome, error)
	ReduceNoise(ctx context.Context, asset string, spec NoiseSpec) (*Outcome, error)
	Equalize(ctx context.Context, asset string, spec EQSpec) (*Outcome, error)
	ApplyReverb(ctx context.Context, asset string, spec ReverbSpec) (*Outcome, error)
	ApplyDelay(ctx context.Context, asset string, spec DelaySpec) (*Outcome, error)
	Compress(ctx context.Context, asset string, spec CompressSpec) (*Outcome, error)
	Convert(ctx context.Context, asset string, spec ConvertSpec) (*Outcome, error)
	Analyze(ctx context.Context, asset string) (*Outcome, error)
}

// Band center frequencies for named EQ bands
var BandCenters = map[string]float64{
	"bass":   100,
	"mid":    1000,
	"treble": 8000,
}

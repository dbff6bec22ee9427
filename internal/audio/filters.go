package audio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Delay in milliseconds that approximates each room size
var roomDelays = map[string]float64{
	"small":     20,
	"room":      40,
	"plate":     30,
	"hall":      80,
	"cathedral": 150,
}

const (
	maxNoiseReductionDb = 97
	minNoiseReductionDb = 0.01
	minEchoDecay        = 0.01
	maxCompressorRatio  = 20
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func trimFilter(spec TrimSpec) string {
	if spec.Keep {
		return fmt.Sprintf("atrim=start=%s:end=%s,asetpts=PTS-STARTPTS", num(spec.Start), num(spec.End))
	}
	return fmt.Sprintf("aselect='not(between(t,%s,%s))',asetpts=N/SR/TB", num(spec.Start), num(spec.End))
}

func volumeFilter(gainDb float64) string {
	return "volume=" + num(gainDb) + "dB"
}

// fadeFilter needs the total length to place a fade out
func fadeFilter(spec FadeSpec, total float64) string {
	in := "afade=t=in:st=0:d=" + num(spec.Duration)
	out := fmt.Sprintf("afade=t=out:st=%s:d=%s", num(math.Max(0, total-spec.Duration)), num(spec.Duration))
	switch spec.Type {
	case "in":
		return in
	case "out":
		return out
	default:
		return in + "," + out
	}
}

func noiseFilter(spec NoiseSpec) string {
	nr := math.Max(minNoiseReductionDb, spec.Amount/100*maxNoiseReductionDb)
	denoise := "afftdn=nr=" + num(math.Round(nr*100)/100)
	switch spec.Type {
	case "hum":
		return "highpass=f=80," + denoise
	case "wind":
		return "highpass=f=150," + denoise
	case "hiss":
		return "lowpass=f=12000," + denoise
	case "click":
		return "adeclick"
	default:
		return denoise
	}
}

func eqFilter(spec EQSpec) string {
	return fmt.Sprintf("equalizer=f=%s:t=o:w=1:g=%s", num(spec.Frequency), num(spec.Gain))
}

func reverbFilter(spec ReverbSpec) string {
	delay, ok := roomDelays[spec.Room]
	if !ok {
		delay = roomDelays["room"]
	}
	decay := math.Max(minEchoDecay, spec.WetLevel/100)
	// Two taps give a denser tail than a single echo
	return fmt.Sprintf("aecho=0.8:0.88:%s|%s:%s|%s",
		num(delay), num(delay*1.7), num(decay), num(math.Round(decay*50)/100))
}

func delayFilter(spec DelaySpec) string {
	decay := math.Max(minEchoDecay, math.Min(1, spec.Feedback/100))
	return fmt.Sprintf("aecho=0.8:0.9:%s:%s", num(math.Round(spec.Time*1000)), num(decay))
}

func compressFilter(spec CompressSpec) string {
	ratio := math.Max(1, math.Min(maxCompressorRatio, spec.Ratio))
	return fmt.Sprintf("acompressor=threshold=%sdB:ratio=%s", num(spec.Threshold), num(ratio))
}

// volumeStats reads mean and max volume from volumedetect output
func volumeStats(stderr string) (mean, peak float64, err error) {
	var foundMean, foundPeak bool
	for _, line := range strings.Split(stderr, "\n") {
		if v, ok := statValue(line, "mean_volume:"); ok {
			mean, foundMean = v, true
		}
		if v, ok := statValue(line, "max_volume:"); ok {
			peak, foundPeak = v, true
		}
	}
	if !foundMean || !foundPeak {
		return 0, 0, fmt.Errorf("volumedetect output missing mean or max volume")
	}
	return mean, peak, nil
}

func statValue(line, key string) (float64, bool) {
	i := strings.Index(line, key)
	if i < 0 {
		return 0, false
	}
	field := strings.TrimSpace(line[i+len(key):])
	field = strings.TrimSpace(strings.TrimSuffix(field, "dB"))
	if field == "-inf" {
		return math.Inf(-1), true
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

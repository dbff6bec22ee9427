package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// captures exposes the named groups of one pattern match
type captures struct {
	text   string
	groups map[string]string
}

func newCaptures(pattern *regexp.Regexp, text string, match []string) captures {
	groups := make(map[string]string)
	for i, name := range pattern.SubexpNames() {
		if name != "" && i < len(match) {
			groups[name] = match[i]
		}
	}
	return captures{text: text, groups: groups}
}

func (c captures) get(name string) string {
	return c.groups[name]
}

func (c captures) has(name string) bool {
	return c.groups[name] != ""
}

// scan runs a secondary pattern over the whole text and returns the first non-empty named group
func (c captures) scan(pattern *regexp.Regexp) (string, string) {
	match := pattern.FindStringSubmatch(c.text)
	if match == nil {
		return "", ""
	}
	var first, second string
	for i, name := range pattern.SubexpNames() {
		switch {
		case name == "a" && match[i] != "":
			first = match[i]
		case name == "b" && match[i] != "":
			second = match[i]
		}
	}
	return first, second
}

func seconds(name string, v float64) command.Parameter {
	return command.NewParameter(name, command.ParamDuration, command.FloatValue(v), command.UnitSeconds)
}

func decibels(name string, v float64) command.Parameter {
	return command.NewParameter(name, command.ParamLevelDb, command.FloatValue(v), command.UnitDecibels)
}

func percent(name string, v float64) command.Parameter {
	return command.NewParameter(name, command.ParamPercentage, command.FloatValue(v), command.UnitPercent)
}

func label(name, v string) command.Parameter {
	return command.NewParameter(name, command.ParamLabel, command.TextValue(v), "")
}

// parseNumber reads a decimal capture, rejecting values that overflow float64
func parseNumber(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badValue(field, raw, err)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, badValue(field, raw, strconv.ErrRange)
	}
	return v, nil
}

// parseSeconds converts a number with a time unit, or a timecode, to seconds
func parseSeconds(field, raw, unit string) (float64, error) {
	if strings.Contains(raw, ":") {
		return parseTimecode(field, raw)
	}
	v, err := parseNumber(field, raw)
	if err != nil {
		return 0, err
	}
	return v * unitScale(unit), nil
}

func unitScale(unit string) float64 {
	switch {
	case unit == "":
		return 1
	case strings.HasPrefix(unit, "ms"), strings.HasPrefix(unit, "milli"):
		return 0.001
	case strings.HasPrefix(unit, "h"):
		return 3600
	case strings.HasPrefix(unit, "m"):
		return 60
	default:
		return 1
	}
}

// parseTimecode reads m:ss, h:mm:ss and their fractional-second forms
func parseTimecode(field, raw string) (float64, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, badValue(field, raw, fmt.Errorf("unexpected timecode shape"))
	}

	secs, err := parseNumber(field, parts[len(parts)-1])
	if err != nil {
		return 0, err
	}
	if secs >= 60 {
		return 0, badValue(field, raw, ErrTimecodeRange)
	}

	mins, err := parseNumber(field, parts[len(parts)-2])
	if err != nil {
		return 0, err
	}
	total := mins*60 + secs

	if len(parts) == 3 {
		if mins >= 60 {
			return 0, badValue(field, raw, ErrTimecodeRange)
		}
		hours, err := parseNumber(field, parts[0])
		if err != nil {
			return 0, err
		}
		total += hours * 3600
	}
	return total, nil
}

func extractTrim(c captures) ([]command.Parameter, error) {
	if c.has("start") {
		start, err := parseSeconds(command.ParamStartTime, c.get("start"), c.get("sunit"))
		if err != nil {
			return nil, err
		}
		end, err := parseSeconds(command.ParamEndTime, c.get("end"), c.get("eunit"))
		if err != nil {
			return nil, err
		}
		mode := command.TrimKeep
		switch c.get("verb") {
		case "cut", "remove", "delete", "chop":
			mode = command.TrimRemove
		}
		return []command.Parameter{
			seconds(command.ParamStartTime, start),
			seconds(command.ParamEndTime, end),
			label(command.ParamTrimMode, mode),
		}, nil
	}

	amount, err := parseSeconds(command.ParamDurationName, c.get("num"), c.get("unit"))
	if err != nil {
		return nil, err
	}

	if c.has("keep") {
		return []command.Parameter{
			seconds(command.ParamStartTime, 0),
			seconds(command.ParamEndTime, amount),
			label(command.ParamTrimMode, command.TrimKeep),
		}, nil
	}

	switch c.get("pos") {
	case "last", "final", "ending", "end":
		return []command.Parameter{seconds(command.ParamEndOffset, amount)}, nil
	default:
		return []command.Parameter{
			seconds(command.ParamStartTime, 0),
			seconds(command.ParamDurationName, amount),
		}, nil
	}
}

func volumeDirection(verb string) float64 {
	switch verb {
	case "lower", "decrease", "reduce", "cut", "drop", "attenuate", "quieter", "softer", "down":
		return -1
	}
	if strings.HasPrefix(verb, "turn down") || strings.HasPrefix(verb, "bring down") {
		return -1
	}
	return 1
}

func extractVolume(c captures) ([]command.Parameter, error) {
	verb := strings.Join(strings.Fields(c.get("verb")), " ")

	if !c.has("num") {
		return []command.Parameter{decibels(command.ParamVolumeChange, volumeDirection(verb)*command.DefaultVolumeStep)}, nil
	}

	raw := c.get("num")
	v, err := parseNumber(command.ParamVolumeChange, raw)
	if err != nil {
		return nil, err
	}

	sign := 1.0
	if verb != "" {
		sign = volumeDirection(verb)
		v = math.Abs(v)
	}

	unit := c.get("unit")
	if unit == "%" || unit == "percent" {
		direction := "up"
		if sign < 0 || (verb == "" && v < 0) {
			direction = "down"
		}
		return []command.Parameter{
			percent(command.ParamVolumePercent, math.Abs(v)),
			label(command.ParamDirection, direction),
		}, nil
	}

	return []command.Parameter{decibels(command.ParamVolumeChange, sign*v)}, nil
}

func extractFade(c captures) ([]command.Parameter, error) {
	fadeType := c.get("type")
	if strings.Contains(fadeType, " ") {
		fadeType = "both"
	}

	d := command.DefaultFadeDuration
	if c.has("num") {
		v, err := parseSeconds(command.ParamDurationName, c.get("num"), c.get("unit"))
		if err != nil {
			return nil, err
		}
		d = v
	}

	return []command.Parameter{
		label(command.ParamFadeType, fadeType),
		seconds(command.ParamDurationName, d),
	}, nil
}

func extractNormalize(c captures) ([]command.Parameter, error) {
	target := command.DefaultNormalizeTarget
	if c.has("num") {
		v, err := parseNumber(command.ParamTargetLevel, c.get("num"))
		if err != nil {
			return nil, err
		}
		target = v
	}
	return []command.Parameter{decibels(command.ParamTargetLevel, target)}, nil
}

func noiseType(word string) string {
	switch word {
	case "hum", "buzz":
		return "hum"
	case "hiss":
		return "hiss"
	case "click", "clicks", "crackle":
		return "click"
	case "wind":
		return "wind"
	default:
		return "general"
	}
}

func extractNoiseReduction(c captures) ([]command.Parameter, error) {
	amount := command.DefaultReduction
	if c.has("num") {
		v, err := parseNumber(command.ParamReductionAmount, c.get("num"))
		if err != nil {
			return nil, err
		}
		amount = v
	}
	return []command.Parameter{
		percent(command.ParamReductionAmount, amount),
		label(command.ParamNoiseType, noiseType(c.get("noise"))),
	}, nil
}

// Center frequencies for named bands
const (
	bassHz   = 100.0
	midHz    = 1000.0
	trebleHz = 8000.0
)

func band(word string) (string, float64) {
	switch {
	case strings.Contains(word, "bass"), strings.Contains(word, "low"):
		return "bass", bassHz
	case strings.Contains(word, "treble"), strings.Contains(word, "high"):
		return "treble", trebleHz
	default:
		return "mid", midHz
	}
}

func extractEqualize(c captures) ([]command.Parameter, error) {
	verb := c.get("verb")
	sign := 1.0
	switch verb {
	case "cut", "reduce", "lower", "decrease", "remove", "attenuate", "less":
		sign = -1
	}

	gain := sign * command.DefaultEQGain
	if c.has("num") {
		v, err := parseNumber(command.ParamGain, c.get("num"))
		if err != nil {
			return nil, err
		}
		if verb == "eq" {
			gain = v
		} else {
			gain = sign * math.Abs(v)
		}
	}

	var params []command.Parameter
	if c.has("freq") {
		f, err := parseNumber(command.ParamFrequencyName, c.get("freq"))
		if err != nil {
			return nil, err
		}
		if c.get("funit") != "hz" {
			f *= 1000
		}
		params = append(params, label(command.ParamBand, "custom"),
			command.NewParameter(command.ParamFrequencyName, command.ParamFrequency, command.FloatValue(f), command.UnitHertz))
	} else {
		name, f := band(c.get("band"))
		params = append(params, label(command.ParamBand, name),
			command.NewParameter(command.ParamFrequencyName, command.ParamFrequency, command.FloatValue(f), command.UnitHertz))
	}
	return append(params, decibels(command.ParamGain, gain)), nil
}

func roomType(word string) string {
	switch {
	case word == "":
		return "room"
	case strings.Contains(word, "hall"), word == "large", word == "big":
		return "hall"
	case word == "church", word == "cathedral":
		return "cathedral"
	case word == "plate":
		return "plate"
	case word == "small":
		return "small"
	default:
		return "room"
	}
}

func extractReverb(c captures) ([]command.Parameter, error) {
	wet := command.DefaultWetLevel
	if c.has("num") {
		v, err := parseNumber(command.ParamWetLevel, c.get("num"))
		if err != nil {
			return nil, err
		}
		wet = v
	}
	return []command.Parameter{
		percent(command.ParamWetLevel, wet),
		label(command.ParamRoomType, roomType(strings.Join(strings.Fields(c.get("room")), " "))),
	}, nil
}

func extractDelay(c captures) ([]command.Parameter, error) {
	t := command.DefaultDelayTime
	if c.has("num") {
		v, err := parseSeconds(command.ParamDelayTime, c.get("num"), c.get("unit"))
		if err != nil {
			return nil, err
		}
		t = v
	}

	fb := command.DefaultFeedback
	if a, b := c.scan(feedbackRe); a != "" || b != "" {
		raw := a + b
		v, err := parseNumber(command.ParamFeedback, raw)
		if err != nil {
			return nil, err
		}
		fb = v
	}

	return []command.Parameter{
		seconds(command.ParamDelayTime, t),
		percent(command.ParamFeedback, fb),
	}, nil
}

func extractCompress(c captures) ([]command.Parameter, error) {
	ratio := command.DefaultRatio
	if a, b := c.scan(ratioRe); a != "" || b != "" {
		v, err := parseNumber(command.ParamRatio, a+b)
		if err != nil {
			return nil, err
		}
		ratio = v
	}

	threshold := command.DefaultThreshold
	if a, _ := c.scan(thresholdRe); a != "" {
		v, err := parseNumber(command.ParamThreshold, a)
		if err != nil {
			return nil, err
		}
		threshold = v
	}

	return []command.Parameter{
		command.NewParameter(command.ParamRatio, command.ParamNumber, command.FloatValue(ratio), command.UnitRatio),
		decibels(command.ParamThreshold, threshold),
	}, nil
}

func extractConvert(c captures) ([]command.Parameter, error) {
	var params []command.Parameter

	if f, _ := c.scan(formatRe); f != "" {
		switch f {
		case "wave":
			f = "wav"
		case "vorbis":
			f = "ogg"
		case "aif":
			f = "aiff"
		}
		params = append(params, label(command.ParamFormat, f))
	}

	if rate, unit := c.scan(sampleRateRe); rate != "" {
		v, err := parseNumber(command.ParamSampleRate, rate)
		if err != nil {
			return nil, err
		}
		if unit != "hz" {
			v *= 1000
		}
		params = append(params, command.NewParameter(command.ParamSampleRate, command.ParamNumber, command.FloatValue(math.Round(v)), command.UnitHertz))
	}

	if ch, _ := c.scan(channelsRe); ch != "" {
		n := 2.0
		if ch == "mono" {
			n = 1
		}
		params = append(params, command.NewParameter(command.ParamChannels, command.ParamNumber, command.FloatValue(n), command.UnitChannels))
	}

	return params, nil
}

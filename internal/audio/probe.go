package audio

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Probe is the subset of ffprobe's JSON report this package reads
type Probe struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

type probeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
	Duration      string `json:"duration"`
}

func parseProbe(data []byte) (*Probe, error) {
	var p Probe
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if p.audio() == nil {
		return nil, fmt.Errorf("%w: no audio stream", ErrUnsupportedFormat)
	}
	return &p, nil
}

func (p *Probe) audio() *probeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

// Info extracts the basic facts. Missing fields are zero.
func (p *Probe) Info() *Info {
	info := &Info{}
	s := p.audio()
	if s == nil {
		return info
	}
	info.Duration = atof(p.Format.Duration)
	if info.Duration == 0 {
		info.Duration = atof(s.Duration)
	}
	info.SampleRate = int(atof(s.SampleRate))
	info.Channels = s.Channels
	return info
}

// Metadata returns the extended report: format, codec, bitrate, size and tags
func (p *Probe) Metadata() map[string]any {
	info := p.Info()
	md := map[string]any{
		"duration":    info.Duration,
		"sample_rate": info.SampleRate,
		"channels":    info.Channels,
		"format":      p.Format.FormatName,
	}
	if s := p.audio(); s != nil {
		md["codec"] = s.CodecName
		if s.ChannelLayout != "" {
			md["channel_layout"] = s.ChannelLayout
		}
	}
	if v := atof(p.Format.BitRate); v > 0 {
		md["bit_rate"] = int64(v)
	}
	if v := atof(p.Format.Size); v > 0 {
		md["size_bytes"] = int64(v)
	}
	if len(p.Format.Tags) > 0 {
		tags := make(map[string]any, len(p.Format.Tags))
		for k, v := range p.Format.Tags {
			tags[k] = v
		}
		md["tags"] = tags
	}
	return md
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

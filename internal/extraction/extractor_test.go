package extraction

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	GenerateFunc func(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error)
	calls        atomic.Int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	f.calls.Add(1)
	return f.GenerateFunc(ctx, request)
}

func replying(raw string) *fakeProvider {
	return &fakeProvider{
		GenerateFunc: func(_ context.Context, _ *llm.GenerationRequest) (*llm.GenerationResponse, error) {
			return &llm.GenerationResponse{RawOutput: raw, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
		},
	}
}

type usageSpy struct {
	model string
	total int64
}

func (u *usageSpy) RecordTokenUsage(_ context.Context, model string, total, _, _, _ int64) {
	u.model = model
	u.total = total
}

func TestExtractor_Disabled(t *testing.T) {
	e := New(nil, Options{})
	assert.False(t, e.Enabled())
	assert.Nil(t, e.Extract(context.Background(), "make it sparkle", nil))
}

func TestExtractor_Request(t *testing.T) {
	var got *llm.GenerationRequest
	p := &fakeProvider{GenerateFunc: func(_ context.Context, r *llm.GenerationRequest) (*llm.GenerationResponse, error) {
		got = r
		return &llm.GenerationResponse{RawOutput: `{"command_type":"analyze","confidence":0.8,"parameters":[]}`}, nil
	}}
	spy := &usageSpy{}
	e := New(p, Options{Model: "gpt-4.1", Temperature: 0.2, Usage: spy})

	cmd := e.Extract(context.Background(), "How loud is this?", &command.AudioContext{Duration: 12})
	require.NotNil(t, cmd)

	require.NotNil(t, got)
	assert.Equal(t, "gpt-4.1", got.Model)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 1e-9)
	assert.Contains(t, got.SystemPrompt, "**COMMANDS**")
	require.Len(t, got.InputArray, 1)
	assert.Contains(t, got.InputArray[0]["content"], "duration: 12 seconds")
	require.NotNil(t, got.OutputSchema)
	assert.Equal(t, llm.CommandSchemaName, got.OutputSchema.Name)
	assert.Equal(t, "gpt-4.1", spy.model)
}

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		expect *command.Command
	}{
		{
			name: "plain object",
			raw:  `{"command_type":"reverb","confidence":0.72,"parameters":[{"name":"wet_level","type":"percentage","value":40,"unit":"%"},{"name":"room_type","type":"label","value":"Hall","unit":null}]}`,
			expect: &command.Command{
				Kind:       command.KindReverb,
				Confidence: 0.72,
				Parameters: []command.Parameter{
					command.NewParameter("wet_level", command.ParamPercentage, command.FloatValue(40), "%"),
					command.NewParameter("room_type", command.ParamLabel, command.TextValue("hall"), ""),
				},
			},
		},
		{
			name: "object wrapped in prose and fences",
			raw:  "Sure! ```json\n{\"command_type\":\"delay\",\"confidence\":0.6,\"parameters\":[{\"name\":\"delay_time\",\"type\":\"duration\",\"value\":300,\"unit\":\"ms\"}]}\n``` hope this helps {not json}",
			expect: &command.Command{
				Kind:       command.KindDelay,
				Confidence: 0.6,
				Parameters: []command.Parameter{
					command.NewParameter("delay_time", command.ParamDuration, command.FloatValue(0.3), "s"),
				},
			},
		},
		{
			name: "string numbers, kind alias and clamped confidence",
			raw:  `{"command_type":"EQ","confidence":1.4,"parameters":[{"name":"frequency","type":"frequency","value":"2","unit":"kHz"},{"name":"gain","type":"level_db","value":"-3dB","unit":"dB"}]}`,
			expect: &command.Command{
				Kind:       command.KindEqualize,
				Confidence: 1,
				Parameters: []command.Parameter{
					command.NewParameter("frequency", command.ParamFrequency, command.FloatValue(2000), "Hz"),
					command.NewParameter("gain", command.ParamLevelDb, command.FloatValue(-3), "dB"),
				},
			},
		},
		{
			name: "braces inside strings",
			raw:  `{"command_type":"analyze","confidence":0.5,"parameters":[],"note":"use {curly} braces"}`,
			expect: &command.Command{
				Kind:       command.KindAnalyze,
				Confidence: 0.5,
				Parameters: []command.Parameter{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(replying(tt.raw), Options{})
			cmd := e.Extract(context.Background(), "Original Text", nil)
			require.NotNil(t, cmd)

			assert.Equal(t, tt.expect.Kind, cmd.Kind)
			assert.InDelta(t, tt.expect.Confidence, cmd.Confidence, 1e-9)
			assert.Equal(t, tt.expect.Parameters, cmd.Parameters)
			assert.Equal(t, command.SourceExtraction, cmd.Source)
			assert.Equal(t, "Original Text", cmd.OriginalText)
			assert.Equal(t, "original text", cmd.NormalizedText)
		})
	}
}

func TestExtractor_ReturnsNil(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no object", "I cannot help with that"},
		{"unbalanced", `{"command_type":"trim","confidence":0.9,"parameters":[`},
		{"malformed json", `{"command_type": trim}`},
		{"missing confidence", `{"command_type":"trim","parameters":[]}`},
		{"missing parameters", `{"command_type":"trim","confidence":0.9}`},
		{"unknown kind", `{"command_type":"pitch_shift","confidence":0.9,"parameters":[]}`},
		{"explicit unknown", `{"command_type":"unknown","confidence":0,"parameters":[]}`},
		{"unknown parameter type", `{"command_type":"trim","confidence":0.9,"parameters":[{"name":"x","type":"color","value":1}]}`},
		{"nameless parameter", `{"command_type":"trim","confidence":0.9,"parameters":[{"name":"","type":"duration","value":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(replying(tt.raw), Options{})
			assert.Nil(t, e.Extract(context.Background(), "whatever", nil))
		})
	}
}

func TestExtractor_ProviderFailure(t *testing.T) {
	p := &fakeProvider{GenerateFunc: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
		return nil, errors.New("upstream timeout")
	}}
	e := New(p, Options{FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		assert.Nil(t, e.Extract(context.Background(), "whatever", nil))
	}
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, "open", e.BreakerState())

	// An open breaker rejects without calling the service
	assert.Nil(t, e.Extract(context.Background(), "whatever", nil))
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestExtractor_CancellationDoesNotTrip(t *testing.T) {
	p := &fakeProvider{GenerateFunc: func(ctx context.Context, _ *llm.GenerationRequest) (*llm.GenerationResponse, error) {
		return nil, ctx.Err()
	}}
	e := New(p, Options{FailureThreshold: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, e.Extract(ctx, "whatever", nil))
	assert.Equal(t, "closed", e.BreakerState())
}

func TestExtractor_RecoversPanic(t *testing.T) {
	p := &fakeProvider{GenerateFunc: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
		panic("boom")
	}}
	e := New(p, Options{})
	assert.NotPanics(t, func() {
		assert.Nil(t, e.Extract(context.Background(), "whatever", nil))
	})
}

func TestFirstObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{}`, `{}`},
		{`xx {"a":{"b":1}} yy {"c":2}`, `{"a":{"b":1}}`},
		{`{"s":"\"}\""}`, `{"s":"\"}\""}`},
		{`no braces`, ``},
		{`{"open":`, ``},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, firstObject(tt.in), tt.in)
	}
}

func TestCanonicalUnit(t *testing.T) {
	tests := []struct {
		kind      command.ParamKind
		unit      string
		scale     float64
		canonical string
	}{
		{command.ParamDuration, "minutes", 60, "s"},
		{command.ParamDuration, "", 1, "s"},
		{command.ParamLevelDb, "DB", 1, "dB"},
		{command.ParamFrequency, "kHz", 1000, "Hz"},
		{command.ParamNumber, "", 1, ""},
		{command.ParamPercentage, "furlongs", 1, "furlongs"},
	}
	for _, tt := range tests {
		scale, canonical := canonicalUnit(tt.kind, tt.unit)
		assert.InDelta(t, tt.scale, scale, 1e-12)
		assert.Equal(t, tt.canonical, canonical)
	}
}

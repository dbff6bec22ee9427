package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakePutter) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func (f *fakePutter) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, in := range f.inputs {
		for _, d := range in.MetricData {
			names = append(names, aws.ToString(d.MetricName))
		}
	}
	return names
}

func TestNewClient_DisabledOutsideProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		enabled     bool
	}{
		{"development", "development", true},
		{"switched off", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(context.Background(), tt.environment, tt.enabled)
			assert.False(t, c.Enabled())

			// Recording on a disabled client is a no-op
			c.RecordAPIRequest("/api/v1/edit", 200, time.Millisecond)
			c.Wait()
		})
	}
}

func TestClient_RecordCommand(t *testing.T) {
	tests := []struct {
		name    string
		success bool
		expect  []string
	}{
		{"success", true, []string{"CommandsProcessed", "ProcessingLatency"}},
		{"failure", false, []string{"CommandsProcessed", "CommandFailures", "ProcessingLatency"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePutter{}
			c := newClientWithPutter(p, "production")

			c.RecordCommand("trim", tt.success, 40*time.Millisecond)
			c.Wait()

			assert.Equal(t, tt.expect, p.names())
			require.NotEmpty(t, p.inputs)
			assert.Equal(t, namespace, aws.ToString(p.inputs[0].Namespace))

			dims := p.inputs[0].MetricData[0].Dimensions
			require.Len(t, dims, 3)
			assert.Equal(t, "CommandType", aws.ToString(dims[0].Name))
			assert.Equal(t, "trim", aws.ToString(dims[0].Value))
			assert.Equal(t, "Environment", aws.ToString(dims[2].Name))
		})
	}
}

func TestClient_RecordAPIRequest(t *testing.T) {
	tests := []struct {
		status int
		expect string
	}{
		{200, "APIRequests"},
		{422, "APIRequests"},
		{503, "APIErrors"},
	}

	for _, tt := range tests {
		p := &fakePutter{}
		c := newClientWithPutter(p, "production")
		c.RecordAPIRequest("/api/v1/edit", tt.status, time.Millisecond)
		c.Wait()

		assert.Equal(t, []string{tt.expect, "APILatency"}, p.names())
	}
}

func TestClient_RecordTokenUsage(t *testing.T) {
	p := &fakePutter{}
	c := newClientWithPutter(p, "production")

	c.RecordTokenUsage("gpt-4.1-mini", 30, 20, 10, 0)
	c.Wait()
	assert.Equal(t, []string{"LLMTokens/Total", "LLMTokens/Input", "LLMTokens/Output"}, p.names())

	p = &fakePutter{}
	c = newClientWithPutter(p, "production")
	c.RecordTokenUsage("gpt-5-mini", 40, 20, 10, 10)
	c.Wait()
	assert.Contains(t, p.names(), "LLMTokens/Reasoning")
}

func TestClient_PutErrorIsSwallowed(t *testing.T) {
	p := &fakePutter{err: errors.New("throttled")}
	c := newClientWithPutter(p, "production")

	c.RecordExtractionFallback(true)
	c.Wait()
	assert.Equal(t, []string{"ExtractionFallbacks"}, p.names())
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	ctx := context.Background()
	r.RecordAPIRequest(ctx, "/health", 200, time.Millisecond)
	r.RecordCommand(ctx, "trim", true, time.Millisecond)
	r.RecordExtractionFallback(false)
	r.RecordTokenUsage(ctx, "m", 1, 1, 0, 0)
	r.Wait()

	r = NewRecorder(nil, nil)
	r.RecordCommand(ctx, "trim", true, time.Millisecond)
	r.RecordExtractionFallback(false)
	r.Wait()
}

func TestRecorder_FansOut(t *testing.T) {
	p := &fakePutter{}
	r := NewRecorder(newClientWithPutter(p, "production"), NewSentryMetrics(true))

	r.RecordCommand(context.Background(), "normalize", true, time.Millisecond)
	r.Wait()
	assert.Contains(t, p.names(), "CommandsProcessed")
}

package metrics

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "MAGDA/Edit"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// metricPutter is the subset of the CloudWatch API used here
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      metricPutter
	enabled     bool
	environment string
	wg          sync.WaitGroup
}

// NewClient creates a new CloudWatch metrics client.
// Metrics are only sent when enabled and running in production.
func NewClient(ctx context.Context, environment string, enabled bool) *Client {
	if !enabled || environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{environment: environment}
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{environment: environment}
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return newClientWithPutter(cloudwatch.NewFromConfig(cfg), environment)
}

func newClientWithPutter(p metricPutter, environment string) *Client {
	return &Client{
		client:      p,
		enabled:     true,
		environment: environment,
	}
}

// Enabled reports whether metrics are being sent
func (m *Client) Enabled() bool {
	return m != nil && m.enabled
}

// Wait blocks until in-flight metric writes finish
func (m *Client) Wait() {
	if m != nil {
		m.wg.Wait()
	}
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	m.async(func(ctx context.Context) {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := m.dimensions("Endpoint", endpoint)
		m.put(ctx, metricName, 1, types.StandardUnitCount, dimensions)
		m.put(ctx, "APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	})
}

// RecordCommand records one processed command, keyed by its kind
func (m *Client) RecordCommand(kind string, success bool, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	m.async(func(ctx context.Context) {
		dimensions := m.dimensions("CommandType", kind, "Success", strconv.FormatBool(success))
		m.put(ctx, "CommandsProcessed", 1, types.StandardUnitCount, dimensions)
		if !success {
			m.put(ctx, "CommandFailures", 1, types.StandardUnitCount, dimensions)
		}
		m.put(ctx, "ProcessingLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	})
}

// RecordExtractionFallback records a grammar miss handed to the model
func (m *Client) RecordExtractionFallback(recognized bool) {
	if !m.Enabled() {
		return
	}

	m.async(func(ctx context.Context) {
		dimensions := m.dimensions("Recognized", strconv.FormatBool(recognized))
		m.put(ctx, "ExtractionFallbacks", 1, types.StandardUnitCount, dimensions)
	})
}

// RecordTokenUsage records completion token usage
func (m *Client) RecordTokenUsage(model string, totalTokens, inputTokens, outputTokens, reasoningTokens int64) {
	if !m.Enabled() {
		return
	}

	m.async(func(ctx context.Context) {
		dimensions := m.dimensions("Model", model)
		m.put(ctx, "LLMTokens/Total", float64(totalTokens), types.StandardUnitCount, dimensions)
		m.put(ctx, "LLMTokens/Input", float64(inputTokens), types.StandardUnitCount, dimensions)
		m.put(ctx, "LLMTokens/Output", float64(outputTokens), types.StandardUnitCount, dimensions)
		if reasoningTokens > 0 {
			m.put(ctx, "LLMTokens/Reasoning", float64(reasoningTokens), types.StandardUnitCount, dimensions)
		}
	})
}

func (m *Client) async(fn func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn(context.Background())
	}()
}

// dimensions builds name/value pairs and appends the environment
func (m *Client) dimensions(pairs ...string) []types.Dimension {
	dims := make([]types.Dimension, 0, len(pairs)/2+1)
	for i := 0; i+1 < len(pairs); i += 2 {
		dims = append(dims, types.Dimension{
			Name:  aws.String(pairs[i]),
			Value: aws.String(pairs[i+1]),
		})
	}
	return append(dims, types.Dimension{
		Name:  aws.String("Environment"),
		Value: aws.String(m.environment),
	})
}

func (m *Client) put(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) {
	if err := m.putMetric(ctx, metricName, value, unit, dimensions); err != nil {
		log.Printf("Failed to record %s metric: %v", metricName, err)
	}
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	ctx context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	cwCtx, cancel := context.WithTimeout(ctx, cloudwatchTimeoutSeconds*time.Second)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

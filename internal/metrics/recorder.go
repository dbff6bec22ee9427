package metrics

import (
	"context"
	"time"
)

// Recorder fans metrics out to CloudWatch and Sentry. A nil Recorder is a no-op.
type Recorder struct {
	cloudwatch *Client
	sentry     *SentryMetrics
}

// NewRecorder combines the two sinks; either may be nil
func NewRecorder(cw *Client, sm *SentryMetrics) *Recorder {
	return &Recorder{cloudwatch: cw, sentry: sm}
}

// RecordAPIRequest records one HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	}
	r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
}

// RecordCommand records one pipeline run
func (r *Recorder) RecordCommand(ctx context.Context, kind string, success bool, duration time.Duration) {
	if r == nil {
		return
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordCommand(kind, success, duration)
	}
	r.sentry.RecordCommand(ctx, kind, success, duration)
}

// RecordExtractionFallback records a call into the extraction stage
func (r *Recorder) RecordExtractionFallback(recognized bool) {
	if r == nil || r.cloudwatch == nil {
		return
	}
	r.cloudwatch.RecordExtractionFallback(recognized)
}

// RecordTokenUsage records completion tokens
func (r *Recorder) RecordTokenUsage(ctx context.Context, model string, total, input, output, reasoning int64) {
	if r == nil {
		return
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordTokenUsage(model, total, input, output, reasoning)
	}
	r.sentry.RecordTokenUsage(ctx, model, total, input, output, reasoning)
}

// Wait blocks until queued CloudWatch writes finish
func (r *Recorder) Wait() {
	if r != nil {
		r.cloudwatch.Wait()
	}
}

package executor

import "time"

// Status is the outcome class of one execution
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// Partial and Skipped are reserved for multi-step commands; no handler produces them.
	StatusPartial Status = "partial"
	StatusSkipped Status = "skipped"
)

// Result is produced exactly once per dispatched command
type Result struct {
	Status         Status         `json:"status"`
	Message        string         `json:"message"`
	OutputFile     string         `json:"outputFile,omitempty"`
	ProcessingTime float64        `json:"processingTime,omitempty"` // seconds
	Warnings       []string       `json:"warnings,omitempty"`
	Errors         []string       `json:"errors,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Succeeded reports whether the status is Success
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

func failed(message string, errs ...string) *Result {
	if len(errs) == 0 {
		errs = []string{message}
	}
	return &Result{
		Status:   StatusFailed,
		Message:  message,
		Errors:   errs,
		Metadata: map[string]any{},
	}
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

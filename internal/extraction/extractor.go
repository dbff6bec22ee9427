// Package extraction turns instructions the grammar did not recognize into commands by asking a
// text-completion service for a structured reply.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/llm"
	"github.com/Conceptual-Machines/magda-edit/internal/logger"
	"github.com/Conceptual-Machines/magda-edit/internal/observability"
	"github.com/Conceptual-Machines/magda-edit/internal/prompt"
	"github.com/sony/gobreaker/v2"
)

// ErrNoStructuredReply means the reply held no usable command object
var ErrNoStructuredReply = errors.New("no structured command in reply")

const (
	defaultModel       = "gpt-4.1-mini"
	defaultTemperature = 0.1
	defaultThreshold   = 5
	defaultOpenTimeout = 30 * time.Second
	generationName     = "command-extraction"
)

// UsageRecorder receives token counts of every completion
type UsageRecorder interface {
	RecordTokenUsage(ctx context.Context, model string, total, input, output, reasoning int64)
}

// Options tunes the completion call and the breaker around it
type Options struct {
	Model         string
	Temperature   float64
	ReasoningMode string

	// Consecutive failures that open the breaker, and how long it stays open
	FailureThreshold uint32
	OpenTimeout      time.Duration

	Usage UsageRecorder
}

// Extractor is the structured-extraction fallback
type Extractor struct {
	provider llm.Provider
	prompts  *prompt.Builder
	opts     Options
	breaker  *gobreaker.CircuitBreaker[*llm.GenerationResponse]
}

// New creates an extractor. A nil provider yields an extractor that never recognizes anything.
func New(provider llm.Provider, opts Options) *Extractor {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = defaultThreshold
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}

	e := &Extractor{
		provider: provider,
		prompts:  prompt.NewPromptBuilder(),
		opts:     opts,
	}

	threshold := opts.FailureThreshold
	e.breaker = gobreaker.NewCircuitBreaker[*llm.GenerationResponse](gobreaker.Settings{
		Name:        "completion-service",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Caller cancellations say nothing about the health of the service
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return e
}

// Enabled reports whether a completion service is configured
func (e *Extractor) Enabled() bool {
	return e != nil && e.provider != nil
}

// BreakerState reports the breaker state ("closed", "half-open" or "open")
func (e *Extractor) BreakerState() string {
	if e == nil {
		return gobreaker.StateClosed.String()
	}
	return e.breaker.State().String()
}

// Model returns the model extraction calls use
func (e *Extractor) Model() string {
	return e.opts.Model
}

// Extract asks the completion service to interpret text. It makes exactly one call and returns
// nil when no command could be obtained: the service failed, the breaker is open, the reply was
// not a conforming object, or it named an unknown kind. It never panics.
func (e *Extractor) Extract(ctx context.Context, text string, actx *command.AudioContext) (cmd *command.Command) {
	if !e.Enabled() {
		return nil
	}

	fields := logger.Fields{"model": e.opts.Model, "provider": e.provider.Name(), "stage": "extraction"}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("extraction panicked", fmt.Errorf("%v", r), fields)
			cmd = nil
		}
	}()

	cmd, err := e.extract(ctx, text, actx)
	if err != nil {
		logger.Warn("extraction produced no command", fields.With(logger.Fields{"error": err}))
		return nil
	}
	logger.Info("extraction recognized command", fields.With(logger.Fields{
		"command_type": cmd.Kind,
		"confidence":   cmd.Confidence,
	}))
	return cmd
}

func (e *Extractor) extract(ctx context.Context, text string, actx *command.AudioContext) (*command.Command, error) {
	userPrompt := e.prompts.BuildUserPrompt(text, actx)
	temperature := e.opts.Temperature
	request := &llm.GenerationRequest{
		Model:         e.opts.Model,
		InputArray:    []map[string]any{llm.UserMessage(userPrompt)},
		ReasoningMode: e.opts.ReasoningMode,
		SystemPrompt:  e.prompts.BuildPrompt(),
		Temperature:   &temperature,
		OutputSchema:  llm.CommandOutputSchema(),
	}

	gen := observability.TraceFromContext(ctx).Generation(generationName, map[string]interface{}{
		"provider": e.provider.Name(),
	})
	defer gen.Finish()

	resp, err := e.breaker.Execute(func() (*llm.GenerationResponse, error) {
		return e.provider.Generate(ctx, request)
	})
	gen.RecordCompletion(e.opts.Model, userPrompt, resp)
	if err != nil {
		gen.SetLevel("ERROR")
		return nil, fmt.Errorf("completion: %w", err)
	}
	if resp == nil {
		return nil, ErrNoStructuredReply
	}

	if e.opts.Usage != nil {
		u := resp.Usage
		e.opts.Usage.RecordTokenUsage(ctx, e.opts.Model, u.TotalTokens, u.InputTokens, u.OutputTokens, u.ReasoningTokens)
	}

	cmd, err := decodeReply(resp.RawOutput)
	if err != nil {
		gen.SetLevel("WARNING")
		return nil, err
	}
	cmd.OriginalText = text
	cmd.NormalizedText = command.Normalize(text)
	return cmd, nil
}

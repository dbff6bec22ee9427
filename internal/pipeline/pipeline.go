// Package pipeline runs an instruction through recognition, validation and execution.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/audio"
	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/executor"
	"github.com/Conceptual-Machines/magda-edit/internal/logger"
	"github.com/Conceptual-Machines/magda-edit/internal/observability"
	"github.com/Conceptual-Machines/magda-edit/internal/parser"
	"github.com/Conceptual-Machines/magda-edit/internal/validator"
)

// Extractor interprets text the grammar missed; nil means no command
type Extractor interface {
	Extract(ctx context.Context, text string, actx *command.AudioContext) *command.Command
}

// MetadataSource returns extended asset metadata
type MetadataSource interface {
	BasicMetadata(ctx context.Context, asset string) (map[string]any, error)
}

// Recorder receives per-run metrics
type Recorder interface {
	RecordCommand(ctx context.Context, kind string, success bool, duration time.Duration)
	RecordExtractionFallback(recognized bool)
}

// Deps are the collaborators of a Pipeline. Extractor, Metadata and Metrics are optional.
type Deps struct {
	Editor    audio.Editor
	Locks     *audio.AssetLocks
	Extractor Extractor
	Metadata  MetadataSource
	Metrics   Recorder
}

// Pipeline processes one instruction per call; calls share no mutable state besides asset locks
type Pipeline struct {
	matcher   *parser.Matcher
	editor    audio.Editor
	executor  *executor.Executor
	extractor Extractor
	metadata  MetadataSource
	metrics   Recorder
}

func New(deps Deps) *Pipeline {
	return &Pipeline{
		matcher:   parser.NewMatcher(),
		editor:    deps.Editor,
		executor:  executor.New(deps.Editor, deps.Locks),
		extractor: deps.Extractor,
		metadata:  deps.Metadata,
		metrics:   deps.Metrics,
	}
}

// Process interprets text and applies it to asset. It always returns a well-formed result;
// Success is true only when the edit was executed successfully.
func (p *Pipeline) Process(ctx context.Context, text, asset string, actx *command.AudioContext) (res *Result) {
	start := time.Now()
	fields := logger.Fields{"asset": asset, "stage": "pipeline"}
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		fields["request_id"] = id
	}

	trace := observability.GetClient().StartTrace(ctx, "edit-command", map[string]interface{}{
		"text":  text,
		"asset": asset,
	})
	ctx = observability.ContextWithTrace(ctx, trace)
	defer trace.Finish()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			logger.Error("pipeline panicked", err, fields)
			res = &Result{
				Success:  false,
				Message:  "Processing failed: " + err.Error(),
				Errors:   []string{err.Error()},
				Metadata: map[string]any{},
			}
		}
		res.ProcessingTime = time.Since(start).Seconds()
		kind := string(command.KindUnknown)
		if res.Command != nil {
			kind = string(res.Command.Kind)
		}
		if p.metrics != nil {
			p.metrics.RecordCommand(ctx, kind, res.Success, time.Since(start))
		}
		logger.Info("pipeline finished", fields.With(logger.Fields{
			"command_type": kind,
			"success":      res.Success,
			"duration":     time.Since(start),
		}))
	}()

	actx = p.enrich(ctx, asset, actx, fields)

	cmd, early := p.recognize(ctx, text, actx, fields)
	if early != nil {
		return early
	}

	validated := validator.Validate(cmd, actx)
	if len(validated.Errors) > 0 {
		return &Result{
			Success:  false,
			Message:  "Command validation failed",
			Command:  validated,
			Warnings: validated.Warnings,
			Errors:   validated.Errors,
			Metadata: describe(validated),
		}
	}

	exec := p.executor.Execute(ctx, validated, asset, actx)

	metadata := describe(validated)
	metadata["execution"] = exec.Metadata
	return &Result{
		Success:    exec.Status == executor.StatusSuccess,
		Message:    exec.Message,
		Command:    validated,
		Execution:  exec,
		Warnings:   mergeUnique(validated.Warnings, exec.Warnings),
		Errors:     exec.Errors,
		OutputFile: exec.OutputFile,
		Metadata:   metadata,
	}
}

// Parse runs recognition and validation without executing anything
func (p *Pipeline) Parse(ctx context.Context, text string, actx *command.AudioContext) (res *Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			logger.Error("parse panicked", err, logger.Fields{"stage": "parse"})
			res = &Result{Message: "Processing failed: " + err.Error(), Errors: []string{err.Error()}, Metadata: map[string]any{}}
		}
		res.ProcessingTime = time.Since(start).Seconds()
	}()

	if actx == nil {
		actx = &command.AudioContext{}
	}
	cmd, early := p.recognize(ctx, text, actx, logger.Fields{"stage": "parse"})
	if early != nil {
		return early
	}

	validated := validator.Validate(cmd, actx)
	res = &Result{
		Success:  len(validated.Errors) == 0,
		Message:  "Command parsed successfully",
		Command:  validated,
		Warnings: validated.Warnings,
		Errors:   validated.Errors,
		Metadata: describe(validated),
	}
	if !res.Success {
		res.Message = "Command validation failed"
	}
	return res
}

// recognize runs the grammar and, only when it finds nothing, the extractor. A non-nil
// result means processing stops there.
func (p *Pipeline) recognize(ctx context.Context, text string, actx *command.AudioContext, fields logger.Fields) (*command.Command, *Result) {
	normalized := command.Normalize(text)

	cmd, err := p.matcher.Match(normalized)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			logger.Warn("grammar matched but a value was unusable", fields.With(logger.Fields{"error": err}))
			failed := &command.Command{
				Kind:           pe.Kind,
				Confidence:     command.GrammarConfidence,
				OriginalText:   text,
				NormalizedText: normalized,
				Errors:         []string{pe.Error()},
				Source:         command.SourceGrammar,
			}
			return nil, &Result{
				Message:  "Could not read the values in the command",
				Command:  failed,
				Errors:   failed.Errors,
				Metadata: describe(failed),
			}
		}
		return nil, &Result{Message: "Processing failed: " + err.Error(), Errors: []string{err.Error()}, Metadata: map[string]any{}}
	}
	cmd.OriginalText = text

	if !cmd.Recognized() && p.extractor != nil {
		if extracted := p.extractor.Extract(ctx, text, actx); extracted.Recognized() {
			cmd = extracted
		}
		if p.metrics != nil {
			p.metrics.RecordExtractionFallback(cmd.Recognized())
		}
	}

	if !cmd.Recognized() {
		suggestions := Suggest(normalized)
		cmd.Suggestions = suggestions
		return nil, &Result{
			Message:     "Could not understand the command",
			Command:     cmd,
			Suggestions: suggestions,
			Metadata:    describe(cmd),
		}
	}

	logger.Debug("command recognized", fields.With(logger.Fields{
		"command_type": cmd.Kind,
		"source":       cmd.Source,
		"confidence":   cmd.Confidence,
	}))
	return cmd, nil
}

// enrich copies actx and fills in what the asset itself reports. Failures are logged only.
func (p *Pipeline) enrich(ctx context.Context, asset string, actx *command.AudioContext, fields logger.Fields) *command.AudioContext {
	out := actx.Clone()
	if asset == "" {
		return out
	}

	if p.editor != nil {
		info, err := p.editor.Info(ctx, asset)
		if err != nil {
			logger.Warn("could not read audio info", fields.With(logger.Fields{"error": err}))
		} else if info != nil {
			if info.Duration > 0 {
				out.Duration = info.Duration
			}
			if info.SampleRate > 0 {
				out.SampleRate = info.SampleRate
			}
			if info.Channels > 0 {
				out.Channels = info.Channels
			}
		}
	}

	if p.metadata != nil {
		md, err := p.metadata.BasicMetadata(ctx, asset)
		if err != nil {
			logger.Warn("could not read audio metadata", fields.With(logger.Fields{"error": err}))
			return out
		}
		if out.Metadata == nil {
			out.Metadata = make(map[string]any, len(md))
		}
		for k, v := range md {
			if _, exists := out.Metadata[k]; !exists {
				out.Metadata[k] = v
			}
		}
	}
	return out
}

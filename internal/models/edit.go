package models

import (
	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/pipeline"
)

// EditRequest is the body of POST /api/v1/edit and /api/v1/edit/parse
type EditRequest struct {
	CommandText   string                `json:"commandText" binding:"required"`
	InputAssetRef string                `json:"inputAssetRef"`
	Context       *command.AudioContext `json:"context,omitempty"`
}

// ParsedCommand summarizes the command the pipeline settled on
type ParsedCommand struct {
	CommandType  string  `json:"commandType"`
	Confidence   float64 `json:"confidence"`
	OriginalText string  `json:"originalText"`
}

// ProcessingResponse is the serialized ProcessingResult
type ProcessingResponse struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	ParsedCommand  *ParsedCommand `json:"parsedCommand"`
	Suggestions    []string       `json:"suggestions,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	Errors         []string       `json:"errors,omitempty"`
	ProcessingTime float64        `json:"processingTime"`
	OutputFile     string         `json:"outputFile,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewProcessingResponse converts a pipeline result. parsedCommand is null only when the
// pipeline produced no command at all.
func NewProcessingResponse(res *pipeline.Result) ProcessingResponse {
	if res == nil {
		return ProcessingResponse{Message: "No result"}
	}

	out := ProcessingResponse{
		Success:        res.Success,
		Message:        res.Message,
		Suggestions:    res.Suggestions,
		Warnings:       res.Warnings,
		Errors:         res.Errors,
		ProcessingTime: res.ProcessingTime,
		OutputFile:     res.OutputFile,
		Metadata:       res.Metadata,
	}
	if res.Command != nil {
		out.ParsedCommand = &ParsedCommand{
			CommandType:  string(res.Command.Kind),
			Confidence:   res.Command.Confidence,
			OriginalText: res.Command.OriginalText,
		}
	}
	return out
}

// CommandsResponse lists the vocabulary the service understands
type CommandsResponse struct {
	Commands []command.Spec `json:"commands"`
}

package handlers

import (
	"context"
	"net/http"

	"github.com/Conceptual-Machines/magda-edit/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-edit/internal/command"
	"github.com/Conceptual-Machines/magda-edit/internal/logger"
	"github.com/Conceptual-Machines/magda-edit/internal/models"
	"github.com/Conceptual-Machines/magda-edit/internal/pipeline"
	"github.com/gin-gonic/gin"
)

// maxLoggedTextLength bounds the instruction text copied into logs
const maxLoggedTextLength = 200

// Processor is the part of the pipeline the HTTP layer drives
type Processor interface {
	Process(ctx context.Context, text, asset string, actx *command.AudioContext) *pipeline.Result
	Parse(ctx context.Context, text string, actx *command.AudioContext) *pipeline.Result
}

type EditHandler struct {
	pipeline Processor
}

func NewEditHandler(p Processor) *EditHandler {
	return &EditHandler{pipeline: p}
}

// Edit interprets the instruction and applies it to the referenced asset. Any well-formed
// request gets a 200 with the processing result, whether or not the edit succeeded.
func (h *EditHandler) Edit(c *gin.Context) {
	var req models.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.InputAssetRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inputAssetRef is required"})
		return
	}

	fields := requestFields(c, req)
	logger.Info("edit request received", fields)

	res := h.pipeline.Process(c.Request.Context(), req.CommandText, req.InputAssetRef, req.Context)

	logger.Info("edit request processed", fields.With(logger.Fields{
		"success": res.Success,
		"output":  res.OutputFile,
	}))
	c.JSON(http.StatusOK, models.NewProcessingResponse(res))
}

// Parse runs recognition and validation only
func (h *EditHandler) Parse(c *gin.Context) {
	var req models.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.pipeline.Parse(c.Request.Context(), req.CommandText, req.Context)
	logger.Debug("parse request processed", requestFields(c, req).With(logger.Fields{"success": res.Success}))
	c.JSON(http.StatusOK, models.NewProcessingResponse(res))
}

// Commands lists every command kind with its parameters and example phrasings
func (h *EditHandler) Commands(c *gin.Context) {
	c.JSON(http.StatusOK, models.CommandsResponse{Commands: command.Catalog()})
}

func requestFields(c *gin.Context, req models.EditRequest) logger.Fields {
	text := req.CommandText
	if len(text) > maxLoggedTextLength {
		text = text[:maxLoggedTextLength] + "..."
	}
	fields := logger.WithContext(c).With(logger.Fields{
		"asset": req.InputAssetRef,
		"text":  text,
	})
	if userID, ok := middleware.UserID(c); ok {
		fields["user_id"] = userID
	}
	return fields
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExtractionStatus describes the structured-extraction fallback
type ExtractionStatus interface {
	Enabled() bool
	Model() string
	BreakerState() string
}

type HealthHandler struct {
	provider   string
	extraction ExtractionStatus
}

// NewHealthHandler reports provider as the configured completion service. extraction may be nil.
func NewHealthHandler(provider string, extraction ExtractionStatus) *HealthHandler {
	return &HealthHandler{provider: provider, extraction: extraction}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"extraction": extractionInfo(h.provider, h.extraction),
	})
}

func extractionInfo(provider string, ext ExtractionStatus) gin.H {
	if ext == nil || !ext.Enabled() {
		return gin.H{"status": "disabled", "provider": provider}
	}
	return gin.H{
		"status":   "enabled",
		"provider": provider,
		"model":    ext.Model(),
		"breaker":  ext.BreakerState(),
	}
}

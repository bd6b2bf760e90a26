package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

type ModelHandler struct {
	models *services.ModelService
}

func NewModelHandler(models *services.ModelService) *ModelHandler {
	return &ModelHandler{models: models}
}

// GetSchema describes the inputs the loaded model expects.
func (h *ModelHandler) GetSchema(c *gin.Context) {
	m, err := h.models.EnsureLoaded()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"version":       m.Schema.Version,
		"categorical":   m.Schema.Categorical,
		"numerical":     m.Schema.Numerical,
		"expected":      m.Schema.Expected(),
		"label":         m.Schema.Label,
		"model_version": m.Version,
		"run_id":        m.Pipeline.RunID,
		"fitted_at":     m.Pipeline.FittedAt,
	})
}

// Health stays UP without a model; model_loaded tells whether one is active.
func (h *ModelHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "UP",
		"message":      "Ride cancellation API is running",
		"model_loaded": h.models.Loaded(),
		"artifact":     h.models.ArtifactPath(),
	})
}

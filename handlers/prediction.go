package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/models"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

type PredictionHandler struct {
	svc  *services.PredictionService
	logs *services.PredictionLogger
}

func NewPredictionHandler(svc *services.PredictionService, logs *services.PredictionLogger) *PredictionHandler {
	return &PredictionHandler{svc: svc, logs: logs}
}

type PredictResponse struct {
	Label        int     `json:"label"`
	Probability  float64 `json:"probability"`
	IsCancelled  int     `json:"is_cancelled"`
	ModelVersion string  `json:"model_version"`
}

// Predict scores an arbitrary JSON object of booking features.
func (h *PredictionHandler) Predict(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}
	var payload schema.Payload
	if err := json.Unmarshal(bytes.TrimSpace(body), &payload); err != nil || payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	pred, err := h.svc.Predict(c.Request.Context(), services.SourceAPI, c.GetHeader("X-Booking-ID"), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PredictResponse{
		Label:        pred.Label,
		Probability:  pred.Probability,
		IsCancelled:  pred.Label,
		ModelVersion: pred.ModelVersion,
	})
}

func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	p, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := h.logs.List(p.Limit+1, p.Before, c.Query("source"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, newPage(rows, p.Limit, func(r models.PredictionLog) time.Time { return r.TS }))
}

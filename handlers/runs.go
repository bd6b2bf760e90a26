package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/models"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

type RunsHandler struct {
	tracker *services.Tracker
}

func NewRunsHandler(tracker *services.Tracker) *RunsHandler {
	return &RunsHandler{tracker: tracker}
}

func (h *RunsHandler) ListRuns(c *gin.Context) {
	p, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	runs, err := h.tracker.ListRuns(p.Limit+1, p.Before)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, newPage(runs, p.Limit, func(r models.TrainingRun) time.Time { return r.StartedAt }))
}

func (h *RunsHandler) GetRun(c *gin.Context) {
	run, err := h.tracker.GetRun(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, run)
}

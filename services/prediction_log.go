package services

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/models"
)

type PredictionLogger struct {
	db *gorm.DB
}

func NewPredictionLogger(db *gorm.DB) *PredictionLogger {
	return &PredictionLogger{db: db}
}

// PredictionEvent is what gets logged and published for every prediction.
type PredictionEvent struct {
	TS           time.Time      `json:"ts"`
	Source       string         `json:"source"`
	BookingID    string         `json:"booking_id,omitempty"`
	Label        int            `json:"label"`
	Probability  float64        `json:"probability"`
	ModelVersion string         `json:"model_version"`
	CacheHit     bool           `json:"cache_hit"`
	Payload      map[string]any `json:"payload,omitempty"`
}

func (l *PredictionLogger) Record(ev PredictionEvent) error {
	raw, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	row := models.PredictionLog{
		TS:           ev.TS,
		Source:       ev.Source,
		BookingID:    ev.BookingID,
		Label:        ev.Label,
		Probability:  ev.Probability,
		ModelVersion: ev.ModelVersion,
		CacheHit:     ev.CacheHit,
		Payload:      datatypes.JSON(raw),
	}
	return l.db.Create(&row).Error
}

func (l *PredictionLogger) List(limit int, before *time.Time, source string) ([]models.PredictionLog, error) {
	q := l.db.Order("ts DESC").Order("id DESC").Limit(limit)
	if before != nil {
		q = q.Where("ts < ?", *before)
	}
	if source != "" {
		q = q.Where("source = ?", source)
	}
	var rows []models.PredictionLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// PredictionLog is one scored booking, whichever entry point produced it.
type PredictionLog struct {
	ID           uint           `gorm:"column:id;primaryKey" json:"id"`
	TS           time.Time      `gorm:"column:ts;index" json:"ts"`
	Source       string         `gorm:"column:source;index" json:"source"`
	BookingID    string         `gorm:"column:booking_id;index" json:"booking_id,omitempty"`
	Label        int            `gorm:"column:label" json:"label"`
	Probability  float64        `gorm:"column:probability" json:"probability"`
	ModelVersion string         `gorm:"column:model_version;index" json:"model_version"`
	CacheHit     bool           `gorm:"column:cache_hit" json:"cache_hit"`
	Payload      datatypes.JSON `gorm:"column:payload" json:"payload"`
}

func (PredictionLog) TableName() string { return "prediction_logs" }

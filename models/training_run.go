package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

type TrainingRun struct {
	RunID        string         `gorm:"column:run_id;primaryKey" json:"run_id"`
	Experiment   string         `gorm:"column:experiment;index" json:"experiment"`
	Status       string         `gorm:"column:status" json:"status"`
	StartedAt    time.Time      `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt   *time.Time     `gorm:"column:finished_at" json:"finished_at"`
	DataSource   string         `gorm:"column:data_source" json:"data_source"`
	ArtifactPath string         `gorm:"column:artifact_path" json:"artifact_path"`
	ModelVersion string         `gorm:"column:model_version" json:"model_version"`
	Params       datatypes.JSON `gorm:"column:params" json:"params"`
	Metrics      datatypes.JSON `gorm:"column:metrics" json:"metrics"`
	Error        string         `gorm:"column:error" json:"error,omitempty"`
}

func (TrainingRun) TableName() string { return "training_runs" }

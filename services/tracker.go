package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/models"
)

// Tracker records training runs: parameters, metrics and where the
// resulting artifact went.
type Tracker struct {
	db         *gorm.DB
	experiment string
}

func NewTracker(db *gorm.DB, experiment string) *Tracker {
	return &Tracker{db: db, experiment: experiment}
}

func (t *Tracker) StartRun(dataSource string, params any) (*models.TrainingRun, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	run := &models.TrainingRun{
		RunID:      uuid.NewString(),
		Experiment: t.experiment,
		Status:     models.RunRunning,
		StartedAt:  time.Now().UTC(),
		DataSource: dataSource,
		Params:     datatypes.JSON(raw),
		Metrics:    datatypes.JSON([]byte(`{}`)),
	}
	if err := t.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final params and metrics. params may be nil to keep
// the ones recorded at start.
func (t *Tracker) FinishRun(run *models.TrainingRun, params, metrics any, artifactPath, version string) error {
	updates := map[string]any{
		"status":        models.RunFinished,
		"finished_at":   time.Now().UTC(),
		"artifact_path": artifactPath,
		"model_version": version,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		updates["params"] = datatypes.JSON(raw)
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	updates["metrics"] = datatypes.JSON(raw)
	return t.update(run, updates)
}

func (t *Tracker) FailRun(run *models.TrainingRun, cause error) error {
	return t.update(run, map[string]any{
		"status":      models.RunFailed,
		"finished_at": time.Now().UTC(),
		"error":       cause.Error(),
	})
}

func (t *Tracker) update(run *models.TrainingRun, updates map[string]any) error {
	if err := t.db.Model(run).Updates(updates).Error; err != nil {
		return fmt.Errorf("update run %s: %w", run.RunID, err)
	}
	return nil
}

func (t *Tracker) GetRun(id string) (*models.TrainingRun, error) {
	var run models.TrainingRun
	if err := t.db.First(&run, "run_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit runs of the experiment started before the
// cursor, newest first.
func (t *Tracker) ListRuns(limit int, before *time.Time) ([]models.TrainingRun, error) {
	q := t.db.Where("experiment = ?", t.experiment).Order("started_at DESC").Limit(limit)
	if before != nil {
		q = q.Where("started_at < ?", *before)
	}
	var runs []models.TrainingRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/metrics"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
)

// LoadedModel is immutable once published and shared without locks.
type LoadedModel struct {
	Pipeline *ml.Pipeline
	Schema   schema.FeatureSchema
	Version  string
	LoadedAt time.Time
}

// ModelService loads the artifact on first use. A failed load is not
// remembered, so a model trained after startup is picked up by the next call.
type ModelService struct {
	artifactPath string
	schemaPath   string
	log          *logger.Logger

	current atomic.Pointer[LoadedModel]
	mu      sync.Mutex
	load    func() (*LoadedModel, error)
}

func NewModelService(cfg config.ModelConfig, log *logger.Logger) *ModelService {
	s := &ModelService{
		artifactPath: cfg.ArtifactPath,
		schemaPath:   cfg.SchemaPath,
		log:          log.With("service", "ModelService"),
	}
	s.load = s.loadFromDisk
	return s
}

func (s *ModelService) ArtifactPath() string { return s.artifactPath }

// EnsureLoaded returns the model, loading it at most once across goroutines.
func (s *ModelService) EnsureLoaded() (*LoadedModel, error) {
	if m := s.current.Load(); m != nil {
		return m, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.current.Load(); m != nil {
		return m, nil
	}

	m, err := s.load()
	if err != nil {
		metrics.ModelLoads.WithLabelValues(apperr.KindOf(err).String()).Inc()
		s.log.Warn("model load failed", "path", s.artifactPath, "kind", apperr.KindOf(err).String(), "error", err)
		return nil, err
	}
	metrics.ModelLoads.WithLabelValues("ok").Inc()
	s.log.Info("model loaded", "path", s.artifactPath, "version", m.Version,
		"categorical", len(m.Schema.Categorical), "numerical", len(m.Schema.Numerical))
	s.current.Store(m)
	return m, nil
}

// Loaded reports whether a model is available without triggering a load.
func (s *ModelService) Loaded() bool {
	return s.current.Load() != nil
}

func (s *ModelService) loadFromDisk() (*LoadedModel, error) {
	p, version, err := ml.LoadArtifact(s.artifactPath)
	if err != nil {
		return nil, err
	}
	fs, err := schema.Extract(p)
	if err != nil {
		return nil, err
	}
	if s.schemaPath != "" {
		sidecar, ok, err := schema.ReadSidecar(s.schemaPath)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := schema.Verify(fs, sidecar); err != nil {
				return nil, err
			}
		}
	}
	return &LoadedModel{Pipeline: p, Schema: fs, Version: version, LoadedAt: time.Now().UTC()}, nil
}

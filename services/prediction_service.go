package services

import (
	"context"
	"strconv"
	"time"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/inference"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/metrics"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
)

const (
	SourceAPI    = "api"
	SourceStream = "stream"
	SourceBatch  = "batch"
)

type Prediction struct {
	Label        int     `json:"label"`
	Probability  float64 `json:"probability"`
	ModelVersion string  `json:"model_version"`
	CacheHit     bool    `json:"-"`
}

// PredictionService scores payloads and fans the results out to the cache,
// the live channel and the prediction log. Cache and log are optional.
type PredictionService struct {
	models *ModelService
	cache  *CacheService
	logs   *PredictionLogger
	log    *logger.Logger

	// inline runs the fan-out before Predict returns.
	inline bool
}

func NewPredictionService(models *ModelService, cache *CacheService, logs *PredictionLogger, log *logger.Logger) *PredictionService {
	if cache == nil {
		cache = &CacheService{}
	}
	return &PredictionService{models: models, cache: cache, logs: logs, log: log.With("service", "PredictionService")}
}

// Synchronous makes Predict finish publishing and logging before it returns.
func (s *PredictionService) Synchronous() *PredictionService {
	s.inline = true
	return s
}

func (s *PredictionService) Models() *ModelService { return s.models }

func (s *PredictionService) Predict(ctx context.Context, source, bookingID string, payload schema.Payload) (Prediction, error) {
	start := time.Now()
	pred, err := s.predict(ctx, payload)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictionFailures.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return Prediction{}, err
	}
	metrics.Predictions.WithLabelValues(source, strconv.Itoa(pred.Label)).Inc()

	ev := PredictionEvent{
		TS:           time.Now().UTC(),
		Source:       source,
		BookingID:    bookingID,
		Label:        pred.Label,
		Probability:  pred.Probability,
		ModelVersion: pred.ModelVersion,
		CacheHit:     pred.CacheHit,
		Payload:      payload,
	}
	if s.inline {
		s.fanOut(ev)
	} else {
		go s.fanOut(ev)
	}
	return pred, nil
}

func (s *PredictionService) predict(ctx context.Context, payload schema.Payload) (Prediction, error) {
	m, err := s.models.EnsureLoaded()
	if err != nil {
		return Prediction{}, err
	}
	row, err := schema.Reconcile(payload, m.Schema.Categorical, m.Schema.Numerical)
	if err != nil {
		return Prediction{}, err
	}

	key := PredictionKey(m.Version, row.Key())
	var cached Prediction
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("prediction cache read failed", "error", err)
	} else if hit {
		metrics.CacheHits.Inc()
		cached.CacheHit = true
		return cached, nil
	}
	if s.cache.Available() {
		metrics.CacheMisses.Inc()
	}

	res, err := inference.PredictRow(row, m.Pipeline)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{Label: res.Label, Probability: res.Probability, ModelVersion: m.Version}
	if err := s.cache.Set(ctx, key, pred); err != nil {
		s.log.Warn("prediction cache write failed", "error", err)
	}
	return pred, nil
}

func (s *PredictionService) fanOut(ev PredictionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Publish(ctx, PredictionsChannel, ev); err != nil {
		s.log.Warn("prediction publish failed", "error", err)
	}
	if s.logs != nil {
		if err := s.logs.Record(ev); err != nil {
			s.log.Warn("prediction log write failed", "error", err)
		}
	}
}

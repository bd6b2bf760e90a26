// Package inference scores a single booking payload against a loaded pipeline.
package inference

import (
	"errors"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
)

type Result struct {
	Label          int     `json:"label"`
	Probability    float64 `json:"probability"`
	HasProbability bool    `json:"-"`
}

// Predict reconciles payload against the pipeline's own schema and scores it.
// Probability is 0 when the classifier cannot estimate one.
func Predict(payload schema.Payload, p *ml.Pipeline) (Result, error) {
	s, err := schema.Extract(p)
	if err != nil {
		return Result{}, err
	}
	return PredictWithSchema(payload, p, s)
}

// PredictWithSchema skips extraction for callers that cached the schema at load.
func PredictWithSchema(payload schema.Payload, p *ml.Pipeline, s schema.FeatureSchema) (Result, error) {
	row, err := schema.Reconcile(payload, s.Categorical, s.Numerical)
	if err != nil {
		return Result{}, err
	}
	return PredictRow(row, p)
}

func PredictRow(row schema.Row, p *ml.Pipeline) (Result, error) {
	frame := row.Frame()
	labels, err := p.Predict(frame)
	if err != nil {
		return Result{}, wrap(err)
	}
	if len(labels) != 1 {
		return Result{}, apperr.New(apperr.KindUnknown, "prediction failed: got %d labels for one row", len(labels))
	}
	res := Result{Label: labels[0]}

	proba, ok, err := p.PredictProba(frame)
	if err != nil {
		return Result{}, wrap(err)
	}
	if ok && len(proba) == 1 {
		res.Probability = proba[0]
		res.HasProbability = true
	}
	return res, nil
}

func wrap(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.KindUnknown, err, "prediction failed")
}

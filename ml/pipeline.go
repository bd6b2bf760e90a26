package ml

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
)

// Pipeline couples the fitted column encoding with the classifier so callers
// only hand it typed frames.
type Pipeline struct {
	Preprocessor *ColumnTransformer
	Classifier   Classifier
	Label        string
	FittedAt     time.Time
	RunID        string
}

func NewPipeline(pre *ColumnTransformer, clf Classifier) *Pipeline {
	return &Pipeline{Preprocessor: pre, Classifier: clf}
}

func (p *Pipeline) Fit(f *dataset.Frame, y []int) error {
	if p.Preprocessor == nil || p.Classifier == nil {
		return errors.New("pipeline needs a preprocessor and a classifier")
	}
	if err := p.Preprocessor.Fit(f); err != nil {
		return fmt.Errorf("fit preprocessor: %w", err)
	}
	x, err := p.Preprocessor.Transform(f)
	if err != nil {
		return fmt.Errorf("encode training rows: %w", err)
	}
	if err := p.Classifier.Fit(x, y); err != nil {
		return fmt.Errorf("fit classifier: %w", err)
	}
	p.FittedAt = time.Now().UTC()
	return nil
}

func (p *Pipeline) encode(f *dataset.Frame) ([][]float64, error) {
	if p.Preprocessor == nil || p.Classifier == nil {
		return nil, errors.New("pipeline is not fitted")
	}
	return p.Preprocessor.Transform(f)
}

func (p *Pipeline) Predict(f *dataset.Frame) ([]int, error) {
	x, err := p.encode(f)
	if err != nil {
		return nil, err
	}
	return p.Classifier.Predict(x), nil
}

// PredictProba returns P(is_cancelled=1) per row. ok is false when the
// classifier has no probability estimates.
func (p *Pipeline) PredictProba(f *dataset.Frame) (proba []float64, ok bool, err error) {
	est, ok := p.Classifier.(ProbabilityEstimator)
	if !ok {
		return nil, false, nil
	}
	x, err := p.encode(f)
	if err != nil {
		return nil, false, err
	}
	return est.PredictProba(x), true, nil
}

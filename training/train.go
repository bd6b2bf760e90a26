// Package training fits the cancellation pipeline on a cleaned frame and
// scores it on a held-out split.
package training

import (
	"fmt"
	"time"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/preprocess"
)

const ModelType = "RandomForestClassifier"

// Options tune a training run. Zero Estimators, MinSamplesLeaf and TestSize
// fall back to DefaultOptions. Seed is always used as given, so a zero Seed
// trains with seed 0; start from DefaultOptions to get seed 42.
type Options struct {
	Estimators     int
	MinSamplesLeaf int
	TestSize       float64
	Seed           int64
	Workers        int
}

func DefaultOptions() Options {
	return Options{
		Estimators:     300,
		MinSamplesLeaf: 2,
		TestSize:       0.2,
		Seed:           42,
	}
}

// Params are the hyperparameters and sizes recorded with a training run.
type Params struct {
	ModelType      string `json:"model_type"`
	NEstimators    int    `json:"n_estimators"`
	MinSamplesLeaf int    `json:"min_samples_leaf"`
	ClassWeight    string `json:"class_weight"`
	RandomState    int64  `json:"random_state"`
	TrainRows      int    `json:"train_rows"`
	TestRows       int    `json:"test_rows"`
	FeatureCount   int    `json:"feature_count"`
}

type Report struct {
	Metrics  ml.Metrics    `json:"metrics"`
	Params   Params        `json:"params"`
	Duration time.Duration `json:"duration"`
}

// Train splits the cleaned frame, fits the pipeline on the training part and
// evaluates it on the rest. The label column must be present.
func Train(frame *dataset.Frame, opts Options) (*ml.Pipeline, Report, error) {
	start := time.Now()
	def := DefaultOptions()
	if opts.Estimators <= 0 {
		opts.Estimators = def.Estimators
	}
	if opts.MinSamplesLeaf <= 0 {
		opts.MinSamplesLeaf = def.MinSamplesLeaf
	}
	if opts.TestSize <= 0 {
		opts.TestSize = def.TestSize
	}

	labelCol, ok := frame.Column(preprocess.LabelColumn)
	if !ok {
		return nil, Report{}, fmt.Errorf("frame has no %q column", preprocess.LabelColumn)
	}
	y := make([]int, frame.Len())
	for i, v := range labelCol.Floats {
		y[i] = int(v)
	}

	trainIdx, testIdx, err := ml.StratifiedSplit(y, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, Report{}, fmt.Errorf("split: %w", err)
	}

	categorical := frame.NamesOf(dataset.Categorical, preprocess.LabelColumn)
	numerical := frame.NamesOf(dataset.Numerical, preprocess.LabelColumn)

	forest := ml.NewRandomForest(
		ml.WithEstimators(opts.Estimators),
		ml.WithMinSamplesLeaf(opts.MinSamplesLeaf),
		ml.WithRandomState(opts.Seed),
		ml.WithWorkers(opts.Workers),
	)
	pipeline := ml.NewPipeline(ml.NewColumnTransformer(categorical, numerical), forest)
	pipeline.Label = preprocess.LabelColumn

	trainFrame, testFrame := frame.Take(trainIdx), frame.Take(testIdx)
	if err := pipeline.Fit(trainFrame, pick(y, trainIdx)); err != nil {
		return nil, Report{}, err
	}

	yTest := pick(y, testIdx)
	pred, err := pipeline.Predict(testFrame)
	if err != nil {
		return nil, Report{}, fmt.Errorf("predict test split: %w", err)
	}
	proba, _, err := pipeline.PredictProba(testFrame)
	if err != nil {
		return nil, Report{}, fmt.Errorf("score test split: %w", err)
	}
	metrics, err := ml.Evaluate(yTest, pred, proba)
	if err != nil {
		return nil, Report{}, fmt.Errorf("evaluate: %w", err)
	}

	report := Report{
		Metrics: metrics,
		Params: Params{
			ModelType:      ModelType,
			NEstimators:    forest.NEstimators,
			MinSamplesLeaf: forest.MinSamplesLeaf,
			ClassWeight:    forest.ClassWeight,
			RandomState:    opts.Seed,
			TrainRows:      len(trainIdx),
			TestRows:       len(testIdx),
			FeatureCount:   len(categorical) + len(numerical),
		},
		Duration: time.Since(start),
	}
	return pipeline, report, nil
}

func pick(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const ClassWeightBalancedSubsample = "balanced_subsample"

// Classifier is a binary classifier over dense encoded rows.
type Classifier interface {
	Fit(x [][]float64, y []int) error
	Predict(x [][]float64) []int
}

// ProbabilityEstimator reports P(y=1) per row.
type ProbabilityEstimator interface {
	PredictProba(x [][]float64) []float64
}

// RandomForest is a bagged ensemble of gini trees. Each tree sees a bootstrap
// sample, optionally reweighted so both classes carry equal total weight.
type RandomForest struct {
	NEstimators    int
	MinSamplesLeaf int
	MaxFeatures    int // 0 means floor(sqrt(n_features))
	ClassWeight    string
	Bootstrap      bool
	RandomState    int64
	Workers        int

	NFeatures int
	Trees     []DecisionTree
}

type ForestOption func(*RandomForest)

func WithEstimators(n int) ForestOption      { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithMinSamplesLeaf(n int) ForestOption  { return func(rf *RandomForest) { rf.MinSamplesLeaf = n } }
func WithMaxFeatures(n int) ForestOption     { return func(rf *RandomForest) { rf.MaxFeatures = n } }
func WithClassWeight(cw string) ForestOption { return func(rf *RandomForest) { rf.ClassWeight = cw } }
func WithBootstrap(on bool) ForestOption     { return func(rf *RandomForest) { rf.Bootstrap = on } }
func WithRandomState(seed int64) ForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}
func WithWorkers(n int) ForestOption { return func(rf *RandomForest) { rf.Workers = n } }

func NewRandomForest(opts ...ForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:    300,
		MinSamplesLeaf: 2,
		ClassWeight:    ClassWeightBalancedSubsample,
		Bootstrap:      true,
		RandomState:    42,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

func (rf *RandomForest) featuresPerSplit(nFeatures int) int {
	if rf.MaxFeatures > 0 {
		return min(rf.MaxFeatures, nFeatures)
	}
	return max(1, int(math.Sqrt(float64(nFeatures))))
}

func (rf *RandomForest) Fit(x [][]float64, y []int) error {
	if len(x) == 0 {
		return errors.New("random forest: no training rows")
	}
	if len(x) != len(y) {
		return fmt.Errorf("random forest: %d rows but %d labels", len(x), len(y))
	}
	if rf.NEstimators <= 0 {
		return fmt.Errorf("random forest: n_estimators must be positive, got %d", rf.NEstimators)
	}
	rf.NFeatures = len(x[0])
	if rf.NFeatures == 0 {
		return errors.New("random forest: rows have no features")
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("random forest: label %d at row %d is not binary", v, i)
		}
	}

	// Per-tree seeds come from one stream so the fit is reproducible
	// regardless of how workers are scheduled.
	seeder := rand.New(rand.NewSource(rf.RandomState))
	seeds := make([]int64, rf.NEstimators)
	for i := range seeds {
		seeds[i] = seeder.Int63()
	}

	workers := rf.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	mtry := rf.featuresPerSplit(rf.NFeatures)
	trees := make([]DecisionTree, rf.NEstimators)

	var g errgroup.Group
	g.SetLimit(workers)
	for t := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[t]))
			w := rf.sampleWeights(y, rng)
			trees[t] = growTree(x, y, w, rf.MinSamplesLeaf, mtry, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

// sampleWeights draws the bootstrap multiplicities and folds in the class
// weight for that sample: n / (classes * count_c) per draw.
func (rf *RandomForest) sampleWeights(y []int, rng *rand.Rand) []float64 {
	n := len(y)
	w := make([]float64, n)
	if rf.Bootstrap {
		for i := 0; i < n; i++ {
			w[rng.Intn(n)]++
		}
	} else {
		for i := range w {
			w[i] = 1
		}
	}
	if rf.ClassWeight != ClassWeightBalancedSubsample {
		return w
	}

	var counts [2]float64
	for i, c := range w {
		counts[y[i]] += c
	}
	present := 0
	for _, c := range counts {
		if c > 0 {
			present++
		}
	}
	total := counts[0] + counts[1]
	for i := range w {
		if w[i] > 0 {
			w[i] *= total / (float64(present) * counts[y[i]])
		}
	}
	return w
}

func (rf *RandomForest) PredictProba(x [][]float64) []float64 {
	out := make([]float64, len(x))
	if len(rf.Trees) == 0 {
		return out
	}
	for i, row := range x {
		var sum float64
		for t := range rf.Trees {
			sum += rf.Trees[t].Proba(row)
		}
		out[i] = sum / float64(len(rf.Trees))
	}
	return out
}

// Predict takes the argmax of the averaged probabilities; ties go to class 0.
func (rf *RandomForest) Predict(x [][]float64) []int {
	proba := rf.PredictProba(x)
	out := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

package ml

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
)

func bookingFrame(t *testing.T, vehicles []string, distances []float64) *dataset.Frame {
	t.Helper()
	f := dataset.NewFrame(len(vehicles))
	require.NoError(t, f.Add(dataset.NewCategorical("vehicle_type", vehicles)))
	require.NoError(t, f.Add(dataset.NewNumerical("ride_distance", distances)))
	return f
}

func TestColumnTransformerEncodesInOrder(t *testing.T) {
	ct := NewColumnTransformer([]string{"vehicle_type"}, []string{"ride_distance"})
	require.NoError(t, ct.Fit(bookingFrame(t, []string{"Bike", "Auto", "Bike"}, []float64{1, 2, 3})))

	assert.Equal(t, [][]string{{"Auto", "Bike"}}, ct.Transformers[0].Categories)
	assert.Equal(t, []string{"vehicle_type_Auto", "vehicle_type_Bike", "ride_distance"}, ct.FeatureNames())

	x, err := ct.Transform(bookingFrame(t, []string{"Bike", "Car"}, []float64{4.5, 7}))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1, 4.5}, {0, 0, 7}}, x)
}

func TestColumnTransformerRejectsBadInput(t *testing.T) {
	ct := NewColumnTransformer([]string{"vehicle_type"}, []string{"ride_distance"})
	_, err := ct.Transform(bookingFrame(t, []string{"Bike"}, []float64{1}))
	assert.Error(t, err, "unfitted")

	require.NoError(t, ct.Fit(bookingFrame(t, []string{"Bike"}, []float64{1})))

	f := dataset.NewFrame(1)
	require.NoError(t, f.Add(dataset.NewCategorical("vehicle_type", []string{"Bike"})))
	_, err = ct.Transform(f)
	assert.ErrorContains(t, err, "ride_distance")

	f = dataset.NewFrame(1)
	require.NoError(t, f.Add(dataset.NewCategorical("vehicle_type", []string{"Bike"})))
	require.NoError(t, f.Add(dataset.NewCategorical("ride_distance", []string{"far"})))
	_, err = ct.Transform(f)
	assert.ErrorContains(t, err, "must be numerical")
}

func thresholdData() ([][]float64, []int) {
	var x [][]float64
	var y []int
	for i := 0; i < 40; i++ {
		x = append(x, []float64{float64(i), float64(i % 3)})
		if i >= 20 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return x, y
}

func TestRandomForestLearnsThreshold(t *testing.T) {
	x, y := thresholdData()
	rf := NewRandomForest(WithEstimators(25), WithMaxFeatures(2))
	require.NoError(t, rf.Fit(x, y))
	require.Len(t, rf.Trees, 25)

	proba := rf.PredictProba([][]float64{{3, 0}, {36, 0}})
	assert.Less(t, proba[0], 0.5)
	assert.Greater(t, proba[1], 0.5)
	assert.Equal(t, []int{0, 1}, rf.Predict([][]float64{{3, 0}, {36, 0}}))
}

func TestRandomForestIsDeterministicAcrossWorkers(t *testing.T) {
	x, y := thresholdData()
	a := NewRandomForest(WithEstimators(10), WithWorkers(1))
	b := NewRandomForest(WithEstimators(10), WithWorkers(4))
	require.NoError(t, a.Fit(x, y))
	require.NoError(t, b.Fit(x, y))
	assert.Equal(t, a.Trees, b.Trees)
}

func TestRandomForestRejectsBadLabels(t *testing.T) {
	rf := NewRandomForest(WithEstimators(2))
	assert.Error(t, rf.Fit(nil, nil))
	assert.Error(t, rf.Fit([][]float64{{1}}, []int{0, 1}))
	assert.Error(t, rf.Fit([][]float64{{1}, {2}}, []int{0, 2}))
}

func TestBalancedSubsampleWeights(t *testing.T) {
	rf := NewRandomForest(WithBootstrap(false))
	w := rf.sampleWeights([]int{0, 0, 0, 1}, nil)
	assert.InDeltaSlice(t, []float64{4.0 / 6, 4.0 / 6, 4.0 / 6, 2}, w, 1e-12)

	rf = NewRandomForest(WithBootstrap(false), WithClassWeight(""))
	assert.Equal(t, []float64{1, 1, 1, 1}, rf.sampleWeights([]int{0, 0, 0, 1}, nil))
}

func newTestRand() *rand.Rand { return rand.New(rand.NewSource(7)) }

func TestTreeRespectsMinSamplesLeaf(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}, {4}}
	y := []int{0, 1, 0, 0, 0}
	w := []float64{1, 1, 1, 1, 1}
	tree := growTree(x, y, w, 2, 1, newTestRand())
	for _, n := range tree.Nodes {
		if n.Left < 0 {
			assert.GreaterOrEqual(t, n.Samples, 2)
		}
	}
}

func TestTreeSeparableDepth(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 1}
	tree := growTree(x, y, []float64{1, 1, 1, 1}, 1, 1, newTestRand())
	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, 0.0, tree.Proba([]float64{0.5}))
	assert.Equal(t, 1.0, tree.Proba([]float64{2.5}))

	empty := &DecisionTree{}
	assert.Equal(t, 0, empty.Depth())
}

func TestStratifiedSplit(t *testing.T) {
	y := make([]int, 100)
	for i := 0; i < 20; i++ {
		y[i] = 1
	}
	train, test, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	positives := 0
	seen := map[int]bool{}
	for _, i := range test {
		positives += y[i]
		seen[i] = true
	}
	for _, i := range train {
		assert.False(t, seen[i], "row %d on both sides", i)
	}
	assert.Equal(t, 4, positives)

	again, _, _ := StratifiedSplit(y, 0.2, 42)
	assert.Equal(t, train, again)
}

func TestStratifiedSplitTinyClasses(t *testing.T) {
	train, test, err := StratifiedSplit([]int{0, 0, 1, 1}, 0.2, 42)
	require.NoError(t, err)
	classes := func(idx []int) map[int]bool {
		out := map[int]bool{}
		for _, i := range idx {
			out[[]int{0, 0, 1, 1}[i]] = true
		}
		return out
	}
	assert.Len(t, classes(train), 2)
	assert.Len(t, classes(test), 2)

	_, _, err = StratifiedSplit([]int{1, 1, 1}, 0.2, 42)
	assert.Error(t, err)
	_, _, err = StratifiedSplit([]int{0, 0, 0, 1}, 0.2, 42)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	m, err := Evaluate([]int{1, 0, 1, 1, 0}, []int{1, 0, 0, 1, 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3, m.F1, 1e-12)

	m, err = Evaluate([]int{1, 0}, []int{0, 0}, nil)
	require.NoError(t, err)
	assert.Zero(t, m.Precision)
	assert.Zero(t, m.F1)

	_, err = Evaluate([]int{1}, []int{1, 0}, nil)
	assert.Error(t, err)
}

func TestROCAUC(t *testing.T) {
	auc, err := ROCAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, auc, 1e-9)

	auc, err = ROCAUC([]int{0, 1}, []float64{0.2, 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, auc, 1e-9)

	_, err = ROCAUC([]int{1, 1}, []float64{0.2, 0.9})
	assert.Error(t, err)
}

func fittedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	vehicles := []string{"Auto", "Bike", "Auto", "Bike", "Auto", "Bike", "Auto", "Bike"}
	dist := []float64{1, 2, 3, 4, 10, 11, 12, 13}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	p := NewPipeline(
		NewColumnTransformer([]string{"vehicle_type"}, []string{"ride_distance"}),
		NewRandomForest(WithEstimators(8), WithMinSamplesLeaf(1)),
	)
	require.NoError(t, p.Fit(bookingFrame(t, vehicles, dist), y))
	return p
}

func TestArtifactRoundTrip(t *testing.T) {
	p := fittedPipeline(t)
	p.RunID = "run-1"
	path := filepath.Join(t.TempDir(), "models", "model.gob")
	require.NoError(t, SaveArtifact(path, p))

	loaded, version, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Len(t, version, 12)
	assert.Equal(t, "run-1", loaded.RunID)

	probe := bookingFrame(t, []string{"Auto", "Car"}, []float64{2, 12})
	want, ok, err := p.PredictProba(probe)
	require.NoError(t, err)
	require.True(t, ok)
	got, ok, err := loaded.PredictProba(probe)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLoadArtifactErrors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadArtifact(filepath.Join(dir, "absent.gob"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindArtifactMissing, apperr.KindOf(err))

	junk := filepath.Join(dir, "junk.gob")
	require.NoError(t, os.WriteFile(junk, []byte("not a model"), 0o644))
	_, _, err = LoadArtifact(junk)
	require.Error(t, err)
	assert.Equal(t, apperr.KindSchemaExtraction, apperr.KindOf(err))
}

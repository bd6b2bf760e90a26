package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
)

// labelOnly has no probability estimates.
type labelOnly struct{ label int }

func (c labelOnly) Fit([][]float64, []int) error { return nil }
func (c labelOnly) Predict(x [][]float64) []int {
	out := make([]int, len(x))
	for i := range out {
		out[i] = c.label
	}
	return out
}

func trainedPipeline(t *testing.T) *ml.Pipeline {
	t.Helper()
	n := 40
	vehicles := make([]string, n)
	dist := make([]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		vehicles[i] = []string{"Auto", "Bike"}[i%2]
		dist[i] = float64(i)
		if i >= 20 {
			y[i] = 1
		}
	}
	f := dataset.NewFrame(n)
	require.NoError(t, f.Add(dataset.NewCategorical("vehicle_type", vehicles)))
	require.NoError(t, f.Add(dataset.NewNumerical("ride_distance", dist)))

	p := ml.NewPipeline(
		ml.NewColumnTransformer([]string{"vehicle_type"}, []string{"ride_distance"}),
		ml.NewRandomForest(ml.WithEstimators(15), ml.WithMaxFeatures(3)),
	)
	require.NoError(t, p.Fit(f, y))
	return p
}

func TestPredict(t *testing.T) {
	p := trainedPipeline(t)

	res, err := Predict(schema.Payload{"vehicle_type": "Auto", "distance": 35}, p)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Label)
	assert.True(t, res.HasProbability)
	assert.Greater(t, res.Probability, 0.5)

	res, err = Predict(schema.Payload{"ride_distance": 2, "vehicle_type": "Truck"}, p)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Label)
	assert.Less(t, res.Probability, 0.5)
}

func TestPredictWithoutProbability(t *testing.T) {
	ct := ml.NewColumnTransformer([]string{"vehicle_type"}, []string{"ride_distance"})
	ct.Fitted = true
	ct.Transformers[0].Categories = [][]string{{"Auto"}}
	p := ml.NewPipeline(ct, labelOnly{label: 1})

	res, err := Predict(schema.Payload{}, p)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Label)
	assert.False(t, res.HasProbability)
	assert.Zero(t, res.Probability)
}

func TestPredictErrorsAreTyped(t *testing.T) {
	p := trainedPipeline(t)

	_, err := Predict(schema.Payload{"booking_hour": 25}, p)
	assert.Equal(t, apperr.KindRangeValidation, apperr.KindOf(err))

	_, err = Predict(schema.Payload{"ride_distance": "far"}, p)
	assert.Equal(t, apperr.KindTypeCoercion, apperr.KindOf(err))

	_, err = Predict(schema.Payload{}, nil)
	assert.Equal(t, apperr.KindSchemaExtraction, apperr.KindOf(err))

	unfitted := ml.NewPipeline(ml.NewColumnTransformer(nil, []string{"ride_distance"}), ml.NewRandomForest())
	_, err = Predict(schema.Payload{}, unfitted)
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindUnknown, ae.Kind)
	assert.Contains(t, err.Error(), "prediction failed")
}

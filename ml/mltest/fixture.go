// Package mltest builds small trained pipelines for tests.
package mltest

import (
	"path/filepath"
	"testing"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
)

var (
	Categorical = []string{"vehicle_type"}
	Numerical   = []string{"ride_distance", "booking_hour"}
)

// Pipeline is trained so that rides longer than 10 km are cancelled.
func Pipeline(tb testing.TB) *ml.Pipeline {
	tb.Helper()
	n := 40
	vehicles := make([]string, n)
	dist := make([]float64, n)
	hours := make([]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		vehicles[i] = []string{"Auto", "Bike", "Go Sedan"}[i%3]
		dist[i] = float64(i) / 2
		hours[i] = float64(i % 24)
		if dist[i] > 10 {
			y[i] = 1
		}
	}
	f := dataset.NewFrame(n)
	for _, c := range []*dataset.Column{
		dataset.NewCategorical("vehicle_type", vehicles),
		dataset.NewNumerical("ride_distance", dist),
		dataset.NewNumerical("booking_hour", hours),
	} {
		if err := f.Add(c); err != nil {
			tb.Fatalf("build fixture frame: %v", err)
		}
	}

	p := ml.NewPipeline(
		ml.NewColumnTransformer(Categorical, Numerical),
		ml.NewRandomForest(ml.WithEstimators(15), ml.WithMaxFeatures(5)),
	)
	p.Label = "is_cancelled"
	if err := p.Fit(f, y); err != nil {
		tb.Fatalf("fit fixture pipeline: %v", err)
	}
	return p
}

// WriteArtifact saves a fixture model and its schema side-artifact under dir.
func WriteArtifact(tb testing.TB, dir string) (artifactPath, schemaPath string) {
	tb.Helper()
	p := Pipeline(tb)
	artifactPath = filepath.Join(dir, "model.gob")
	schemaPath = filepath.Join(dir, "model.schema.yaml")
	if err := ml.SaveArtifact(artifactPath, p); err != nil {
		tb.Fatalf("save fixture artifact: %v", err)
	}
	s, err := schema.Extract(p)
	if err != nil {
		tb.Fatalf("extract fixture schema: %v", err)
	}
	if err := schema.WriteSidecar(schemaPath, s); err != nil {
		tb.Fatalf("write fixture schema: %v", err)
	}
	return artifactPath, schemaPath
}

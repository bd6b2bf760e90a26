// Package schema recovers the feature contract of a trained pipeline and
// reconciles caller payloads against it.
package schema

import (
	"slices"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
)

const Version = 1

// FeatureSchema is the ordered input contract of a fitted pipeline.
type FeatureSchema struct {
	Version     int      `json:"version" yaml:"version"`
	Categorical []string `json:"categorical" yaml:"categorical"`
	Numerical   []string `json:"numerical" yaml:"numerical"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// Expected is the categorical columns followed by the numerical ones.
func (s FeatureSchema) Expected() []string {
	out := make([]string, 0, len(s.Categorical)+len(s.Numerical))
	out = append(out, s.Categorical...)
	return append(out, s.Numerical...)
}

func (s FeatureSchema) Equal(o FeatureSchema) bool {
	return slices.Equal(s.Categorical, o.Categorical) && slices.Equal(s.Numerical, o.Numerical)
}

// Extract reads the column lists out of the fitted preprocessor. The first
// stage has to be the one-hot categorical stage and the second the numerical
// pass-through.
func Extract(p *ml.Pipeline) (FeatureSchema, error) {
	if p == nil {
		return FeatureSchema{}, apperr.New(apperr.KindSchemaExtraction, "no pipeline to extract a schema from")
	}
	pre := p.Preprocessor
	if pre == nil {
		return FeatureSchema{}, apperr.New(apperr.KindSchemaExtraction, "pipeline has no preprocessor step")
	}
	if len(pre.Transformers) < 2 {
		return FeatureSchema{}, apperr.New(apperr.KindSchemaExtraction,
			"preprocessor has %d transformers, expected categorical and numerical", len(pre.Transformers))
	}
	cat, num := pre.Transformers[0], pre.Transformers[1]
	if cat.Kind != ml.OneHot || cat.Name != ml.CategoricalStage {
		return FeatureSchema{}, apperr.New(apperr.KindSchemaExtraction,
			"first transformer is %s/%s, expected %s/%s", cat.Name, cat.Kind, ml.CategoricalStage, ml.OneHot)
	}
	if num.Kind != ml.Passthrough || num.Name != ml.NumericalStage {
		return FeatureSchema{}, apperr.New(apperr.KindSchemaExtraction,
			"second transformer is %s/%s, expected %s/%s", num.Name, num.Kind, ml.NumericalStage, ml.Passthrough)
	}
	return FeatureSchema{
		Version:     Version,
		Categorical: slices.Clone(cat.Columns),
		Numerical:   slices.Clone(num.Columns),
		Label:       p.Label,
	}, nil
}

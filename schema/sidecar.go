package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
)

// WriteSidecar stores s as YAML next to the model artifact.
func WriteSidecar(path string, s FeatureSchema) error {
	if s.Version == 0 {
		s.Version = Version
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create schema dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}

// ReadSidecar returns ok=false when no side-artifact exists at path.
func ReadSidecar(path string) (s FeatureSchema, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FeatureSchema{}, false, nil
	}
	if err != nil {
		return FeatureSchema{}, false, fmt.Errorf("read schema: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return FeatureSchema{}, false, apperr.Wrap(apperr.KindSchemaExtraction, err, "decode schema side-artifact")
	}
	if s.Version != Version {
		return FeatureSchema{}, false, apperr.New(apperr.KindSchemaExtraction,
			"schema side-artifact version %d, expected %d", s.Version, Version)
	}
	return s, true, nil
}

// Verify cross-checks a side-artifact against the schema recovered from the
// artifact itself.
func Verify(extracted, sidecar FeatureSchema) error {
	if !extracted.Equal(sidecar) {
		return apperr.New(apperr.KindSchemaExtraction,
			"schema side-artifact disagrees with model: categorical %v/%v numerical %v/%v",
			sidecar.Categorical, extracted.Categorical, sidecar.Numerical, extracted.Numerical)
	}
	return nil
}

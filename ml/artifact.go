package ml

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
)

const (
	ArtifactFormat  = "ride-cancellation/pipeline"
	ArtifactVersion = 1
)

func init() {
	gob.Register(&RandomForest{})
}

type envelope struct {
	Format   string
	Version  int
	Pipeline *Pipeline
}

// SaveArtifact writes p atomically: encode to a temp file, then rename.
func SaveArtifact(path string, p *Pipeline) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeArtifact(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install artifact: %w", err)
	}
	return nil
}

func EncodeArtifact(w io.Writer, p *Pipeline) error {
	if p == nil {
		return errors.New("nil pipeline")
	}
	env := envelope{Format: ArtifactFormat, Version: ArtifactVersion, Pipeline: p}
	if err := gob.NewEncoder(w).Encode(&env); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// DecodeArtifact fails with a schema extraction error when the bytes are not
// a pipeline artifact this build understands.
func DecodeArtifact(data []byte) (*Pipeline, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, apperr.Wrap(apperr.KindSchemaExtraction, err, "decode model artifact")
	}
	if env.Format != ArtifactFormat {
		return nil, apperr.New(apperr.KindSchemaExtraction, "unexpected artifact format %q", env.Format)
	}
	if env.Version != ArtifactVersion {
		return nil, apperr.New(apperr.KindSchemaExtraction, "unsupported artifact version %d", env.Version)
	}
	if env.Pipeline == nil {
		return nil, apperr.New(apperr.KindSchemaExtraction, "artifact carries no pipeline")
	}
	return env.Pipeline, nil
}

// LoadArtifact reads and decodes the artifact at path and returns the short
// content digest used as the model version.
func LoadArtifact(path string) (*Pipeline, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", apperr.ArtifactMissing(path)
		}
		return nil, "", apperr.Wrap(apperr.KindUnknown, err, "read model artifact")
	}
	p, err := DecodeArtifact(data)
	if err != nil {
		return nil, "", err
	}
	return p, Digest(data), nil
}

// Digest is the first 12 hex characters of the SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}

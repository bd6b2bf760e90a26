package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := OutOfRange("booking_hour", 25, 0, 23)
	wrapped := fmt.Errorf("predict: %w", base)

	assert.Equal(t, KindRangeValidation, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindRangeValidation))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindUnknown))
}

func TestRetryableOnlyForMissingArtifact(t *testing.T) {
	for _, k := range []Kind{KindUnknown, KindSchemaExtraction, KindMissingColumn, KindRangeValidation, KindTypeCoercion} {
		assert.False(t, k.Retryable(), k.String())
	}
	assert.True(t, KindArtifactMissing.Retryable())
}

func TestInvalidNumberNamesField(t *testing.T) {
	err := InvalidNumber("ride_distance", "far")
	assert.Contains(t, err.Error(), "ride_distance")
	assert.Contains(t, err.Error(), "far")
	assert.Equal(t, "ride_distance", err.Field)
	assert.True(t, err.Kind.Validation())
}

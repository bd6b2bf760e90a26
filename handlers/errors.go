package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
)

const trainHint = "train first: go run ./cmd/train"

func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindArtifactMissing:
		return http.StatusServiceUnavailable
	case apperr.KindSchemaExtraction:
		return http.StatusInternalServerError
	case apperr.KindMissingColumn, apperr.KindRangeValidation, apperr.KindTypeCoercion:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == apperr.KindArtifactMissing {
		msg += "; " + trainHint
	}
	c.JSON(StatusFor(kind), gin.H{"error": msg, "kind": kind.String()})
}

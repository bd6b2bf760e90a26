package main

import (
	"context"
	"testing"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml/mltest"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

func TestDecodeRequest(t *testing.T) {
	t.Run("nested features", func(t *testing.T) {
		req, payload, err := decodeRequest([]byte(`{"booking_id":"CNR1","features":{"distance":4.5,"vehicle_type":"Auto"}}`))
		if err != nil {
			t.Fatalf("decodeRequest failed: %v", err)
		}
		if req.BookingID != "CNR1" {
			t.Errorf("BookingID = %q, want %q", req.BookingID, "CNR1")
		}
		if payload["distance"] != 4.5 {
			t.Errorf("distance = %v, want 4.5", payload["distance"])
		}
	})

	t.Run("flat object", func(t *testing.T) {
		req, payload, err := decodeRequest([]byte(`{"booking_id":"CNR2","booking_hour":10}`))
		if err != nil {
			t.Fatalf("decodeRequest failed: %v", err)
		}
		if req.BookingID != "CNR2" {
			t.Errorf("BookingID = %q", req.BookingID)
		}
		if _, ok := payload["booking_id"]; ok {
			t.Error("booking_id should not be passed as a feature")
		}
		if payload["booking_hour"] != 10.0 {
			t.Errorf("booking_hour = %v, want 10", payload["booking_hour"])
		}
	})

	t.Run("invalid JSON returns error", func(t *testing.T) {
		if _, _, err := decodeRequest([]byte(`{not valid json}`)); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("no features", func(t *testing.T) {
		if _, _, err := decodeRequest([]byte(`{"booking_id":"CNR3"}`)); err == nil {
			t.Error("expected error for a payload without features")
		}
	})
}

func TestProcessMessage(t *testing.T) {
	artifact, _ := mltest.WriteArtifact(t, t.TempDir())
	models := services.NewModelService(config.ModelConfig{ArtifactPath: artifact}, logger.Nop())
	svc := services.NewPredictionService(models, nil, nil, logger.Nop()).Synchronous()

	res, err := processMessage(context.Background(), svc, []byte(`{"booking_id":"CNR9","features":{"distance":19}}`))
	if err != nil {
		t.Fatalf("processMessage failed: %v", err)
	}
	if res.BookingID != "CNR9" || res.IsCancelled != 1 {
		t.Errorf("result = %+v, want CNR9 cancelled", res)
	}
	if len(res.ModelVersion) != 12 {
		t.Errorf("ModelVersion = %q, want a 12 char digest", res.ModelVersion)
	}

	_, err = processMessage(context.Background(), svc, []byte(`{"booking_hour":99}`))
	if apperr.KindOf(err) != apperr.KindRangeValidation {
		t.Errorf("kind = %v, want range_validation", apperr.KindOf(err))
	}
}

func TestResultTopic(t *testing.T) {
	tests := map[string]string{
		"CNR1":    "bookings/predictions/CNR1",
		"a/b+c#d": "bookings/predictions/a_b_c_d",
		"":        "bookings/predictions/anonymous",
	}
	for in, want := range tests {
		if got := resultTopic(in); got != want {
			t.Errorf("resultTopic(%q) = %q, want %q", in, got, want)
		}
	}
}

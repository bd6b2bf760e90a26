package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/inference"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
)

var errNoInput = errors.New("no input provided: use --payload/--payload-file or simple flags like --distance and --booking-hour")

type inputs struct {
	payload     string
	payloadFile string
	distance    *float64
	bookingHour *int
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	modelPath := flag.String("model-path", cfg.Model.ArtifactPath, "path to the model artifact")
	payload := flag.String("payload", "", "inline JSON payload")
	payloadFile := flag.String("payload-file", "", "path to a JSON payload file")
	distance := flag.Float64("distance", 0, "ride distance (alias for ride_distance)")
	bookingHour := flag.Int("booking-hour", 0, "booking hour 0-23")
	flag.Parse()

	in := inputs{payload: *payload, payloadFile: *payloadFile}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "distance":
			in.distance = distance
		case "booking-hour":
			in.bookingHour = bookingHour
		}
	})

	if err := run(os.Stdout, *modelPath, in); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, modelPath string, in inputs) error {
	payload, err := mergePayload(in)
	if err != nil {
		return err
	}
	p, _, err := ml.LoadArtifact(modelPath)
	if err != nil {
		return err
	}
	res, err := inference.Predict(payload, p)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(map[string]any{
		"is_cancelled": res.Label,
		"probability":  res.Probability,
	})
}

// mergePayload layers the inline payload, then the file, then the flags.
func mergePayload(in inputs) (schema.Payload, error) {
	payload := schema.Payload{}
	if in.payload != "" {
		if err := json.Unmarshal([]byte(in.payload), &payload); err != nil {
			return nil, fmt.Errorf("invalid --payload: %w", err)
		}
	}
	if in.payloadFile != "" {
		data, err := os.ReadFile(in.payloadFile)
		if err != nil {
			return nil, fmt.Errorf("read --payload-file: %w", err)
		}
		var fromFile schema.Payload
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("invalid --payload-file: %w", err)
		}
		for k, v := range fromFile {
			payload[k] = v
		}
	}
	if in.distance != nil {
		payload["distance"] = *in.distance
	}
	if in.bookingHour != nil {
		payload["booking_hour"] = *in.bookingHour
	}
	if len(payload) == 0 {
		return nil, errNoInput
	}
	return payload, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/metrics"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

const resultTopicPrefix = "bookings/predictions/"

// BookingRequest is one booking as it arrives on the broker. Features holds
// the model inputs; when absent the remaining top-level keys are used.
type BookingRequest struct {
	BookingID string         `json:"booking_id"`
	Features  map[string]any `json:"features"`
}

type BookingResult struct {
	BookingID    string  `json:"booking_id"`
	IsCancelled  int     `json:"is_cancelled"`
	Probability  float64 `json:"probability"`
	ModelVersion string  `json:"model_version"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	exitCode := 0
	defer func() {
		log.Sync()
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()
	log = log.With("component", "scorer")

	cache, err := services.NewCacheService(cfg.Redis, log)
	if err != nil {
		log.Warn("continuing without redis", "error", err)
	}
	defer cache.Close()

	var logs *services.PredictionLogger
	if db, err := services.OpenDatabase(cfg.Database); err != nil {
		log.Warn("prediction log disabled", "error", err)
	} else {
		logs = services.NewPredictionLogger(db)
	}

	models := services.NewModelService(cfg.Model, log)
	if _, err := models.EnsureLoaded(); err != nil {
		log.Warn("no model yet, requests fail until one is trained", "error", err)
	}
	svc := services.NewPredictionService(models, cache, logs, log)

	go metrics.Serve(ctx, fmt.Sprintf(":%d", cfg.Server.Port+1), log)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID(cfg.MQTT.ClientID + "-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(client mqtt.Client, message mqtt.Message) {
		res, err := processMessage(ctx, svc, message.Payload())
		if err != nil {
			log.Warn("booking not scored", "topic", message.Topic(), "error", err)
			return
		}
		publishResult(client, res, log)
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(cfg.MQTT.Topic, 1, nil)
		token.Wait()
		if token.Error() != nil {
			log.Error("mqtt subscribe error", "error", token.Error())
			return
		}
		log.Info("scorer subscribed", "topic", cfg.MQTT.Topic)
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		log.Error("mqtt connection failed", "broker", cfg.MQTT.Broker, "error", token.Error())
		exitCode = 1
		return
	}

	log.Info("scorer running", "broker", cfg.MQTT.Broker, "redis", cache.Available())

	<-ctx.Done()
	log.Info("scorer shutting down")
	client.Disconnect(250)
}

// decodeRequest accepts either {"booking_id":..., "features":{...}} or a flat
// object of features with an optional booking_id.
func decodeRequest(raw []byte) (BookingRequest, schema.Payload, error) {
	var req BookingRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, nil, fmt.Errorf("invalid payload: %w", err)
	}
	if req.Features != nil {
		return req, schema.Payload(req.Features), nil
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return req, nil, fmt.Errorf("invalid payload: %w", err)
	}
	delete(flat, "booking_id")
	if len(flat) == 0 {
		return req, nil, errors.New("payload carries no features")
	}
	return req, schema.Payload(flat), nil
}

func processMessage(ctx context.Context, svc *services.PredictionService, raw []byte) (BookingResult, error) {
	req, payload, err := decodeRequest(raw)
	if err != nil {
		metrics.ScorerMessages.WithLabelValues("invalid").Inc()
		return BookingResult{}, err
	}
	pred, err := svc.Predict(ctx, services.SourceStream, req.BookingID, payload)
	if err != nil {
		metrics.ScorerMessages.WithLabelValues("failed").Inc()
		return BookingResult{}, err
	}
	metrics.ScorerMessages.WithLabelValues("scored").Inc()
	return BookingResult{
		BookingID:    req.BookingID,
		IsCancelled:  pred.Label,
		Probability:  pred.Probability,
		ModelVersion: pred.ModelVersion,
	}, nil
}

func resultTopic(bookingID string) string {
	id := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(bookingID)
	if id == "" {
		id = "anonymous"
	}
	return resultTopicPrefix + id
}

func publishResult(client mqtt.Client, res BookingResult, log *logger.Logger) {
	data, err := json.Marshal(res)
	if err != nil {
		log.Warn("json marshal failed", "booking_id", res.BookingID, "error", err)
		return
	}
	token := client.Publish(resultTopic(res.BookingID), 1, false, data)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Warn("mqtt publish failed", "booking_id", res.BookingID, "error", token.Error())
		}
	}()
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/metrics"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

const ensureTables = `
CREATE TABLE IF NOT EXISTS pending_bookings (
	booking_id  TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS booking_predictions (
	booking_id     TEXT PRIMARY KEY REFERENCES pending_bookings (booking_id) ON DELETE CASCADE,
	label          SMALLINT NOT NULL,
	probability    DOUBLE PRECISION NOT NULL,
	model_version  TEXT NOT NULL,
	scored_at      TIMESTAMPTZ NOT NULL
);`

type pendingBooking struct {
	BookingID string
	Payload   schema.Payload
}

type scoredBooking struct {
	BookingID    string
	Label        int
	Probability  float64
	ModelVersion string
	ScoredAt     time.Time
}

type bookingStore interface {
	FetchPending(ctx context.Context, limit int) ([]pendingBooking, error)
	SaveScore(ctx context.Context, s scoredBooking) error
}

type cycleStats struct {
	Fetched int
	Scored  int
	Failed  int
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
	log = log.With("component", "batchscore")

	err = execute(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("batch scorer stopped", "error", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var errNeedsPostgres = errors.New("batch scorer needs DB_DRIVER=postgres")

// execute runs scoring cycles until ctx ends. Setup failures are returned so
// the pool and cache are closed before the process exits.
func execute(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("%w (got %q)", errNeedsPostgres, cfg.Database.Driver)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.GetURL())
	if err != nil {
		return fmt.Errorf("db pool init failed: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, ensureTables); err != nil {
		return fmt.Errorf("ensure tables failed: %w", err)
	}
	log.Info("db connected", "host", cfg.Database.Host, "name", cfg.Database.Name)

	cache, err := services.NewCacheService(cfg.Redis, log)
	if err != nil {
		log.Warn("continuing without redis", "error", err)
	}
	defer cache.Close()

	models := services.NewModelService(cfg.Model, log)
	svc := services.NewPredictionService(models, cache, nil, log).Synchronous()
	store := &pgStore{pool: pool}

	go metrics.Serve(ctx, fmt.Sprintf(":%d", cfg.Server.Port+2), log)

	log.Info("batch scorer running", "interval", cfg.Scoring.Interval.String(), "batch_size", cfg.Scoring.BatchSize)

	runAndLog(ctx, store, svc, cfg.Scoring.BatchSize, log)

	ticker := time.NewTicker(cfg.Scoring.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runAndLog(ctx, store, svc, cfg.Scoring.BatchSize, log)
		case <-ctx.Done():
			log.Info("batch scorer shutting down")
			return nil
		}
	}
}

func runAndLog(ctx context.Context, store bookingStore, svc *services.PredictionService, batchSize int, log *logger.Logger) {
	start := time.Now()
	stats, err := runCycle(ctx, store, svc, batchSize, log)
	metrics.BatchCycleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("scoring cycle failed", "error", err)
		return
	}
	if stats.Fetched == 0 {
		log.Debug("no pending bookings")
		return
	}
	log.Info("scoring cycle completed", "fetched", stats.Fetched, "scored", stats.Scored,
		"failed", stats.Failed, "seconds", time.Since(start).Seconds())
}

// runCycle scores one batch of pending bookings. A missing model aborts the
// cycle; a bad row is logged and skipped so it does not block the rest.
func runCycle(ctx context.Context, store bookingStore, svc *services.PredictionService, batchSize int, log *logger.Logger) (cycleStats, error) {
	var stats cycleStats
	if _, err := svc.Models().EnsureLoaded(); err != nil {
		return stats, err
	}

	pending, err := store.FetchPending(ctx, batchSize)
	if err != nil {
		return stats, fmt.Errorf("fetch pending bookings: %w", err)
	}
	stats.Fetched = len(pending)

	for _, b := range pending {
		pred, err := svc.Predict(ctx, services.SourceBatch, b.BookingID, b.Payload)
		if err != nil {
			stats.Failed++
			log.Warn("booking not scored", "booking_id", b.BookingID, "kind", apperr.KindOf(err).String(), "error", err)
			continue
		}
		err = store.SaveScore(ctx, scoredBooking{
			BookingID:    b.BookingID,
			Label:        pred.Label,
			Probability:  pred.Probability,
			ModelVersion: pred.ModelVersion,
			ScoredAt:     time.Now().UTC().Truncate(time.Second),
		})
		if err != nil {
			stats.Failed++
			log.Warn("db upsert failed", "booking_id", b.BookingID, "error", err)
			continue
		}
		metrics.BatchRowsScored.Inc()
		stats.Scored++
	}
	return stats, nil
}

func decodePending(bookingID string, raw []byte) (pendingBooking, error) {
	var payload schema.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return pendingBooking{}, fmt.Errorf("booking %s: invalid payload: %w", bookingID, err)
	}
	if payload == nil {
		payload = schema.Payload{}
	}
	return pendingBooking{BookingID: bookingID, Payload: payload}, nil
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) FetchPending(ctx context.Context, limit int) ([]pendingBooking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.booking_id, p.payload
		FROM pending_bookings p
		WHERE NOT EXISTS (
			SELECT 1 FROM booking_predictions b WHERE b.booking_id = p.booking_id
		)
		ORDER BY p.created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pendingBooking
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		b, err := decodePending(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *pgStore) SaveScore(ctx context.Context, b scoredBooking) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO booking_predictions (booking_id, label, probability, model_version, scored_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO UPDATE SET
			label = EXCLUDED.label,
			probability = EXCLUDED.probability,
			model_version = EXCLUDED.model_version,
			scored_at = EXCLUDED.scored_at
	`, b.BookingID, b.Label, b.Probability, b.ModelVersion, b.ScoredAt)
	return err
}

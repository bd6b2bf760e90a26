package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/metrics"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/ml"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/preprocess"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/training"
)

type options struct {
	source     string
	data       string
	table      string
	modelPath  string
	schemaPath string
	estimators int
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var opts options
	flag.StringVar(&opts.source, "source", "csv", "training data source: csv or postgres")
	flag.StringVar(&opts.data, "data", cfg.Model.DataPath, "path to the bookings csv")
	flag.StringVar(&opts.table, "table", "ride_bookings", "postgres table holding the bookings")
	flag.StringVar(&opts.modelPath, "model-path", cfg.Model.ArtifactPath, "where to write the model artifact")
	flag.StringVar(&opts.schemaPath, "schema-path", cfg.Model.SchemaPath, "where to write the schema side-artifact")
	flag.IntVar(&opts.estimators, "estimators", training.DefaultOptions().Estimators, "number of trees")
	flag.Parse()

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = execute(ctx, cfg, opts, log)
	stop()
	if err != nil {
		log.Error("training failed", "source", opts.source, "error", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// execute owns every resource of a training invocation so they are released
// before main decides the exit code.
func execute(ctx context.Context, cfg *config.Config, opts options, log *logger.Logger) error {
	db, err := services.OpenDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("open tracking database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	tracker := services.NewTracker(db, cfg.Tracking.Experiment)

	raw, origin, err := loadRaw(ctx, opts, cfg.Database)
	if err != nil {
		return fmt.Errorf("load training data: %w", err)
	}
	_, err = run(raw, origin, opts, tracker, log)
	return err
}

func loadRaw(ctx context.Context, opts options, db config.DatabaseConfig) (*dataset.RawFrame, string, error) {
	switch opts.source {
	case "csv":
		raw, err := dataset.LoadCSV(opts.data)
		return raw, opts.data, err
	case "postgres":
		pool, err := pgxpool.New(ctx, db.GetURL())
		if err != nil {
			return nil, "", fmt.Errorf("db pool init failed: %w", err)
		}
		defer pool.Close()
		raw, err := dataset.LoadTable(ctx, pool, opts.table)
		return raw, "postgres:" + opts.table, err
	default:
		return nil, "", fmt.Errorf("unknown source %q (want csv or postgres)", opts.source)
	}
}

// run cleans, trains, persists and records one training run.
func run(raw *dataset.RawFrame, origin string, opts options, tracker *services.Tracker, log *logger.Logger) (training.Report, error) {
	trainOpts := training.DefaultOptions()
	trainOpts.Estimators = opts.estimators

	record, err := tracker.StartRun(origin, trainOpts)
	if err != nil {
		return training.Report{}, err
	}
	fail := func(err error) (training.Report, error) {
		if ferr := tracker.FailRun(record, err); ferr != nil {
			log.Warn("could not mark run failed", "run_id", record.RunID, "error", ferr)
		}
		return training.Report{}, err
	}

	frame, err := preprocess.Clean(raw)
	if err != nil {
		return fail(err)
	}
	log.Info("training data cleaned", "rows", frame.Len(), "columns", len(frame.Columns()))

	pipeline, report, err := training.Train(frame, trainOpts)
	if err != nil {
		return fail(err)
	}
	metrics.TrainingDuration.Observe(report.Duration.Seconds())
	pipeline.RunID = record.RunID

	if err := ml.SaveArtifact(opts.modelPath, pipeline); err != nil {
		return fail(err)
	}
	fs, err := schema.Extract(pipeline)
	if err != nil {
		return fail(err)
	}
	if opts.schemaPath != "" {
		if err := schema.WriteSidecar(opts.schemaPath, fs); err != nil {
			return fail(err)
		}
	}
	_, version, err := ml.LoadArtifact(opts.modelPath)
	if err != nil {
		return fail(err)
	}

	if err := tracker.FinishRun(record, report.Params, report.Metrics, opts.modelPath, version); err != nil {
		return report, err
	}
	log.Info("model trained and saved",
		"path", opts.modelPath,
		"run_id", record.RunID,
		"version", version,
		"accuracy", report.Metrics.Accuracy,
		"f1", report.Metrics.F1,
		"roc_auc", report.Metrics.ROCAUC,
		"duration", report.Duration,
	)
	return report, nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/models"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/schema"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

func bookingsCSV(n int) string {
	var b strings.Builder
	b.WriteString("Date,Time,Booking ID,Booking Status,Customer ID,Vehicle Type,Ride Distance\n")
	for i := 0; i < n; i++ {
		status := "Completed"
		if i%20 > 12 {
			status = "Cancelled by Customer"
		}
		fmt.Fprintf(&b, "2024-03-%02d,%02d:05:00,B%d,%s,C%d,%s,%d\n",
			1+i%28, i%24, i, status, i, []string{"Auto", "Bike"}[i%2], i%20)
	}
	return b.String()
}

func newTracker(t *testing.T, dir string) *services.Tracker {
	t.Helper()
	db, err := services.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "tracking.db")})
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return services.NewTracker(db, "ride-cancellation")
}

func TestRunTrainsAndRecords(t *testing.T) {
	dir := t.TempDir()
	raw, err := dataset.ReadCSV(strings.NewReader(bookingsCSV(200)))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	opts := options{
		modelPath:  filepath.Join(dir, "models", "model.gob"),
		schemaPath: filepath.Join(dir, "models", "model.schema.yaml"),
		estimators: 10,
	}
	tracker := newTracker(t, dir)

	report, err := run(raw, "bookings.csv", opts, tracker, logger.Nop())
	if err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if report.Params.NEstimators != 10 {
		t.Errorf("NEstimators = %d, want 10", report.Params.NEstimators)
	}

	s, ok, err := schema.ReadSidecar(opts.schemaPath)
	if err != nil || !ok {
		t.Fatalf("ReadSidecar: ok=%v err=%v", ok, err)
	}
	for _, col := range s.Expected() {
		if col == "booking_id" || col == "customer_id" || col == "booking_status" {
			t.Errorf("schema contains dropped column %q", col)
		}
	}

	runs, err := tracker.ListRuns(10, nil)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != models.RunFinished {
		t.Fatalf("runs = %+v, want one finished run", runs)
	}
	if runs[0].ModelVersion == "" || runs[0].ArtifactPath != opts.modelPath {
		t.Errorf("run not linked to artifact: %+v", runs[0])
	}
}

func TestRunRecordsFailure(t *testing.T) {
	dir := t.TempDir()
	raw, err := dataset.ReadCSV(strings.NewReader("Ride Distance\n1\n2\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	tracker := newTracker(t, dir)

	_, err = run(raw, "bad.csv", options{modelPath: filepath.Join(dir, "model.gob"), estimators: 5}, tracker, logger.Nop())
	if err == nil {
		t.Fatal("expected error without a booking status column")
	}
	runs, _ := tracker.ListRuns(10, nil)
	if len(runs) != 1 || runs[0].Status != models.RunFailed {
		t.Fatalf("runs = %+v, want one failed run", runs)
	}
}

func TestLoadRawUnknownSource(t *testing.T) {
	if _, _, err := loadRaw(t.Context(), options{source: "parquet"}, config.DatabaseConfig{}); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bookings.csv")
	if err := os.WriteFile(csvPath, []byte(bookingsCSV(120)), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "tracking.db")},
		Tracking: config.TrackingConfig{Experiment: "ride-cancellation"},
	}
	opts := options{
		source:     "csv",
		data:       csvPath,
		modelPath:  filepath.Join(dir, "model.gob"),
		estimators: 5,
	}

	if err := execute(t.Context(), cfg, opts, logger.Nop()); err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if _, err := os.Stat(opts.modelPath); err != nil {
		t.Errorf("artifact not written: %v", err)
	}

	t.Run("missing data file is returned, not fatal", func(t *testing.T) {
		opts := opts
		opts.data = filepath.Join(dir, "absent.csv")
		if err := execute(t.Context(), cfg, opts, logger.Nop()); err == nil {
			t.Error("expected error for a missing csv")
		}
	})

	t.Run("bad database driver", func(t *testing.T) {
		bad := &config.Config{Database: config.DatabaseConfig{Driver: "oracle"}}
		if err := execute(t.Context(), bad, opts, logger.Nop()); err == nil {
			t.Error("expected error for an unsupported driver")
		}
	})
}
